package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"intake/internal/config"
)

// DownloadError wraps a failed fetch so callers can count it per row instead
// of aborting the batch.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Fetcher downloads remote files into the configured download directory.
type Fetcher struct {
	client *http.Client
	dir    string
}

// New builds a fetcher with the configured per-file deadline.
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: time.Duration(cfg.Download.TimeoutSeconds) * time.Second},
		dir:    cfg.Paths.DownloadDir,
	}
}

// SanitizeURL re-encodes the final path segment of a URL so half-escaped
// filenames ("my file (1).pdf" vs "my%20file%20(1).pdf") fetch consistently.
func SanitizeURL(raw string) string {
	parts := strings.Split(raw, "/")
	last := parts[len(parts)-1]
	decoded, err := url.PathUnescape(last)
	if err != nil {
		decoded = last
	}
	parts[len(parts)-1] = url.PathEscape(decoded)
	return strings.Join(parts, "/")
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._()\-]+`)

// ExtractFilename derives a safe local filename from a URL: the unescaped
// final path segment with unsafe characters collapsed to dashes.
func ExtractFilename(raw string) string {
	name := ""
	if parsed, err := url.Parse(raw); err == nil {
		name = path.Base(parsed.Path)
	} else {
		parts := strings.Split(raw, "/")
		name = parts[len(parts)-1]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "-")
	name = strings.Trim(name, "-")
	if name == "" || name == "." || name == ".." {
		name = "download"
	}
	return name
}

// Download fetches the URL into the download directory and returns the local
// path and derived filename. Failures come back as *DownloadError.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, string, error) {
	sanitized := SanitizeURL(rawURL)
	filename := ExtractFilename(sanitized)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sanitized, nil)
	if err != nil {
		return "", "", &DownloadError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", &DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &DownloadError{URL: rawURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", "", &DownloadError{URL: rawURL, Err: err}
	}
	tmp, err := os.CreateTemp(f.dir, "fetch-*-"+filename)
	if err != nil {
		return "", "", &DownloadError{URL: rawURL, Err: err}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", &DownloadError{URL: rawURL, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", &DownloadError{URL: rawURL, Err: err}
	}

	return filepath.Clean(tmp.Name()), filename, nil
}
