package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmpty indicates a source file with a header but no data rows.
var ErrEmpty = errors.New("csv source has no data rows")

// MissingColumnError reports a required header that the source lacks.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("csv source missing required column %q", e.Column)
}

// Row is a single data row addressed by header name.
type Row struct {
	index  map[string]int
	values []string
}

// Get returns the trimmed cell under the named column, or "" when the column
// does not exist.
func (r Row) Get(column string) string {
	pos, ok := r.index[column]
	if !ok || pos >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[pos])
}

// Has reports whether the source carries the named column.
func (r Row) Has(column string) bool {
	_, ok := r.index[column]
	return ok
}

// Source is a fully loaded CSV file. Rows whose field count differs from the
// header are dropped during load; the remaining rows keep their file order.
type Source struct {
	path    string
	headers []string
	index   map[string]int
	rows    [][]string
}

// Open reads and parses the CSV file at path. A UTF-8 byte order mark on the
// first header cell is stripped.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv %s: %w", path, ErrEmpty)
		}
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		if _, ok := index[header]; !ok {
			index[header] = i
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		if len(record) != len(headers) {
			continue
		}
		rows = append(rows, record)
	}

	return &Source{path: path, headers: headers, index: index, rows: rows}, nil
}

// Path returns the file the source was loaded from.
func (s *Source) Path() string {
	return s.path
}

// Headers returns the column names in file order.
func (s *Source) Headers() []string {
	out := make([]string, len(s.headers))
	copy(out, s.headers)
	return out
}

// Len returns the number of usable data rows.
func (s *Source) Len() int {
	return len(s.rows)
}

// Count validates that every required column exists and that at least one data
// row survived the load, then returns the row count.
func (s *Source) Count(required ...string) (int, error) {
	for _, column := range required {
		if _, ok := s.index[column]; !ok {
			return 0, &MissingColumnError{Column: column}
		}
	}
	if len(s.rows) == 0 {
		return 0, ErrEmpty
	}
	return len(s.rows), nil
}

// Slice returns up to count rows starting at offset. Out-of-range offsets
// yield an empty slice.
func (s *Source) Slice(offset, count int) []Row {
	if offset < 0 || offset >= len(s.rows) || count <= 0 {
		return nil
	}
	end := offset + count
	if end > len(s.rows) {
		end = len(s.rows)
	}
	out := make([]Row, 0, end-offset)
	for _, values := range s.rows[offset:end] {
		out = append(out, Row{index: s.index, values: values})
	}
	return out
}

// All returns every data row.
func (s *Source) All() []Row {
	return s.Slice(0, len(s.rows))
}
