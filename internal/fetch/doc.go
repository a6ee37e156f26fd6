// Package fetch downloads remote files referenced by migration CSVs.
//
// URLs in exported spreadsheets arrive with inconsistently escaped
// filenames, so the fetcher normalizes the final path segment before
// requesting and derives a filesystem-safe local name from it. Every
// failure is a *DownloadError so batch tools can count it and move on.
package fetch
