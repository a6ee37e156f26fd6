// Package matcher is the one-shot author reconciliation tool. It matches
// every CSV row against the consultant directory and exports three files:
// matched rows (with consultant id and match type appended), unmatched rows
// (name and email only, multi-author rows included), and a compiled file of
// all rows ready for the record importer.
package matcher
