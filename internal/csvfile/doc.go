// Package csvfile loads migration CSV files into addressable row sources.
//
// A Source validates required headers up front, strips UTF-8 byte order
// marks, silently drops rows whose field count does not match the header,
// and hands out windowed row slices so batch tools can walk a file with a
// persistent cursor.
package csvfile
