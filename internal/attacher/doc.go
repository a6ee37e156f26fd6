// Package attacher downloads the files referenced by migration CSV rows and
// appends them to the matching record's link list, grouping rows by resource
// id so each record is written once per batch. It also provides a cleanup
// pass that strips link entries left pointing at nothing.
package attacher
