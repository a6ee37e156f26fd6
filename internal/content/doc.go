// Package content is the SQLite-backed datastore the migration tools read
// and mutate: records keyed by external id, the consultant directory, the
// taxonomy term table, per-record fields, author links, term assignments,
// link lists, and stored attachments.
package content
