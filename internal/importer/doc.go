// Package importer creates or updates content records from migration CSV
// rows: title, type/level/date mapping, authorship classification
// (consultant links vs. free-text individual/organization), and external
// resource links. Rows whose external id already exists update the existing
// record instead of creating a duplicate.
package importer
