// Package names normalizes author names for matching.
//
// Migration CSVs carry names in inconsistent shapes: "Smith, John, MD",
// "John Smith PhD", "Jane Roe (she/her)". Normalize collapses all of them
// to a lowercase "given surname" form so exact and fuzzy comparison work on
// the actual name, and IsMultiAuthor flags cells that list several people.
package names
