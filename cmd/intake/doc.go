// Command intake is the CLI for the CSV migration toolkit: author matching,
// record import, file attachment, taxonomy/audience assignment, link cleanup,
// and job/config utilities.
package main
