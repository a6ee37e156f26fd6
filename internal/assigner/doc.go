// Package assigner writes hierarchical category terms and audience values
// onto records from migration CSV rows. Values the vocabulary doesn't know
// suspend the batch with a mismatch so an operator can map or skip them; the
// resolution is remembered and the batch resumes from the same offset.
package assigner
