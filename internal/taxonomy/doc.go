// Package taxonomy resolves hierarchical category paths and audience labels
// against a term forest and a fixed audience vocabulary.
//
// CSV cells carry human-entered names; the resolvers look them up
// case-insensitively, consult operator-supplied memory first, and suspend
// with a Mismatch (carrying the candidate options) when a value is unknown.
// Operators answer a mismatch once and the answer is replayed from memory on
// every later occurrence.
package taxonomy
