// Package matching reconciles author values against a consultant directory.
//
// The cascade tries exact normalized-name equality, then fuzzy name, then
// exact email, then fuzzy email; the first stage with a hit wins. Fuzzy
// comparison combines a shared-character similarity percentage with
// Levenshtein edit distance, and ties between equally similar candidates
// resolve to the lowest candidate id so results are stable across runs.
package matching
