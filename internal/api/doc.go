// Package api defines the JSON-facing shapes for jobs, step results, and
// mismatches, decoupling CLI output from the internal batch types.
package api
