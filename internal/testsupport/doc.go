// Package testsupport provides shared builders for package tests: temp-dir
// configs, CSV fixtures, and seeded stores.
package testsupport
