// Package contracttests contains the session endpoint contract tests themselves and
// their supporting API.
//
// Test harness infrastructure that is not specific to the session domain, such as the
// test contexts and the mock endpoint listener, is in the lower-level framework package.
package contracttests
