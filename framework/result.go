package framework

import (
	"fmt"
	"strings"
)

// Results is the cumulative outcome of a test run.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skips    []TestResult
}

// TestResult is the outcome of a single test.
type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

// OK returns true if there were no failures.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// FailedTestIDs returns the IDs of all failed tests, in the order they ran.
func (r Results) FailedTestIDs() []TestID {
	var ids []TestID
	for _, f := range r.Failures {
		ids = append(ids, f.TestID)
	}
	return ids
}

// TestID identifies a test or subtest as the path of names leading to it.
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
