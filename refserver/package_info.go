// Package refserver is a reference implementation of the session endpoint contract that
// the test suite asserts against.
//
// It exists for two reasons: it documents, in executable form, the behavior a conforming
// target service must have; and it is the target for the harness's own self-test mode,
// which is how we know the suite and the contract agree before pointing the suite at a
// real service.
//
// The contract in brief: POST /endpoint takes form fields token and action. Failures of
// request shape or authorization are HTTP-level failures (4xx); failures of domain usage
// (bad token shape, unknown action, not logged in, backend trouble) are payload-level
// failures, reported as HTTP 200 with an ERROR envelope.
package refserver
