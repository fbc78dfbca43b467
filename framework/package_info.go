// Package framework contains the low-level implementation of test harness infrastructure
// that is not specific to the session API domain.
//
// The general model is:
//
// 1. The test harness communicates with a target service over plain HTTP. The framework
// only knows how to wait for the target to start answering requests; everything about the
// shape of those requests belongs to higher-level packages.
//
// 2. The test harness can expose mock endpoints at fixed paths to receive the requests
// that the target service makes to its external collaborators.
//
// 3. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// The domain-specific code that knows what is being tested is responsible for providing
// the HTTP requests to send to the target, the handlers for the mock endpoints, and a
// domain-specific test API on top of the test context.
package framework
