package contracttests

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sessionops/session-contract-tests/apiclient"
	"github.com/sessionops/session-contract-tests/config"
	"github.com/sessionops/session-contract-tests/framework"
	"github.com/sessionops/session-contract-tests/stubs"
)

type environment struct {
	client   *apiclient.Client
	stub     *stubs.BackendStub
	policies config.PolicyConfig
}

// T represents a test or subtest in the contract test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment
// that is outside of the Go test runner, with extra features such as captured debug
// logging. Those features are provided by the lower-level framework package.
//
// It also provides the session-domain test API: issuing endpoint requests through the
// shared API client, reprogramming the backend stubs, and asserting on envelopes. To
// make test assertions you can use the assert and require packages, passing the *T as
// if it were a *testing.T.
type T struct {
	context *framework.Context
	env     *environment
}

func newTestScope(c *framework.Context, env *environment) *T {
	return &T{context: c, env: env}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The
// methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T. The backend
// stubs are restored to their default behavior after each subtest, so a test that
// programs a failure does not leak it into the next one.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.env))
	})
	if t.env.stub != nil {
		t.env.stub.Reset()
	}
}

// Debug logs some debug output for the test. The output will be passed to the test
// logger at the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Policies returns the target's declared answers to the contract's implementation-defined
// behaviors.
func (t *T) Policies() config.PolicyConfig {
	return t.env.policies
}

// Client returns the shared API client.
func (t *T) Client() *apiclient.Client {
	return t.env.client
}

// Backends returns the programmable backend stubs. Tests that need them must call
// RequireBackendControl first.
func (t *T) Backends() *stubs.BackendStub {
	return t.env.stub
}

// RequireBackendControl skips this test if the harness is not hosting the target's
// backend stubs (for instance when the target points at an externally managed mock).
func (t *T) RequireBackendControl() {
	if t.env.stub == nil {
		t.context.SkipWithReason("harness does not control the target's backend stubs")
	}
}

// Endpoint issues a canonical request and returns the parsed envelope and the transport
// facts. The test fails immediately on a transport-level error or a malformed envelope;
// per the contract, every payload the endpoint returns must be a well-formed envelope
// even when the test tolerates either an OK or an ERROR result.
func (t *T) Endpoint(token, action string) (apiclient.Envelope, apiclient.ResponseInfo) {
	envelope, info, err := t.env.client.Endpoint(context.Background(), token, action)
	require.NoError(t, err, "transport failure talking to the endpoint")
	require.NoError(t, envelope.Validate())
	return envelope, info
}

// RequireOK issues a canonical request and requires HTTP 200 with an OK envelope.
func (t *T) RequireOK(token, action string) {
	envelope, info := t.Endpoint(token, action)
	require.Equal(t, 200, info.StatusCode)
	require.True(t, envelope.IsOK(),
		"expected OK for %s on %s, got %s", action, token, envelope)
}

// RequireErrorResult issues a canonical request and requires HTTP 200 with an ERROR
// envelope. Envelope validation has already required the message to be non-empty.
func (t *T) RequireErrorResult(token, action string) apiclient.Envelope {
	envelope, info := t.Endpoint(token, action)
	require.Equal(t, 200, info.StatusCode,
		"domain failures must be HTTP 200, got %d for %s on %q", info.StatusCode, action, token)
	require.True(t, envelope.IsError(),
		"expected ERROR for %s on %q, got %s", action, token, envelope)
	return envelope
}

// PostRaw issues a deliberately malformed request and returns the transport facts. The
// test fails immediately on a transport-level error.
func (t *T) PostRaw(req apiclient.RawRequest) apiclient.ResponseInfo {
	info, err := t.env.client.PostRaw(context.Background(), req)
	require.NoError(t, err, "transport failure talking to the endpoint")
	return info
}

// RequireStatusIn asserts that a status code is one of the accepted values.
func (t *T) RequireStatusIn(info apiclient.ResponseInfo, statuses ...int) {
	for _, s := range statuses {
		if info.StatusCode == s {
			return
		}
	}
	require.Fail(t, "unexpected response status",
		fmt.Sprintf("got HTTP %d, wanted one of %v", info.StatusCode, statuses))
}

// ShortTimeoutClient returns a client with the degraded-path timeout, for tests that
// provoke slow backends.
func (t *T) ShortTimeoutClient() *apiclient.Client {
	return t.env.client.WithTimeout(config.DegradedTimeoutSeconds * time.Second)
}
