// Package stubs implements the stand-in for the target service's external backends.
//
// The target is configured out-of-band to call /auth during LOGIN and /doAction during
// ACTION at the harness's address. Each stub endpoint answers 200 by default; tests
// reprogram a stub's behavior (status, latency, hang) to exercise the target's
// degraded-backend handling, and read back the recorded requests to assert on the
// collaboration itself.
package stubs

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/sessionops/session-contract-tests/framework"
	"github.com/sessionops/session-contract-tests/token"
)

const (
	// AuthPath and ActionPath are fixed by the target's configuration, not ours.
	AuthPath   = "/auth"
	ActionPath = "/doAction"

	// slowPathDelay is how long the stub sits on a request whose token carries the
	// timeout marker. It must comfortably exceed the degraded-path client timeout.
	slowPathDelay = 10 * time.Second
)

// Behavior describes how a stub endpoint answers its next requests.
type Behavior struct {
	// Status is the HTTP status to return. Zero means 200.
	Status int

	// Delay is slept before answering. The sleep is cut short if the caller gives up
	// and closes the connection.
	Delay time.Duration

	// Hang, if true, means the stub never answers until the request is cancelled.
	Hang bool
}

// BackendStub is the pair of stub endpoints the target service calls.
type BackendStub struct {
	Auth   *StubEndpoint
	Action *StubEndpoint
}

// NewBackendStub registers the /auth and /doAction endpoints on the harness listener.
func NewBackendStub(harness *framework.TestHarness, logger framework.Logger) *BackendStub {
	return &BackendStub{
		Auth:   newStubEndpoint(harness, AuthPath, logger),
		Action: newStubEndpoint(harness, ActionPath, logger),
	}
}

// BaseURL returns the URL prefix the target service must be configured with.
func (b *BackendStub) BaseURL() string {
	return b.Auth.endpoint.BaseURL()[:len(b.Auth.endpoint.BaseURL())-len(AuthPath)]
}

// Reset restores default behavior on both endpoints and discards recorded requests.
func (b *BackendStub) Reset() {
	b.Auth.Reset()
	b.Action.Reset()
}

func (b *BackendStub) Close() {
	b.Auth.endpoint.Close()
	b.Action.endpoint.Close()
}

// StubEndpoint is one programmable backend path.
type StubEndpoint struct {
	endpoint *framework.MockEndpoint
	logger   framework.Logger
	mu       sync.Mutex
	behavior Behavior
}

func newStubEndpoint(harness *framework.TestHarness, path string, logger framework.Logger) *StubEndpoint {
	s := &StubEndpoint{
		logger: framework.LoggerWithPrefix(logger, "[stub "+path+"] "),
	}
	s.endpoint = harness.NewMockEndpoint(path, s, s.logger)
	return s
}

// Respond programs the endpoint's behavior for subsequent requests.
func (s *StubEndpoint) Respond(behavior Behavior) {
	s.mu.Lock()
	s.behavior = behavior
	s.mu.Unlock()
}

// Reset restores the default always-succeed behavior and discards recorded requests.
func (s *StubEndpoint) Reset() {
	s.Respond(Behavior{})
	s.endpoint.DrainRequests()
}

// AwaitRequest waits for the target service to call this backend, returning the form
// fields it sent.
func (s *StubEndpoint) AwaitRequest(timeout time.Duration) (url.Values, error) {
	req, err := s.endpoint.AwaitRequest(timeout)
	if err != nil {
		return nil, err
	}
	return req.FormValues(), nil
}

func (s *StubEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	behavior := s.behavior
	s.mu.Unlock()

	delay := behavior.Delay
	if strings.HasPrefix(tokenFromRequest(r), token.TimeoutPrefix) {
		delay = slowPathDelay
	}
	if behavior.Hang {
		s.logger.Printf("hanging until the caller gives up")
		<-r.Context().Done()
		return
	}
	if delay > 0 {
		s.logger.Printf("delaying response by %s", delay)
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	status := behavior.Status
	if status == 0 {
		status = 200
	}
	httphelpers.HandlerWithStatus(status).ServeHTTP(w, r)
}

func tokenFromRequest(r *http.Request) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostForm.Get("token")
}
