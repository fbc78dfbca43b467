package framework

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const incomingRequestBuffer = 100

// MockEndpoint is an endpoint hosted by the test harness that can receive requests from
// the target service. It records every incoming request so tests can assert on how the
// target talked to its collaborators.
type MockEndpoint struct {
	owner    *TestHarness
	basePath string
	handler  http.Handler
	newReqs  chan IncomingRequestInfo
	cancels  []*context.CancelFunc
	logger   Logger
	lock     sync.Mutex
	closing  sync.Once
}

// IncomingRequestInfo contains information about an HTTP request sent by the target
// service to one of the mock endpoints.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	Path    string // the subpath below the endpoint's base path, or "" for the base path itself
	Body    []byte
	Context context.Context
}

// FormValues parses the request body as a form-encoded payload. It returns an empty set
// of values if the body was not form-encoded.
func (r IncomingRequestInfo) FormValues() url.Values {
	values, err := url.ParseQuery(string(r.Body))
	if err != nil {
		return url.Values{}
	}
	return values
}

// NewMockEndpoint registers an endpoint at a fixed path.
//
// The handler is called for all requests to basePath or any subpath of it. The request
// URL is rewritten first so the handler sees only the subpath, and the request carries a
// Context whose Done channel is closed if Close is called on the endpoint.
func (h *TestHarness) NewMockEndpoint(
	basePath string,
	handler http.Handler,
	logger Logger,
) *MockEndpoint {
	if logger == nil {
		logger = h.logger
	}
	e := &MockEndpoint{
		owner:    h,
		basePath: basePath,
		handler:  handler,
		newReqs:  make(chan IncomingRequestInfo, incomingRequestBuffer),
		logger:   logger,
	}
	h.lock.Lock()
	h.endpoints[basePath] = e
	h.lock.Unlock()

	return e
}

// BaseURL returns the full external URL of the mock endpoint.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

// AwaitRequest waits for an incoming request to the endpoint.
func (e *MockEndpoint) AwaitRequest(timeout time.Duration) (IncomingRequestInfo, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case req, ok := <-e.newReqs:
		if !ok {
			return IncomingRequestInfo{}, fmt.Errorf("endpoint %s was already closed", e.basePath)
		}
		return req, nil
	case <-deadline.C:
		return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %s", e.basePath)
	}
}

// DrainRequests discards any recorded requests that have not been consumed yet, so a test
// can assert only on requests made after this point.
func (e *MockEndpoint) DrainRequests() {
	for {
		select {
		case <-e.newReqs:
		default:
			return
		}
	}
}

func (e *MockEndpoint) serveHTTP(w http.ResponseWriter, req *http.Request) {
	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			e.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}

	e.lock.Lock()
	ctx, canceller := context.WithCancel(req.Context())
	cancellerPtr := &canceller
	e.cancels = append(e.cancels, cancellerPtr)
	e.lock.Unlock()

	subPath := strings.TrimPrefix(req.URL.Path, e.basePath)
	incoming := IncomingRequestInfo{
		Headers: req.Header,
		Method:  req.Method,
		Path:    subPath,
		Body:    body,
		Context: ctx,
	}
	select { // non-blocking push
	case e.newReqs <- incoming:
		break
	default:
		e.logger.Printf("Incoming request channel was full for %s", req.URL)
	}

	transformedReq := req.WithContext(ctx)
	url := *req.URL
	url.Path = subPath
	transformedReq.URL = &url
	if body != nil {
		transformedReq.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	e.handler.ServeHTTP(w, transformedReq)

	e.lock.Lock()
	for i, c := range e.cancels {
		if c == cancellerPtr { // can't compare functions with ==, but can compare pointers
			e.cancels = append(e.cancels[:i], e.cancels[i+1:]...)
			break
		}
	}
	e.lock.Unlock()
}

// Close unregisters the endpoint. Any subsequent requests to it will receive 404 errors.
// It also cancels the Context for every active request to that endpoint.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.basePath)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancellers := e.cancels
		e.cancels = nil
		close(e.newReqs)
		e.lock.Unlock()

		for _, cancel := range cancellers {
			(*cancel)()
		}
	})
}
