package framework

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TestHarness hosts the HTTP listener that stands in for the target service's external
// collaborators, and knows how to wait for the target service itself to become ready.
//
// Mock endpoints are registered at fixed paths, because the target service is configured
// out-of-band with the URLs of its collaborators and cannot be told about dynamically
// generated paths in the middle of a run.
type TestHarness struct {
	targetBaseURL   string
	externalBaseURL string
	endpoints       map[string]*MockEndpoint
	logger          Logger
	lock            sync.Mutex
}

// NewTestHarness starts the harness's own HTTP listener on the specified port (port 0
// picks an ephemeral port) and then waits for the target service at targetBaseURL to
// answer an HTTP request, returning an error if it does not do so within readyTimeout.
func NewTestHarness(
	targetBaseURL string,
	externalHostname string,
	port int,
	readyTimeout time.Duration,
	debugLogger Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}

	h := &TestHarness{
		targetBaseURL: targetBaseURL,
		endpoints:     make(map[string]*MockEndpoint),
		logger:        debugLogger,
	}

	listenedPort, err := startServer(port, http.HandlerFunc(h.serveHTTP))
	if err != nil {
		return nil, err
	}
	h.externalBaseURL = fmt.Sprintf("http://%s:%d", externalHostname, listenedPort)

	// An empty target URL means the target does not exist yet; self-test mode starts
	// the harness first and brings the target up against its mock endpoints.
	if targetBaseURL != "" {
		if err := awaitTarget(targetBaseURL, readyTimeout, startupOutput); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// TargetBaseURL returns the base URL of the service under test.
func (h *TestHarness) TargetBaseURL() string {
	return h.targetBaseURL
}

// ExternalBaseURL returns the base URL at which the target service can reach the
// harness's mock endpoints.
func (h *TestHarness) ExternalBaseURL() string {
	return h.externalBaseURL
}

func (h *TestHarness) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == "HEAD" {
		w.WriteHeader(200) // used to check whether our own listener is active
		return
	}

	h.lock.Lock()
	var e *MockEndpoint
	for path, candidate := range h.endpoints {
		if req.URL.Path == path || strings.HasPrefix(req.URL.Path, path+"/") {
			e = candidate
			break
		}
	}
	h.lock.Unlock()
	if e == nil {
		h.logger.Printf("Received request for unrecognized URL path %s", req.URL.Path)
		w.WriteHeader(404)
		return
	}

	e.serveHTTP(w, req)
}

// awaitTarget polls the target service's base URL until it responds. Any HTTP status
// counts as ready; a bare session endpoint has no status resource, so all we can check
// is that something is answering at that address.
func awaitTarget(url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Waiting for target service at %s", url)

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Get(url)
		if err == nil {
			if resp.Body != nil {
				resp.Body.Close()
			}
			fmt.Fprintf(output, " ready (HTTP %d)\n", resp.StatusCode)
			return nil
		}
		lastErr = err
		time.Sleep(time.Millisecond * 100)
	}
	fmt.Fprintln(output)
	return fmt.Errorf("timed out waiting for target service, result of last query was: %w", lastErr)
}

func startServer(port int, handler http.Handler) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("could not listen on port %d: %w", port, err)
	}
	server := &http.Server{Handler: handler}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
