package framework

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
)

func startTestHarness(t *testing.T) *TestHarness {
	t.Helper()
	h, err := NewTestHarness("", "localhost", 0, time.Second, NullLogger(), io.Discard)
	require.NoError(t, err)
	return h
}

func TestMockEndpointReceivesAndRecordsRequests(t *testing.T) {
	h := startTestHarness(t)
	e := h.NewMockEndpoint("/auth", httphelpers.HandlerWithStatus(http.StatusOK), nil)
	defer e.Close()

	resp, err := http.PostForm(e.BaseURL(), url.Values{"token": {"ABC123"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	info, err := e.AwaitRequest(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "POST", info.Method)
	assert.Equal(t, "", info.Path)
	assert.Equal(t, "ABC123", info.FormValues().Get("token"))
}

func TestMockEndpointSeesOnlySubpath(t *testing.T) {
	h := startTestHarness(t)
	var seenPath string
	e := h.NewMockEndpoint("/base", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}), nil)
	defer e.Close()

	resp, err := http.Get(e.BaseURL() + "/sub/path")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/sub/path", seenPath)

	info, err := e.AwaitRequest(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "/sub/path", info.Path)
}

func TestUnrecognizedPathReturns404(t *testing.T) {
	h := startTestHarness(t)
	resp, err := http.Get(h.ExternalBaseURL() + "/nonexistent")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClosedEndpointReturns404(t *testing.T) {
	h := startTestHarness(t)
	e := h.NewMockEndpoint("/auth", httphelpers.HandlerWithStatus(http.StatusOK), nil)
	e.Close()

	resp, err := http.Get(h.ExternalBaseURL() + "/auth")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDrainRequestsDiscardsPendingRequests(t *testing.T) {
	h := startTestHarness(t)
	e := h.NewMockEndpoint("/auth", httphelpers.HandlerWithStatus(http.StatusOK), nil)
	defer e.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(e.BaseURL())
		require.NoError(t, err)
		resp.Body.Close()
	}
	e.DrainRequests()

	_, err := e.AwaitRequest(50 * time.Millisecond)
	assert.Error(t, err)
}

func TestAwaitTargetSucceedsOnceTargetAnswers(t *testing.T) {
	h := startTestHarness(t)
	e := h.NewMockEndpoint("/ready", httphelpers.HandlerWithStatus(http.StatusServiceUnavailable), nil)
	defer e.Close()

	var output strings.Builder
	err := awaitTarget(e.BaseURL(), time.Second, &output)
	require.NoError(t, err, "any HTTP status should count as ready")
	assert.Contains(t, output.String(), "ready")
}

func TestAwaitTargetTimesOutWhenNothingAnswers(t *testing.T) {
	var output strings.Builder
	err := awaitTarget("http://127.0.0.1:1/", 200*time.Millisecond, &output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
