package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type recordedRequest struct {
	method      string
	contentType string
	accept      string
	apiKey      string
	hasAPIKey   bool
	form        url.Values
}

func newTestTarget(t *testing.T, status int, responseBody string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	last := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		last.method = r.Method
		last.contentType = r.Header.Get("Content-Type")
		last.accept = r.Header.Get("Accept")
		last.apiKey = r.Header.Get("X-Api-Key")
		_, last.hasAPIKey = r.Header["X-Api-Key"]
		last.form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)
	return server, last
}

func TestEndpointSendsCanonicalRequest(t *testing.T) {
	server, last := newTestTarget(t, 200, `{"result": "OK"}`)
	client := New(server.URL, "key123", time.Second, nil)

	envelope, info, err := client.Endpoint(context.Background(), "ABCDEF0123456789ABCDEF0123456789", "LOGIN")
	require.NoError(t, err)

	assert.Equal(t, "POST", last.method)
	assert.Equal(t, "application/x-www-form-urlencoded", last.contentType)
	assert.Equal(t, "application/json", last.accept)
	assert.Equal(t, "key123", last.apiKey)
	assert.Equal(t, "ABCDEF0123456789ABCDEF0123456789", last.form.Get("token"))
	assert.Equal(t, "LOGIN", last.form.Get("action"))

	assert.Equal(t, 200, info.StatusCode)
	assert.True(t, envelope.IsOK())
	assert.NoError(t, envelope.Validate())
}

func TestEndpointParsesErrorEnvelope(t *testing.T) {
	server, _ := newTestTarget(t, 200, `{"result": "ERROR", "message": "not logged in"}`)
	client := New(server.URL, "key123", time.Second, nil)

	envelope, _, err := client.Endpoint(context.Background(), "ABCDEF0123456789ABCDEF0123456789", "ACTION")
	require.NoError(t, err)
	assert.True(t, envelope.IsError())
	assert.Equal(t, "not logged in", envelope.Message.StringValue())
	assert.NoError(t, envelope.Validate())
}

func TestEndpointFoldsNonJSONResponseIntoErrorEnvelope(t *testing.T) {
	server, _ := newTestTarget(t, 401, `Unauthorized`)
	client := New(server.URL, "key123", time.Second, nil)

	envelope, info, err := client.Endpoint(context.Background(), "ABCDEF0123456789ABCDEF0123456789", "LOGIN")
	require.NoError(t, err)
	assert.Equal(t, 401, info.StatusCode)
	assert.True(t, envelope.IsError())
	assert.Contains(t, envelope.Message.StringValue(), "HTTP 401")
}

func TestPostRawCanOmitAndOverrideParts(t *testing.T) {
	server, last := newTestTarget(t, 200, `{"result": "OK"}`)
	client := New(server.URL, "key123", time.Second, nil)

	t.Run("omit API key", func(t *testing.T) {
		_, err := client.PostRaw(context.Background(), RawRequest{OmitAPIKey: true})
		require.NoError(t, err)
		assert.False(t, last.hasAPIKey)
	})

	t.Run("override API key", func(t *testing.T) {
		_, err := client.PostRaw(context.Background(), RawRequest{
			APIKey: ldvalue.NewOptionalString("wrong_key"),
		})
		require.NoError(t, err)
		assert.Equal(t, "wrong_key", last.apiKey)
	})

	t.Run("JSON body switches content type", func(t *testing.T) {
		_, err := client.PostRaw(context.Background(), RawRequest{
			JSONBody: []byte(`{"token": "x", "action": "LOGIN"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/json", last.contentType)
	})

	t.Run("missing field stays missing", func(t *testing.T) {
		fields := url.Values{}
		fields.Set("token", "ABCDEF0123456789ABCDEF0123456789")
		_, err := client.PostRaw(context.Background(), RawRequest{Fields: fields})
		require.NoError(t, err)
		_, present := last.form["action"]
		assert.False(t, present)
	})

	t.Run("override Accept", func(t *testing.T) {
		_, err := client.PostRaw(context.Background(), RawRequest{
			Accept: ldvalue.NewOptionalString("text/html"),
		})
		require.NoError(t, err)
		assert.Equal(t, "text/html", last.accept)
	})
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := New(server.URL, "key123", 50*time.Millisecond, nil)
	_, _, err := client.Endpoint(context.Background(), "ABCDEF0123456789ABCDEF0123456789", "LOGIN")
	assert.Error(t, err)
}

func TestEnvelopeValidate(t *testing.T) {
	assert.NoError(t, Envelope{Result: "OK"}.Validate())
	assert.NoError(t, Envelope{Result: "ERROR", Message: ldvalue.NewOptionalString("boom")}.Validate())

	assert.Error(t, Envelope{Result: "ok"}.Validate(), "result literals are case-sensitive")
	assert.Error(t, Envelope{Result: "OK", Message: ldvalue.NewOptionalString("x")}.Validate())
	assert.Error(t, Envelope{Result: "ERROR"}.Validate())
	assert.Error(t, Envelope{Result: "ERROR", Message: ldvalue.NewOptionalString("")}.Validate())
	assert.Error(t, Envelope{Result: "MAYBE"}.Validate())
}
