package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/sessionops/session-contract-tests/framework"
)

const endpointPath = "/endpoint"

// Client talks to the session endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     framework.Logger
}

// ResponseInfo carries the transport-level facts about a response, for tests that assert
// on status codes rather than envelopes.
type ResponseInfo struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// New creates a Client. The timeout bounds each request end to end, including the
// target's own calls to its backends.
func New(baseURL, apiKey string, timeout time.Duration, logger framework.Logger) *Client {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithTimeout returns a copy of the client using a different request timeout. The
// degraded-backend tests use this to get a 5-second client without disturbing the
// shared one.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	return New(c.baseURL, c.apiKey, timeout, c.logger)
}

// BaseURL returns the base URL of the target service.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIKey returns the pre-shared key the client sends in X-Api-Key.
func (c *Client) APIKey() string {
	return c.apiKey
}

// Endpoint issues a canonical request: form-encoded token and action, JSON accepted,
// API key attached. The returned Envelope has not been validated; tests decide whether
// to require a valid one. A non-JSON response body is folded into an ERROR envelope
// carrying the HTTP status, matching how the harness treats unexpected rejections.
func (c *Client) Endpoint(ctx context.Context, tokenValue, action string) (Envelope, ResponseInfo, error) {
	fields := url.Values{}
	fields.Set("token", tokenValue)
	fields.Set("action", action)

	info, err := c.PostRaw(ctx, RawRequest{Fields: fields})
	if err != nil {
		return Envelope{}, info, err
	}

	envelope, parseErr := ParseEnvelope(info.Body)
	if parseErr != nil {
		envelope = Envelope{
			Result: ResultError,
			Message: ldvalue.NewOptionalString(
				fmt.Sprintf("HTTP %d: %s", info.StatusCode, truncate(string(info.Body), 100))),
		}
	}
	c.logger.Printf(">> %s %s << HTTP %d %s", action, tokenValue, info.StatusCode, envelope)
	return envelope, info, nil
}

// RawRequest describes a possibly malformed request to the endpoint. The zero value of
// each field means "send the canonical thing"; tests override exactly the part they want
// to break.
type RawRequest struct {
	// Fields is the form payload. A nil value sends an empty body.
	Fields url.Values

	// OmitAPIKey suppresses the X-Api-Key header entirely.
	OmitAPIKey bool

	// APIKey overrides the client's key if defined.
	APIKey ldvalue.OptionalString

	// ContentType overrides the Content-Type header if defined.
	ContentType ldvalue.OptionalString

	// Accept overrides the Accept header if defined.
	Accept ldvalue.OptionalString

	// JSONBody, if non-nil, replaces the form payload with a raw JSON body. The
	// Content-Type becomes application/json unless ContentType overrides it.
	JSONBody []byte
}

// PostRaw issues a POST to the endpoint exactly as described by req, reads the whole
// response, and returns the transport facts. An error is returned only for transport
// failures (connection refused, client timeout), never for HTTP error statuses.
func (c *Client) PostRaw(ctx context.Context, req RawRequest) (ResponseInfo, error) {
	var body io.Reader
	contentType := "application/x-www-form-urlencoded"
	if req.JSONBody != nil {
		body = bytes.NewReader(req.JSONBody)
		contentType = "application/json"
	} else {
		body = strings.NewReader(req.Fields.Encode())
	}
	if req.ContentType.IsDefined() {
		contentType = req.ContentType.StringValue()
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpointPath, body)
	if err != nil {
		return ResponseInfo{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", req.Accept.OrElse("application/json"))
	if !req.OmitAPIKey {
		httpReq.Header.Set("X-Api-Key", req.APIKey.OrElse(c.apiKey))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ResponseInfo{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseInfo{}, err
	}

	mediaType := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	return ResponseInfo{
		StatusCode:  resp.StatusCode,
		ContentType: mediaType,
		Body:        data,
	}, nil
}
