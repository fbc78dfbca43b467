package refserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AuthBackend is the external service consulted during LOGIN.
type AuthBackend interface {
	Authenticate(ctx context.Context, token string) error
}

// ActionBackend is the external service consulted during ACTION.
type ActionBackend interface {
	Do(ctx context.Context, token string) error
}

// HTTPBackends implements both backend interfaces by POSTing to /auth and /doAction
// under a single base URL. Any transport failure, timeout, or non-2xx status is
// reported as an error; the handler turns that into an ERROR envelope.
type HTTPBackends struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPBackends(baseURL string, timeout time.Duration) *HTTPBackends {
	return &HTTPBackends{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (b *HTTPBackends) Authenticate(ctx context.Context, token string) error {
	return b.post(ctx, "/auth", token)
}

func (b *HTTPBackends) Do(ctx context.Context, token string) error {
	return b.post(ctx, "/doAction", token)
}

func (b *HTTPBackends) post(ctx context.Context, path, token string) error {
	fields := url.Values{}
	fields.Set("token", token)
	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+path, strings.NewReader(fields.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s unreachable: %w", path, err)
	}
	if resp.Body != nil {
		resp.Body.Close()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend %s returned HTTP %d", path, resp.StatusCode)
	}
	return nil
}

// BackendFunc adapts a function to both backend interfaces, for tests.
type BackendFunc func(ctx context.Context, token string) error

func (f BackendFunc) Authenticate(ctx context.Context, token string) error { return f(ctx, token) }
func (f BackendFunc) Do(ctx context.Context, token string) error           { return f(ctx, token) }
