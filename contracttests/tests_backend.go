package contracttests

import (
	"context"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionops/session-contract-tests/stubs"
	"github.com/sessionops/session-contract-tests/token"
)

const backendCallTimeout = 5 * time.Second

// DoBackendDependencyTests checks that the target makes the expected calls to its
// auth/action backends and that backend unavailability or slowness surfaces as an ERROR
// envelope, never as an unhandled fault or a 5xx from the endpoint itself.
func DoBackendDependencyTests(t *T) {
	t.RequireBackendControl()

	t.Run("LOGIN consults the auth backend", func(t *T) {
		tok := token.Generate()
		t.Backends().Auth.Reset()
		t.RequireOK(tok, "LOGIN")
		fields, err := t.Backends().Auth.AwaitRequest(backendCallTimeout)
		require.NoError(t, err)
		assert.Equal(t, tok, fields.Get("token"), "auth backend must receive the token")
	})

	t.Run("ACTION consults the action backend", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")
		t.Backends().Action.Reset()
		t.RequireOK(tok, "ACTION")
		fields, err := t.Backends().Action.AwaitRequest(backendCallTimeout)
		require.NoError(t, err)
		assert.Equal(t, tok, fields.Get("token"), "action backend must receive the token")
	})

	t.Run("LOGOUT consults no backend", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")
		t.Backends().Auth.Reset()
		t.Backends().Action.Reset()
		t.RequireOK(tok, "LOGOUT")
		_, err := t.Backends().Auth.AwaitRequest(200 * time.Millisecond)
		assert.Error(t, err, "LOGOUT must not call the auth backend")
		_, err = t.Backends().Action.AwaitRequest(200 * time.Millisecond)
		assert.Error(t, err, "LOGOUT must not call the action backend")
	})

	t.Run("failing auth backend yields ERROR envelope", func(t *T) {
		t.Backends().Auth.Respond(stubs.Behavior{Status: 500})
		tok := token.Generate()
		t.RequireErrorResult(tok, "LOGIN")

		// The failed LOGIN must not have created a session.
		t.Backends().Auth.Respond(stubs.Behavior{})
		t.RequireErrorResult(tok, "ACTION")
	})

	t.Run("failing action backend yields ERROR envelope", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")

		t.Backends().Action.Respond(stubs.Behavior{Status: 503})
		t.RequireErrorResult(tok, "ACTION")

		// The failed ACTION must leave the session alone.
		t.Backends().Action.Respond(stubs.Behavior{})
		t.RequireOK(tok, "ACTION")
	})

	t.Run("slow auth backend yields ERROR envelope or clean timeout", func(t *T) {
		// The stub sits on any token carrying the timeout marker for longer than
		// both the target's backend timeout and our short client timeout. A
		// conforming target either reports the backend failure as an ERROR
		// envelope in time, or is still waiting when our client gives up; what it
		// may not do is return a malformed body or a 5xx.
		client := t.ShortTimeoutClient()
		envelope, info, err := client.Endpoint(context.Background(), token.Timeout(), "LOGIN")
		if err != nil {
			t.Debug("client timed out waiting for the target, which is acceptable: %s", err)
			return
		}
		require.Equal(t, 200, info.StatusCode)
		require.NoError(t, envelope.Validate())
		require.True(t, envelope.IsError(), "a LOGIN with an unavailable auth backend cannot succeed, got %s", envelope)
	})

	t.Run("hanging action backend yields ERROR envelope or clean timeout", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")

		t.Backends().Action.Respond(stubs.Behavior{Hang: true})
		client := t.ShortTimeoutClient()
		envelope, info, err := client.Endpoint(context.Background(), tok, "ACTION")
		t.Backends().Action.Respond(stubs.Behavior{})
		if err != nil {
			t.Debug("client timed out waiting for the target, which is acceptable: %s", err)
			return
		}
		require.Equal(t, 200, info.StatusCode)
		require.NoError(t, envelope.Validate())
		require.True(t, envelope.IsError(), "an ACTION with a hanging backend cannot succeed, got %s", envelope)
	})
}
