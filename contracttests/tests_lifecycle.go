package contracttests

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionops/session-contract-tests/config"
	"github.com/sessionops/session-contract-tests/token"
)

// DoLifecycleTests checks the LOGIN/ACTION/LOGOUT state machine per token: the full
// happy path, operations out of order, repeated operations, and independence between
// tokens. The two implementation-defined behaviors are asserted against the policies
// the target declared in its configuration.
func DoLifecycleTests(t *T) {
	t.Run("full lifecycle", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")
		t.RequireOK(tok, "ACTION")
		t.RequireOK(tok, "LOGOUT")
		t.RequireErrorResult(tok, "ACTION")
	})

	t.Run("ACTION without LOGIN", func(t *T) {
		t.RequireErrorResult(token.Generate(), "ACTION")
	})

	t.Run("ACTION is repeatable while logged in", func(t *T) {
		tok := token.GenerateHex()
		t.RequireOK(tok, "LOGIN")
		for i := 0; i < 5; i++ {
			t.RequireOK(tok, "ACTION")
		}
		t.RequireOK(tok, "LOGOUT")
	})

	t.Run("ACTION after LOGOUT", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")
		t.RequireOK(tok, "ACTION")
		t.RequireOK(tok, "LOGOUT")
		t.RequireErrorResult(tok, "ACTION")
	})

	t.Run("tokens are independent", func(t *T) {
		tokenA := token.Generate()
		tokenB := token.Generate()

		t.RequireOK(tokenA, "LOGIN")
		t.RequireErrorResult(tokenB, "ACTION")

		t.RequireOK(tokenB, "LOGIN")
		t.RequireOK(tokenA, "LOGOUT")
		t.RequireOK(tokenB, "ACTION")
		t.RequireErrorResult(tokenA, "ACTION")
		t.RequireOK(tokenB, "LOGOUT")
	})

	t.Run("repeated LOGIN follows declared policy", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")
		switch t.Policies().Relogin {
		case config.ReloginOverwrite:
			t.RequireOK(tok, "LOGIN")
		case config.ReloginReject:
			t.RequireErrorResult(tok, "LOGIN")
		}
		// Either way the token must still be usable.
		t.RequireOK(tok, "ACTION")
		t.RequireOK(tok, "LOGOUT")
	})

	t.Run("LOGOUT of a never-logged-in token follows declared policy", func(t *T) {
		tok := token.Generate()
		envelope, info := t.Endpoint(tok, "LOGOUT")
		require.Equal(t, 200, info.StatusCode)
		switch t.Policies().LogoutUnknown {
		case config.LogoutIdempotent:
			assert.True(t, envelope.IsOK(), "declared policy is idempotent LOGOUT, got %s", envelope)
		case config.LogoutStrict:
			assert.True(t, envelope.IsError(), "declared policy is strict LOGOUT, got %s", envelope)
		}
	})

	t.Run("double LOGOUT is well-formed", func(t *T) {
		tok := token.Generate()
		t.RequireOK(tok, "LOGIN")
		t.RequireOK(tok, "LOGOUT")
		// Either result is acceptable; Endpoint has already required a well-formed
		// envelope, which is all the contract asks for here.
		envelope, info := t.Endpoint(tok, "LOGOUT")
		require.Equal(t, 200, info.StatusCode)
		t.Debug("second LOGOUT => %s", envelope)

		// And the server must still be answering afterwards.
		t.RequireOK(token.Generate(), "LOGIN")
	})
}
