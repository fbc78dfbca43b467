package contracttests

import (
	"github.com/stretchr/testify/assert"

	"github.com/sessionops/session-contract-tests/token"
)

// DoValidationTests checks that malformed tokens and unrecognized actions are rejected
// with ERROR envelopes before any session state can be touched. All of these are domain
// failures: the HTTP status must be 200.
func DoValidationTests(t *T) {
	t.Run("token shape", func(t *T) {
		badTokens := []struct {
			name  string
			value string
		}{
			{"empty", ""},
			{"31 characters", token.GenerateLen(31)},
			{"33 characters", token.GenerateLen(33)},
			{"100 characters", token.GenerateHexLen(100)},
			{"lowercase hex", "0123456789abcdef0123456789abcdef"},
			{"special characters", "0123456789ABCDEF0123456789@#$%^&"},
			{"trailing whitespace", "0123456789ABCDEF0123456789ABCDE "},
			{"embedded whitespace", "0123456789ABCDEF 123456789ABCDEF"},
			{"SQL injection", "'; DROP TABLE tokens; --"},
			{"HTML script payload", "<script>alert('xss')</script>"},
			{"valid except one character", token.Generate()[:31] + "a"},
		}
		for _, bad := range badTokens {
			bad := bad
			t.Run(bad.name, func(t *T) {
				for _, action := range []string{"LOGIN", "ACTION", "LOGOUT"} {
					envelope := t.RequireErrorResult(bad.value, action)
					t.Debug("%s %q => %s", action, bad.value, envelope)
				}
			})
		}
	})

	t.Run("valid token shapes are accepted by validation", func(t *T) {
		// ACTION on a fresh valid token still fails (not logged in), but the message
		// must reflect the session state, not the token shape; we can only observe
		// that validation did not reject it by the fact that LOGIN works.
		t.Run("uppercase alphanumeric", func(t *T) {
			t.RequireOK(token.Generate(), "LOGIN")
		})
		t.Run("hex subset", func(t *T) {
			t.RequireOK(token.GenerateHex(), "LOGIN")
		})
	})

	t.Run("unrecognized actions", func(t *T) {
		tok := token.Generate()
		for _, bad := range []string{"INVALID", "DELETE", "LOGIN2", "login", "LogIn", "logout", "Action"} {
			bad := bad
			t.Run(bad, func(t *T) {
				envelope := t.RequireErrorResult(tok, bad)
				assert.True(t, envelope.Message.IsDefined())
			})
		}
	})

	t.Run("rejected validation does not create a session", func(t *T) {
		// A lowercase variant of a real token must not grant that token anything.
		tok := token.Generate()
		t.RequireErrorResult(tok, "login")
		t.RequireErrorResult(tok, "ACTION")
	})
}
