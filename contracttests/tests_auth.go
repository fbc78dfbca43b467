package contracttests

import (
	"net/url"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/sessionops/session-contract-tests/apiclient"
	"github.com/sessionops/session-contract-tests/token"
)

// DoAuthorizationTests checks the pre-shared API key. Authorization failures are
// transport-layer failures: they must be rejected with 401 or 403 before the payload is
// even considered, regardless of whether the payload itself is valid.
func DoAuthorizationTests(t *T) {
	validFields := func() url.Values {
		fields := url.Values{}
		fields.Set("token", token.Generate())
		fields.Set("action", "LOGIN")
		return fields
	}

	t.Run("missing API key", func(t *T) {
		info := t.PostRaw(apiclient.RawRequest{
			Fields:     validFields(),
			OmitAPIKey: true,
		})
		t.RequireStatusIn(info, 401, 403)
	})

	t.Run("wrong API key", func(t *T) {
		info := t.PostRaw(apiclient.RawRequest{
			Fields: validFields(),
			APIKey: ldvalue.NewOptionalString("wrong_key"),
		})
		t.RequireStatusIn(info, 401, 403)
	})

	t.Run("empty API key", func(t *T) {
		info := t.PostRaw(apiclient.RawRequest{
			Fields: validFields(),
			APIKey: ldvalue.NewOptionalString(""),
		})
		t.RequireStatusIn(info, 401, 403)
	})

	t.Run("missing key rejected even with invalid payload", func(t *T) {
		fields := url.Values{}
		fields.Set("token", "not-a-token")
		fields.Set("action", "NOT-AN-ACTION")
		info := t.PostRaw(apiclient.RawRequest{
			Fields:     fields,
			OmitAPIKey: true,
		})
		t.RequireStatusIn(info, 401, 403)
	})
}
