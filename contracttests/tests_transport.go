package contracttests

import (
	"encoding/json"
	"net/url"

	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/sessionops/session-contract-tests/apiclient"
	"github.com/sessionops/session-contract-tests/token"
)

// DoTransportTests checks request-shape handling: missing form fields, wrong content
// types, and content negotiation. These are protocol failures and must be rejected with
// 4xx statuses, in contrast to domain failures which are HTTP 200 envelopes.
func DoTransportTests(t *T) {
	t.Run("missing token field", func(t *T) {
		fields := url.Values{}
		fields.Set("action", "LOGIN")
		info := t.PostRaw(apiclient.RawRequest{Fields: fields})
		t.RequireStatusIn(info, 400, 422)
	})

	t.Run("missing action field", func(t *T) {
		fields := url.Values{}
		fields.Set("token", token.Generate())
		info := t.PostRaw(apiclient.RawRequest{Fields: fields})
		t.RequireStatusIn(info, 400, 422)
	})

	t.Run("empty action field", func(t *T) {
		fields := url.Values{}
		fields.Set("token", token.Generate())
		fields.Set("action", "")
		info := t.PostRaw(apiclient.RawRequest{Fields: fields})
		t.RequireStatusIn(info, 400, 422)
	})

	t.Run("empty body", func(t *T) {
		info := t.PostRaw(apiclient.RawRequest{})
		t.RequireStatusIn(info, 400, 422)
	})

	t.Run("JSON body instead of form encoding", func(t *T) {
		body, err := json.Marshal(map[string]string{
			"token":  token.Generate(),
			"action": "LOGIN",
		})
		require.NoError(t, err)
		info := t.PostRaw(apiclient.RawRequest{JSONBody: body})
		t.RequireStatusIn(info, 400, 415, 422)
	})

	t.Run("form payload mislabeled as text/plain", func(t *T) {
		fields := url.Values{}
		fields.Set("token", token.Generate())
		fields.Set("action", "LOGIN")
		info := t.PostRaw(apiclient.RawRequest{
			Fields:      fields,
			ContentType: ldvalue.NewOptionalString("text/plain"),
		})
		t.RequireStatusIn(info, 400, 415, 422)
	})

	t.Run("action with surrounding whitespace", func(t *T) {
		// Either the form layer rejects it or the handler treats it as an
		// unrecognized action; both are compliant, a success is not.
		fields := url.Values{}
		fields.Set("token", token.Generate())
		fields.Set("action", " LOGIN ")
		info := t.PostRaw(apiclient.RawRequest{Fields: fields})
		t.RequireStatusIn(info, 200, 400, 422)
		if info.StatusCode == 200 {
			envelope, err := apiclient.ParseEnvelope(info.Body)
			require.NoError(t, err)
			require.NoError(t, envelope.Validate())
			require.True(t, envelope.IsError(), "a padded action must not be normalized into a real one")
		}
	})

	t.Run("non-JSON Accept header", func(t *T) {
		// The endpoint only produces JSON; it may either answer anyway or refuse
		// with 406, but it must not produce a malformed success.
		fields := url.Values{}
		fields.Set("token", token.Generate())
		fields.Set("action", "LOGIN")
		info := t.PostRaw(apiclient.RawRequest{
			Fields: fields,
			Accept: ldvalue.NewOptionalString("text/html"),
		})
		t.RequireStatusIn(info, 200, 406)
		if info.StatusCode == 200 {
			envelope, err := apiclient.ParseEnvelope(info.Body)
			require.NoError(t, err)
			require.NoError(t, envelope.Validate())
		}
	})
}
