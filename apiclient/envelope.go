package apiclient

import (
	"encoding/json"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// The two values the result field may ever hold.
const (
	ResultOK    = "OK"
	ResultError = "ERROR"
)

// Envelope is the JSON response shape of the session endpoint. The contract says result
// is exactly "OK" or "ERROR", and message is present if and only if the result is
// "ERROR", in which case it is non-empty.
type Envelope struct {
	Result  string                 `json:"result"`
	Message ldvalue.OptionalString `json:"message"`
}

func (e Envelope) IsOK() bool {
	return e.Result == ResultOK
}

func (e Envelope) IsError() bool {
	return e.Result == ResultError
}

func (e Envelope) String() string {
	data, _ := json.Marshal(e)
	return string(data)
}

// Validate checks the envelope invariants. Every response the suite receives goes
// through this, so a target that returns a malformed envelope fails even in tests that
// would otherwise tolerate either outcome.
func (e Envelope) Validate() error {
	switch e.Result {
	case ResultOK:
		if e.Message.IsDefined() {
			return fmt.Errorf("OK envelope must not carry a message, got %s", e)
		}
	case ResultError:
		if !e.Message.IsDefined() {
			return fmt.Errorf("ERROR envelope must carry a message, got %s", e)
		}
		if e.Message.StringValue() == "" {
			return fmt.Errorf("ERROR envelope message must be non-empty, got %s", e)
		}
	default:
		return fmt.Errorf(`result must be "OK" or "ERROR", got %s`, e)
	}
	return nil
}

// ParseEnvelope decodes a response body into an Envelope without validating it.
func ParseEnvelope(body []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return Envelope{}, fmt.Errorf("response body is not a JSON envelope: %w (body: %q)", err, truncate(string(body), 100))
	}
	return e, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
