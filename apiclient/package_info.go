// Package apiclient is the HTTP client for the session endpoint under test.
//
// It can issue well-formed requests (Endpoint), which are the common case, and
// deliberately malformed ones (PostRaw), which the transport-layer tests use to probe
// the target's handling of missing fields, bad credentials, and wrong content types.
package apiclient
