// Package loadtest drives sustained traffic against the session endpoint and reports
// latency and outcome statistics.
//
// The model is a fixed pool of virtual users, each running the full token lifecycle
// (LOGIN, a few ACTIONs, LOGOUT) in a loop with a fresh token per iteration, until the
// configured duration elapses. Weighted task scheduling and spawn-rate ramping belong to
// dedicated load tools and are deliberately not reproduced here.
package loadtest
