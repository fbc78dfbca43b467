package loadtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sessionops/session-contract-tests/apiclient"
	"github.com/sessionops/session-contract-tests/framework"
	"github.com/sessionops/session-contract-tests/token"
)

// Config configures a load run.
type Config struct {
	// Users is the number of virtual users issuing requests concurrently.
	Users int

	// Duration is how long the run lasts. Requests in flight at the deadline are
	// abandoned, not recorded.
	Duration time.Duration

	// ActionsPerSession is how many ACTION requests each lifecycle iteration makes
	// between LOGIN and LOGOUT.
	ActionsPerSession int

	// ThinkTime is slept between consecutive requests of one virtual user.
	ThinkTime time.Duration
}

// Report is the outcome of a load run.
type Report struct {
	RunID   string
	Users   int
	Elapsed time.Duration
	Stats   map[string]Stats
}

// RequestsPerSecond returns the overall throughput of the run.
func (r Report) RequestsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Stats[TotalKey].Count) / r.Elapsed.Seconds()
}

// Runner drives the load stage.
type Runner struct {
	client *apiclient.Client
	cfg    Config
	logger framework.Logger
}

func NewRunner(client *apiclient.Client, cfg Config, logger framework.Logger) *Runner {
	if cfg.Users <= 0 {
		cfg.Users = 1
	}
	if cfg.ActionsPerSession < 0 {
		cfg.ActionsPerSession = 0
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Runner{client: client, cfg: cfg, logger: logger}
}

// Run executes the load stage and returns the report. It returns early if ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context) Report {
	runID := uuid.NewString()
	r.logger.Printf("starting load run %s: %d users for %s", runID, r.cfg.Users, r.cfg.Duration)

	collector := NewCollector()
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	started := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Users; i++ {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			r.runVirtualUser(runCtx, user, collector)
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(started)

	r.logger.Printf("load run %s finished after %s", runID, elapsed)
	return Report{
		RunID:   runID,
		Users:   r.cfg.Users,
		Elapsed: elapsed,
		Stats:   collector.Snapshot(),
	}
}

// runVirtualUser loops full lifecycles with a fresh token each iteration until the run
// deadline. An ERROR envelope mid-lifecycle is recorded and the lifecycle abandoned; a
// degraded target should show up in the error counts, not wedge the run.
func (r *Runner) runVirtualUser(ctx context.Context, user int, collector *Collector) {
	for ctx.Err() == nil {
		tok := token.Generate()

		if !r.step(ctx, collector, tok, "LOGIN") {
			continue
		}
		ok := true
		for i := 0; i < r.cfg.ActionsPerSession && ok; i++ {
			ok = r.step(ctx, collector, tok, "ACTION")
		}
		r.step(ctx, collector, tok, "LOGOUT")
	}
}

// step issues one request and records it. It returns true if the request produced an OK
// envelope. Nothing is recorded when the run deadline cut the request off.
func (r *Runner) step(ctx context.Context, collector *Collector, tok, action string) bool {
	started := time.Now()
	envelope, _, err := r.client.Endpoint(ctx, tok, action)
	duration := time.Since(started)

	if ctx.Err() != nil {
		return false
	}
	switch {
	case err != nil:
		collector.Record(action, duration, ResultTransport)
	case envelope.IsOK():
		collector.Record(action, duration, ResultOK)
	default:
		collector.Record(action, duration, ResultError)
	}

	if r.cfg.ThinkTime > 0 {
		select {
		case <-time.After(r.cfg.ThinkTime):
		case <-ctx.Done():
		}
	}
	return err == nil && envelope.IsOK()
}
