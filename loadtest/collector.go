package loadtest

import (
	"sort"
	"sync"
	"time"
)

// ResultKind classifies one recorded request.
type ResultKind int

const (
	// ResultOK means the endpoint returned an OK envelope.
	ResultOK ResultKind = iota
	// ResultError means the endpoint returned an ERROR envelope. Under load this
	// usually indicates the target shedding work through its domain error path.
	ResultError
	// ResultTransport means the request failed below the payload level: connection
	// refused, reset, or client timeout.
	ResultTransport
)

type sample struct {
	duration time.Duration
	kind     ResultKind
}

// Collector accumulates request outcomes from all virtual users.
type Collector struct {
	mu      sync.Mutex
	samples map[string][]sample
}

func NewCollector() *Collector {
	return &Collector{samples: make(map[string][]sample)}
}

// Record stores the outcome of one request. op is the action name.
func (c *Collector) Record(op string, duration time.Duration, kind ResultKind) {
	c.mu.Lock()
	c.samples[op] = append(c.samples[op], sample{duration: duration, kind: kind})
	c.mu.Unlock()
}

// Stats summarizes the recorded outcomes for one operation.
type Stats struct {
	Count           int
	OK              int
	Errors          int
	TransportErrors int
	Min             time.Duration
	Max             time.Duration
	Mean            time.Duration
	P50             time.Duration
	P95             time.Duration
	P99             time.Duration
}

// Snapshot computes per-operation and overall statistics for everything recorded so far.
func (c *Collector) Snapshot() map[string]Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]Stats, len(c.samples)+1)
	var all []sample
	for op, samples := range c.samples {
		result[op] = computeStats(samples)
		all = append(all, samples...)
	}
	result[TotalKey] = computeStats(all)
	return result
}

// TotalKey is the Snapshot map key holding the aggregate over all operations.
const TotalKey = "TOTAL"

func computeStats(samples []sample) Stats {
	s := Stats{Count: len(samples)}
	if len(samples) == 0 {
		return s
	}

	durations := make([]time.Duration, 0, len(samples))
	var sum time.Duration
	for _, smp := range samples {
		switch smp.kind {
		case ResultOK:
			s.OK++
		case ResultError:
			s.Errors++
		case ResultTransport:
			s.TransportErrors++
		}
		durations = append(durations, smp.duration)
		sum += smp.duration
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	s.Min = durations[0]
	s.Max = durations[len(durations)-1]
	s.Mean = sum / time.Duration(len(durations))
	s.P50 = percentile(durations, 50)
	s.P95 = percentile(durations, 95)
	s.P99 = percentile(durations, 99)
	return s
}

// percentile returns the p-th percentile of sorted durations, using the nearest-rank
// method.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100 // ceil(p*n/100)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
