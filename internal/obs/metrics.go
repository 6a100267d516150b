package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight ingestion counters and fetch latency stats.
// All methods are nil-safe so callers can run without observability wired.
type Metrics struct {
	tickerFrames  uint64
	droppedFrames uint64
	reconnects    uint64
	pollSuccesses uint64
	pollFailures  uint64

	fetchLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	TickerFrames  uint64
	DroppedFrames uint64
	Reconnects    uint64
	PollSuccesses uint64
	PollFailures  uint64
	FetchLatency  LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncTickerFrame records one normalized ticker frame.
func (m *Metrics) IncTickerFrame() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tickerFrames, 1)
}

// IncDroppedFrame records one skipped inbound frame.
func (m *Metrics) IncDroppedFrame() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.droppedFrames, 1)
}

// IncReconnect records one scheduled reconnect attempt.
func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reconnects, 1)
}

// IncPollSuccess records one successful snapshot poll.
func (m *Metrics) IncPollSuccess() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.pollSuccesses, 1)
}

// IncPollFailure records one failed snapshot poll.
func (m *Metrics) IncPollFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.pollFailures, 1)
}

// ObserveFetch measures one REST fetch round trip.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		TickerFrames:  atomic.LoadUint64(&m.tickerFrames),
		DroppedFrames: atomic.LoadUint64(&m.droppedFrames),
		Reconnects:    atomic.LoadUint64(&m.reconnects),
		PollSuccesses: atomic.LoadUint64(&m.pollSuccesses),
		PollFailures:  atomic.LoadUint64(&m.pollFailures),
		FetchLatency:  m.fetchLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(atomic.LoadUint64(&l.sum) / count),
	}
}
