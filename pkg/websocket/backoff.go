package websocket

import "time"

// DefaultBackoff provides the reconnect defaults: 1s base doubled per
// attempt, capped at 30s.
func DefaultBackoff() Backoff {
	return Backoff{
		Min: time.Second,
		Max: 30 * time.Second,
	}
}

// Next returns the delay before the given reconnect attempt (1-based):
// min(Min * 2^attempt, Max).
func (b Backoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	min := b.Min
	if min <= 0 {
		min = time.Second
	}
	max := b.Max
	if max <= 0 {
		max = 30 * time.Second
	}

	wait := min
	for i := 0; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			return max
		}
	}
	return wait
}
