package llm

import "time"

const (
	// minimum backoff applied when a provider has no configured quota, so an
	// unconfigured provider is never hammered at full speed
	minPacingDelay = 100 * time.Millisecond

	// fixed margin added on top of the quota-derived delay to absorb clock
	// skew and network jitter
	pacingSafetyMargin = 900 * time.Millisecond
)

// PacingDelay returns the delay to apply between successive calls to a
// provider with the given calls-per-minute quota. Pure function, never zero.
func PacingDelay(callsPerMinute int64) time.Duration {
	if callsPerMinute <= 0 {
		return minPacingDelay
	}
	return time.Duration(float64(time.Minute)/float64(callsPerMinute)) + pacingSafetyMargin
}
