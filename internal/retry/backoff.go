package retry

import "time"

// MaxDelay caps a single backoff wait.
const MaxDelay = 5 * time.Minute

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt, no jitter,
// capped at MaxDelay so large attempt counts never overflow.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base >= MaxDelay {
		return MaxDelay
	}
	delay := base
	for i := 0; i < attempt && delay < MaxDelay; i++ {
		delay *= 2
	}
	return min(delay, MaxDelay)
}
