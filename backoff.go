package portal

import (
	"math"
	"math/rand"
	"time"
)

// ReconnectPolicy returns the delay before the next connection attempt,
// given the previous delay (zero if there was none) and the number of the
// upcoming attempt, starting from 1. Returning false stops reconnecting.
type ReconnectPolicy func(last time.Duration, attempt int) (delay time.Duration, ok bool)

const defaultReconnectDelay = 250 * time.Millisecond

// DefaultReconnectPolicy waits 250ms, then doubles the previous delay on
// every attempt. It never gives up.
func DefaultReconnectPolicy(last time.Duration, _ int) (time.Duration, bool) {
	if last <= 0 {
		return defaultReconnectDelay, true
	}
	return 2 * last, true
}

type backoff struct {
	min         time.Duration
	max         time.Duration
	factor      int64
	jitter      float64
	maxAttempts int
}

// ExponentialBackoff returns a policy that waits min·2^(attempt-1), randomly
// deviated by up to jitter (0 to 1) of itself and capped at max. If
// maxAttempts is positive, reconnection stops after that many attempts.
func ExponentialBackoff(min, max time.Duration, jitter float32, maxAttempts int) ReconnectPolicy {
	if jitter <= 0 || jitter > 1 {
		jitter = 0
	}
	b := &backoff{
		min:         min,
		max:         max,
		factor:      2,
		jitter:      float64(jitter),
		maxAttempts: maxAttempts,
	}
	return b.policy
}

func (b *backoff) policy(_ time.Duration, attempt int) (time.Duration, bool) {
	if b.maxAttempts > 0 && attempt > b.maxAttempts {
		return 0, false
	}
	return b.duration(attempt), true
}

func (b *backoff) duration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	ms := float64(b.min) * math.Pow(float64(b.factor), float64(attempt-1))

	if b.jitter > 0 {
		r := rand.Float64()
		deviation := math.Floor(r * b.jitter * ms)

		t := int64(math.Floor(r*10)) & 1
		if t == 0 {
			ms = ms - deviation
		} else {
			ms = ms + deviation
		}
	}
	if ms <= 0 || ms > float64(b.max) {
		return b.max
	}
	return time.Duration(ms)
}

// NoReconnection never reconnects.
func NoReconnection(time.Duration, int) (time.Duration, bool) { return 0, false }
