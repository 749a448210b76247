package ladder

import (
	"math/rand"
	"time"
)

// applyJitter spreads a due date by up to ±jitter of the scheduled interval
// so items reviewed in the same moment do not all come due together.
// The jittered interval never drops below one minute.
func applyJitter(now, due time.Time, jitter float64, rng *rand.Rand) time.Time {
	interval := due.Sub(now)
	if interval <= 0 {
		return due
	}

	span := time.Duration(float64(interval) * jitter)
	offset := time.Duration((rng.Float64()*2 - 1) * float64(span))

	jittered := interval + offset
	if jittered < time.Minute {
		jittered = time.Minute
	}
	return now.Add(jittered)
}
