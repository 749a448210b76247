package ladder

import (
	"math/rand"
	"testing"
	"time"
)

func TestApplyJitterWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	due := t0.Add(10 * Day)

	// jitter=0.2 → offset within ±2d.
	lo := t0.Add(8 * Day)
	hi := t0.Add(12 * Day)
	for i := 0; i < 100; i++ {
		got := applyJitter(t0, due, 0.2, rng)
		if got.Before(lo) || got.After(hi) {
			t.Errorf("applyJitter = %v, expected within [%v, %v]", got, lo, hi)
		}
	}
}

func TestApplyJitterNonPositiveInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	// Due at or before now is returned unchanged.
	if got := applyJitter(t0, t0, 0.2, rng); !got.Equal(t0) {
		t.Errorf("applyJitter(now, now) = %v, want %v", got, t0)
	}
	past := t0.Add(-time.Hour)
	if got := applyJitter(t0, past, 0.2, rng); !got.Equal(past) {
		t.Errorf("applyJitter(past) = %v, want %v", got, past)
	}
}

func TestApplyJitterMinimumInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	// A tiny interval with heavy jitter never lands at or before now.
	due := t0.Add(90 * time.Second)
	for i := 0; i < 100; i++ {
		got := applyJitter(t0, due, 0.9, rng)
		if !got.After(t0.Add(time.Minute - time.Nanosecond)) {
			t.Errorf("applyJitter = %v, want >= %v", got, t0.Add(time.Minute))
		}
	}
}
