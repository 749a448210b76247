package ladder

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func mustScheduler(t *testing.T, cfg SchedulerConfig) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

// --- NewScheduler ---

func TestNewSchedulerDefault(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	if s.PassThreshold() != 0.8 {
		t.Errorf("PassThreshold = %f, want 0.8", s.PassThreshold())
	}

	// Default ladder: stage 1 pass → stage 2, due in 7 days.
	next, err := s.Review(State{Stage: 1}, score(0.9), t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	assertNext(t, next, 2, 0, t0.Add(7*Day))
}

func TestNewSchedulerInvalidThreshold(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{PassThreshold: 1.5}); err == nil {
		t.Error("NewScheduler should reject threshold > 1")
	}
	if _, err := NewScheduler(SchedulerConfig{PassThreshold: -0.1}); err == nil {
		t.Error("NewScheduler should reject negative threshold")
	}
}

func TestNewSchedulerInvalidMaxStage(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{MaxStage: -1}); err == nil {
		t.Error("NewScheduler should reject negative max stage")
	}
}

func TestNewSchedulerInvalidJitter(t *testing.T) {
	if _, err := NewScheduler(SchedulerConfig{Jitter: -0.1}); err == nil {
		t.Error("NewScheduler should reject negative jitter")
	}
	if _, err := NewScheduler(SchedulerConfig{Jitter: 1.0}); err == nil {
		t.Error("NewScheduler should reject jitter >= 1")
	}
}

func TestNewSchedulerUncoveredLadder(t *testing.T) {
	// Default table only maps stages 1..3.
	_, err := NewScheduler(SchedulerConfig{MaxStage: 4})
	if !errors.Is(err, ErrStageUnmapped) {
		t.Errorf("err = %v, want ErrStageUnmapped", err)
	}
}

func TestNewSchedulerUncoveredResetStage(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{ResetStage: 9})
	if !errors.Is(err, ErrStageUnmapped) {
		t.Errorf("err = %v, want ErrStageUnmapped", err)
	}
}

func TestNewSchedulerNonPositiveInterval(t *testing.T) {
	cfg := SchedulerConfig{Intervals: IntervalTable{1: Day, 2: 0, 3: 30 * Day}}
	_, err := NewScheduler(cfg)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("err = %v, want ErrInvalidInterval", err)
	}
}

// --- Review ---

func TestSchedulerReviewFail(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	next, err := s.Review(State{Stage: 3, Iteration: 2}, score(0.5), t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	assertNext(t, next, 3, 2, t0.Add(Day))
}

func TestSchedulerReviewNegativeStage(t *testing.T) {
	// A pass from a negative stage computes a successor stage the validated
	// table cannot contain.
	s := mustScheduler(t, SchedulerConfig{})
	_, err := s.Review(State{Stage: -5}, score(0.9), t0)
	if !errors.Is(err, ErrStageUnmapped) {
		t.Errorf("err = %v, want ErrStageUnmapped", err)
	}
}

func TestSchedulerTableIsolation(t *testing.T) {
	intervals := IntervalTable{1: Day, 2: 7 * Day, 3: 30 * Day}
	s := mustScheduler(t, SchedulerConfig{Intervals: intervals})

	// Mutating the caller's map must not change the scheduler.
	intervals[2] = time.Hour

	next, err := s.Review(State{Stage: 1}, score(0.9), t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if !next.Due.Equal(t0.Add(7 * Day)) {
		t.Errorf("Due = %v, want %v", next.Due, t0.Add(7*Day))
	}
}

// --- Preview ---

func TestPreview(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	pass, fail, err := s.Preview(State{Stage: 2, Iteration: 1}, t0)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	assertNext(t, pass, 3, 1, t0.Add(30*Day))
	assertNext(t, fail, 2, 1, t0.Add(Day))
}

// --- Replay ---

func TestReplay(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	state := s.FirstReview(t0).State()

	logs := []ReviewLog{
		{Score: score(0.9), ReviewedAt: t0.Add(Day)},       // 1 → 2
		{Score: score(0.85), ReviewedAt: t0.Add(8 * Day)},  // 2 → 3
		{Score: score(0.95), ReviewedAt: t0.Add(38 * Day)}, // 3 → 3, iteration 2
		{Score: nil, ReviewedAt: t0.Add(68 * Day)},         // fail: unchanged, due reset
	}

	got, err := s.Replay(state, logs)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	want := State{Stage: 3, Iteration: 2, Due: t0.Add(69 * Day)}
	if got != want {
		t.Errorf("Replay = %+v, want %+v", got, want)
	}
}

func TestReplayEmpty(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	state := State{Stage: 2, Iteration: 1, Due: t0}
	got, err := s.Replay(state, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if got != state {
		t.Errorf("Replay = %+v, want input state %+v", got, state)
	}
}

// --- FirstReview / Phase ---

func TestFirstReview(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	assertNext(t, s.FirstReview(t0), 1, 1, t0.Add(Day))
}

func TestSchedulerPhase(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	if got := s.Phase(State{Stage: 1}); got != Learning {
		t.Errorf("Phase(stage 1) = %v, want Learning", got)
	}
	if got := s.Phase(State{Stage: 3}); got != Mastered {
		t.Errorf("Phase(stage 3) = %v, want Mastered", got)
	}
}

// --- jitter ---

func TestReviewJitterBounds(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Jitter: 0.1})

	// stage 1 pass → base interval 7d, jitter ±0.7d.
	lo := t0.Add(7*Day - time.Duration(0.7*float64(Day)))
	hi := t0.Add(7*Day + time.Duration(0.7*float64(Day)))
	for i := 0; i < 100; i++ {
		next, err := s.Review(State{Stage: 1}, score(0.9), t0)
		if err != nil {
			t.Fatalf("Review: %v", err)
		}
		if next.Due.Before(lo) || next.Due.After(hi) {
			t.Errorf("Due = %v, expected within [%v, %v]", next.Due, lo, hi)
		}
	}
}

// --- JSON ---

func TestSchedulerJSONRoundTrip(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{
		Intervals:     IntervalTable{1: time.Hour, 2: Day, 3: 3 * Day, 4: 10 * Day},
		MaxStage:      4,
		ResetStage:    2,
		PassThreshold: 0.6,
		Jitter:        0.05,
	})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var restored Scheduler
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	data2, err := json.Marshal(&restored)
	if err != nil {
		t.Fatalf("Marshal restored: %v", err)
	}
	if !bytes.Equal(data, data2) {
		t.Errorf("round trip changed config:\n%s\n%s", data, data2)
	}
}

func TestSchedulerUnmarshalInvalid(t *testing.T) {
	var s Scheduler
	// Ladder not covered by the serialized table.
	bad := `{"intervals":{"1":86400000000000},"max_stage":3,"reset_stage":1,"pass_threshold":0.8}`
	if err := json.Unmarshal([]byte(bad), &s); err == nil {
		t.Error("Unmarshal should reject an uncovered ladder")
	}
}
