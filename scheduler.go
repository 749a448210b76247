package ladder

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// SchedulerConfig configures a Scheduler.
// Zero values produce sensible defaults; see field comments.
type SchedulerConfig struct {
	Intervals     IntervalTable `json:"intervals"`      // nil → DefaultIntervals
	MaxStage      int           `json:"max_stage"`      // zero → 3
	ResetStage    int           `json:"reset_stage"`    // zero → 1
	PassThreshold float64       `json:"pass_threshold"` // zero → 0.8
	Jitter        float64       `json:"jitter"`         // zero → no jitter; fraction of the interval
}

// Scheduler computes review schedules on a validated stage ladder.
//
// The interval table is validated at construction, so scheduling cannot hit
// a missing stage afterwards. A Scheduler with jitter enabled owns a rand
// source and must not be shared across goroutines without external locking;
// with jitter disabled it is stateless and safe for concurrent use.
type Scheduler struct {
	intervals     IntervalTable
	maxStage      int
	resetStage    int
	passThreshold float64
	jitter        float64
	rng           *rand.Rand
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	// Intervals: nil → defaults.
	intervals := cfg.Intervals
	if intervals == nil {
		intervals = DefaultIntervals
	}

	// MaxStage: zero → 3.
	maxStage := cfg.MaxStage
	if maxStage == 0 {
		maxStage = 3
	}
	if maxStage < 1 {
		return nil, fmt.Errorf("ladder: max stage %d must be at least 1", maxStage)
	}

	// ResetStage: zero → 1.
	resetStage := cfg.ResetStage
	if resetStage == 0 {
		resetStage = 1
	}

	// PassThreshold: zero → 0.8.
	threshold := cfg.PassThreshold
	if threshold == 0 {
		threshold = 0.8
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("ladder: pass threshold %f out of range (0, 1]", threshold)
	}

	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return nil, fmt.Errorf("ladder: jitter %f out of range [0, 1)", cfg.Jitter)
	}

	if err := intervals.Validate(maxStage, resetStage); err != nil {
		return nil, err
	}

	return &Scheduler{
		intervals:     intervals.clone(),
		maxStage:      maxStage,
		resetStage:    resetStage,
		passThreshold: threshold,
		jitter:        cfg.Jitter,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Review computes the schedule following a review of the item in the given
// state. A nil score is graded as failing. The input state is not mutated.
//
// Stages at or above the ceiling are accepted and treated as mastered; an
// error is only possible for garbage input whose successor stage falls off
// the bottom of the validated table (for example a negative stage).
func (s *Scheduler) Review(state State, score *float64, now time.Time) (NextReview, error) {
	next, err := Next(now, state, score, s.passThreshold, s.intervals, s.maxStage, s.resetStage)
	if err != nil {
		return NextReview{}, err
	}
	if s.jitter > 0 {
		next.Due = applyJitter(now, next.Due, s.jitter, s.rng)
	}
	return next, nil
}

// Preview returns the schedules that passing and failing the item's next
// review would produce.
func (s *Scheduler) Preview(state State, now time.Time) (pass, fail NextReview, err error) {
	passScore := s.passThreshold
	pass, err = s.Review(state, &passScore, now)
	if err != nil {
		return NextReview{}, NextReview{}, err
	}
	fail, err = s.Review(state, nil, now)
	if err != nil {
		return NextReview{}, NextReview{}, err
	}
	return pass, fail, nil
}

// Replay replays historical review logs in order to rebuild an item's state.
// Logs must be ordered by ReviewedAt ascending.
func (s *Scheduler) Replay(state State, logs []ReviewLog) (State, error) {
	for _, l := range logs {
		next, err := s.Review(state, l.Score, l.ReviewedAt)
		if err != nil {
			return State{}, err
		}
		state = next.State()
	}
	return state, nil
}

// FirstReview returns the opening schedule for a newly created item:
// stage 1, first iteration, due after stage 1's interval.
func (s *Scheduler) FirstReview(now time.Time) NextReview {
	return NextReview{Stage: 1, Iteration: 1, Due: now.Add(s.intervals[1])}
}

// Phase reports whether the item is still climbing the ladder or mastered.
func (s *Scheduler) Phase(state State) Phase {
	return PhaseOf(state.Stage, s.maxStage)
}

// PassThreshold returns the minimum score a review must reach to pass.
func (s *Scheduler) PassThreshold() float64 {
	return s.passThreshold
}

// schedulerJSON is the serialized form of a Scheduler.
type schedulerJSON struct {
	Intervals     map[int]int64 `json:"intervals"` // nanoseconds per stage
	MaxStage      int           `json:"max_stage"`
	ResetStage    int           `json:"reset_stage"`
	PassThreshold float64       `json:"pass_threshold"`
	Jitter        float64       `json:"jitter"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	intervals := make(map[int]int64, len(s.intervals))
	for stage, d := range s.intervals {
		intervals[stage] = int64(d)
	}
	return json.Marshal(schedulerJSON{
		Intervals:     intervals,
		MaxStage:      s.maxStage,
		ResetStage:    s.resetStage,
		PassThreshold: s.passThreshold,
		Jitter:        s.jitter,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// It revalidates the serialized config through NewScheduler.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var j schedulerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var intervals IntervalTable
	if j.Intervals != nil {
		intervals = make(IntervalTable, len(j.Intervals))
		for stage, ns := range j.Intervals {
			intervals[stage] = time.Duration(ns)
		}
	}
	rebuilt, err := NewScheduler(SchedulerConfig{
		Intervals:     intervals,
		MaxStage:      j.MaxStage,
		ResetStage:    j.ResetStage,
		PassThreshold: j.PassThreshold,
		Jitter:        j.Jitter,
	})
	if err != nil {
		return err
	}
	*s = *rebuilt
	return nil
}
