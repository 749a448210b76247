package ladder

import (
	"fmt"
	"time"
)

// Day is the base unit for stage intervals.
const Day = 24 * time.Hour

// IntervalTable maps a stage to the delay before an item scheduled at that
// stage comes up for review again.
type IntervalTable map[int]time.Duration

// DefaultIntervals is the standard three-stage ladder: review after one day,
// then one week, then one month.
var DefaultIntervals = IntervalTable{
	1: Day,
	2: 7 * Day,
	3: 30 * Day,
}

// Validate checks that every stage in [1, maxStage] and resetStage has a
// positive mapped duration. A missing or non-positive entry is a
// configuration error, not a per-review failure.
func (t IntervalTable) Validate(maxStage, resetStage int) error {
	for stage := 1; stage <= maxStage; stage++ {
		if err := t.validateStage(stage); err != nil {
			return err
		}
	}
	return t.validateStage(resetStage)
}

func (t IntervalTable) validateStage(stage int) error {
	d, ok := t[stage]
	if !ok {
		return fmt.Errorf("%w: %d", ErrStageUnmapped, stage)
	}
	if d <= 0 {
		return fmt.Errorf("%w: stage %d maps to %s", ErrInvalidInterval, stage, d)
	}
	return nil
}

// clone returns a copy of the table so a Scheduler cannot observe later
// mutation of the caller's map.
func (t IntervalTable) clone() IntervalTable {
	out := make(IntervalTable, len(t))
	for stage, d := range t {
		out[stage] = d
	}
	return out
}
