package ladder

import (
	"fmt"
	"time"
)

// Next computes the schedule following a completed review.
//
// A nil score is graded as 0.0, so an unscored review always fails. A score
// at or above passThreshold passes: the stage climbs by one, clamped to
// maxStage, and an item whose stage was already at or above maxStage stays
// at the ceiling with its iteration count incremented. A failing review
// keeps stage and iteration unchanged and reschedules at resetStage's
// interval.
//
// Next is pure: identical inputs always produce identical output and no
// input is mutated. The only error is a missing interval for the computed
// stage or for resetStage, which is a configuration problem
// (ErrStageUnmapped), not a per-review failure.
func Next(now time.Time, state State, score *float64, passThreshold float64, intervals IntervalTable, maxStage, resetStage int) (NextReview, error) {
	effective := 0.0
	if score != nil {
		effective = *score
	}

	if effective >= passThreshold {
		nextStage := min(maxStage, state.Stage+1)
		nextIteration := state.Iteration
		if state.Stage >= maxStage {
			// Already at the ceiling: hold it and count the pass.
			nextStage = maxStage
			nextIteration = state.Iteration + 1
		}
		delta, ok := intervals[nextStage]
		if !ok {
			return NextReview{}, fmt.Errorf("%w: %d", ErrStageUnmapped, nextStage)
		}
		return NextReview{Stage: nextStage, Iteration: nextIteration, Due: now.Add(delta)}, nil
	}

	delta, ok := intervals[resetStage]
	if !ok {
		return NextReview{}, fmt.Errorf("%w: %d", ErrStageUnmapped, resetStage)
	}
	return NextReview{Stage: state.Stage, Iteration: state.Iteration, Due: now.Add(delta)}, nil
}
