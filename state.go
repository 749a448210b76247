package ladder

import "time"

// State is an item's spaced repetition state going into a review.
type State struct {
	Stage     int       `json:"stage"`
	Iteration int       `json:"iteration"`
	Due       time.Time `json:"due"`
}

// NextReview is the schedule computed from a completed review: the item's
// new stage and iteration counters and the timestamp at which it becomes
// reviewable again. It is a plain value; callers persist it and overwrite
// the stored state.
type NextReview struct {
	Stage     int       `json:"stage"`
	Iteration int       `json:"iteration"`
	Due       time.Time `json:"due"`
}

// State converts the computed schedule into the State the item carries into
// its next review.
func (n NextReview) State() State {
	return State{Stage: n.Stage, Iteration: n.Iteration, Due: n.Due}
}
