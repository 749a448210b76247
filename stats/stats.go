// Package stats summarizes completed review history for a stage ladder.
//
// It answers the questions a review UI or CLI typically asks of history:
// how many reviews happened per stage, how often each stage is passed, and
// how long the current passing streak is. Like the scheduler itself, the
// package is pure and holds no state.
package stats

import (
	"sort"
	"time"
)

// Review is one completed review: the stage the item was at when reviewed,
// the score it received (nil when never scored), and when it was completed.
type Review struct {
	Stage       int
	Score       *float64
	CompletedAt time.Time
}

// StageSummary aggregates the reviews completed at a single stage.
type StageSummary struct {
	Stage  int
	Total  int
	Passed int
}

// PassRate returns the fraction of reviews at this stage that passed.
// Returns 0 for a stage with no reviews.
func (s StageSummary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Summary aggregates a full review history.
type Summary struct {
	Total  int
	Passed int
	Stages []StageSummary // ascending by stage
}

// PassRate returns the overall fraction of reviews that passed.
// Returns 0 for an empty history.
func (s Summary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Summarize aggregates reviews against the given pass threshold.
// A nil score is graded as 0.0, matching the scheduler's failing grade for
// unscored reviews.
func Summarize(reviews []Review, passThreshold float64) Summary {
	byStage := make(map[int]*StageSummary)
	var out Summary
	for _, r := range reviews {
		ss, ok := byStage[r.Stage]
		if !ok {
			ss = &StageSummary{Stage: r.Stage}
			byStage[r.Stage] = ss
		}
		ss.Total++
		out.Total++
		if passes(r, passThreshold) {
			ss.Passed++
			out.Passed++
		}
	}

	out.Stages = make([]StageSummary, 0, len(byStage))
	for _, ss := range byStage {
		out.Stages = append(out.Stages, *ss)
	}
	sort.Slice(out.Stages, func(i, j int) bool {
		return out.Stages[i].Stage < out.Stages[j].Stage
	})
	return out
}

// Streak returns the length of the passing streak ending at the most recent
// review. Reviews are considered in CompletedAt order; the input is not
// mutated.
func Streak(reviews []Review, passThreshold float64) int {
	ordered := make([]Review, len(reviews))
	copy(ordered, reviews)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	streak := 0
	for i := len(ordered) - 1; i >= 0; i-- {
		if !passes(ordered[i], passThreshold) {
			break
		}
		streak++
	}
	return streak
}

func passes(r Review, passThreshold float64) bool {
	score := 0.0
	if r.Score != nil {
		score = *r.Score
	}
	return score >= passThreshold
}
