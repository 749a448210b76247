package ladder

import "time"

// ReviewLog records a single graded review of an item.
type ReviewLog struct {
	Score      *float64  `json:"score"` // nil when the review was never scored.
	ReviewedAt time.Time `json:"reviewed_at"`
}
