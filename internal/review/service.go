// Package review ties the stage-ladder scheduler to persisted cards and
// reviews.
//
// Every card keeps exactly one open review at a time. Completing the open
// review grades it, computes the next schedule, and writes the successor
// review in the same transaction.
package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sky-flux/ladder"
	"github.com/sky-flux/ladder/internal/storage"
	"github.com/sky-flux/ladder/stats"
)

// ErrEmptyTitle is returned when creating a card without a title.
var ErrEmptyTitle = errors.New("review: card title required")

// Service is the domain service for cards, links, and reviews.
type Service struct {
	db    *storage.DB
	sched *ladder.Scheduler
	log   *zap.Logger
}

// NewService creates a Service.
func NewService(db *storage.DB, sched *ladder.Scheduler, log *zap.Logger) *Service {
	return &Service{db: db, sched: sched, log: log}
}

// CreateCardParams are the caller-supplied fields of a new card.
type CreateCardParams struct {
	Title      string
	Content    string
	Topic      string
	Tags       []string
	SourceURL  string
	Importance int
	Confidence float64
}

// CreateCard stores a new card and opens its first review.
func (s *Service) CreateCard(ctx context.Context, p CreateCardParams) (*storage.Card, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	card := &storage.Card{
		Title:      title,
		Content:    strings.TrimSpace(p.Content),
		Topic:      strings.TrimSpace(p.Topic),
		Tags:       tags,
		SourceURL:  strings.TrimSpace(p.SourceURL),
		Status:     "active",
		Importance: clampInt(p.Importance, 0, 10),
		Confidence: clampFloat(p.Confidence, 0, 1),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	id, err := s.db.InsertCard(ctx, card)
	if err != nil {
		return nil, err
	}
	card.ID = id

	if _, err := s.EnsureOpenReview(ctx, id); err != nil {
		return nil, err
	}

	s.log.Info("card created",
		zap.Int64("card_id", id),
		zap.String("title", title),
		zap.String("topic", card.Topic))
	return card, nil
}

// ListCards returns cards matching the filter, clamping paging values.
func (s *Service) ListCards(ctx context.Context, f storage.CardFilter) ([]storage.Card, error) {
	if f.Limit == 0 {
		f.Limit = 50
	}
	f.Limit = clampInt(f.Limit, 1, 200)
	f.Offset = clampInt(f.Offset, 0, 10_000)
	return s.db.ListCards(ctx, f)
}

// GetCard returns a single card.
func (s *Service) GetCard(ctx context.Context, id int64) (*storage.Card, error) {
	return s.db.GetCard(ctx, id)
}

// EnsureOpenReview returns the card's open review, creating the opening
// stage-1 review if none exists.
func (s *Service) EnsureOpenReview(ctx context.Context, cardID int64) (*storage.Review, error) {
	existing, err := s.db.OpenReview(ctx, cardID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	first := s.sched.FirstReview(time.Now().UTC())
	r := &storage.Review{
		CardID:    cardID,
		Stage:     first.Stage,
		Iteration: first.Iteration,
		DueAt:     first.Due,
	}
	id, err := s.db.InsertReview(ctx, r)
	if err != nil {
		return nil, err
	}
	r.ID = id
	return r, nil
}

// DueReviews returns open reviews due at or before now.
func (s *Service) DueReviews(ctx context.Context, now time.Time, limit int) ([]storage.Review, error) {
	if limit == 0 {
		limit = 50
	}
	return s.db.ListDueReviews(ctx, now, clampInt(limit, 1, 200))
}

// CompleteReview grades the card's open review and schedules the next one.
// A nil score grades the review as failing.
func (s *Service) CompleteReview(ctx context.Context, cardID int64, score *float64, now time.Time) (ladder.NextReview, error) {
	open, err := s.db.OpenReview(ctx, cardID)
	if err != nil {
		return ladder.NextReview{}, err
	}

	state := ladder.State{Stage: open.Stage, Iteration: open.Iteration, Due: open.DueAt}
	next, err := s.sched.Review(state, score, now)
	if err != nil {
		return ladder.NextReview{}, err
	}

	successor := &storage.Review{
		CardID:    cardID,
		Stage:     next.Stage,
		Iteration: next.Iteration,
		DueAt:     next.Due,
	}
	if err := s.db.CompleteReview(ctx, open.ID, score, now, successor); err != nil {
		return ladder.NextReview{}, err
	}

	s.log.Info("review completed",
		zap.Int64("card_id", cardID),
		zap.Int("stage", next.Stage),
		zap.Int("iteration", next.Iteration),
		zap.Time("due", next.Due),
		zap.Stringer("phase", s.sched.Phase(next.State())))
	return next, nil
}

// LinkCards records a directed link between two existing cards.
func (s *Service) LinkCards(ctx context.Context, from, to int64, linkType, linkContext string) (*storage.Link, error) {
	if _, err := s.db.GetCard(ctx, from); err != nil {
		return nil, err
	}
	if _, err := s.db.GetCard(ctx, to); err != nil {
		return nil, err
	}

	if linkType == "" {
		linkType = "reference"
	}
	l := &storage.Link{
		FromCardID: from,
		ToCardID:   to,
		Type:       linkType,
		Context:    strings.TrimSpace(linkContext),
		CreatedAt:  time.Now().UTC(),
	}
	id, err := s.db.InsertLink(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// GraphNode is a card with its link degree.
type GraphNode struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Topic  string   `json:"topic,omitempty"`
	Tags   []string `json:"tags"`
	Degree int      `json:"degree"`
}

// GraphEdge is a directed link between two cards.
type GraphEdge struct {
	From int64  `json:"from"`
	To   int64  `json:"to"`
	Type string `json:"type"`
}

// Graph is the card graph: every card as a node, every link as an edge.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphSummary builds the full card graph with per-node degrees.
func (s *Service) GraphSummary(ctx context.Context) (*Graph, error) {
	cards, err := s.db.ListCards(ctx, storage.CardFilter{Limit: 10_000})
	if err != nil {
		return nil, err
	}
	links, err := s.db.ListLinks(ctx)
	if err != nil {
		return nil, err
	}

	degree := make(map[int64]int)
	for _, l := range links {
		degree[l.FromCardID]++
		degree[l.ToCardID]++
	}

	g := &Graph{
		Nodes: make([]GraphNode, 0, len(cards)),
		Edges: make([]GraphEdge, 0, len(links)),
	}
	for _, c := range cards {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:     c.ID,
			Title:  c.Title,
			Topic:  c.Topic,
			Tags:   c.Tags,
			Degree: degree[c.ID],
		})
	}
	for _, l := range links {
		g.Edges = append(g.Edges, GraphEdge{From: l.FromCardID, To: l.ToCardID, Type: l.Type})
	}
	return g, nil
}

// Report is the review-history report for the stats command.
type Report struct {
	Summary stats.Summary
	Streak  int
}

// Stats summarizes all completed reviews against the scheduler's pass
// threshold.
func (s *Service) Stats(ctx context.Context) (Report, error) {
	completed, err := s.db.ListCompletedReviews(ctx)
	if err != nil {
		return Report{}, err
	}

	history := make([]stats.Review, 0, len(completed))
	for _, r := range completed {
		history = append(history, stats.Review{
			Stage:       r.Stage,
			Score:       r.Score,
			CompletedAt: *r.CompletedAt,
		})
	}

	threshold := s.sched.PassThreshold()
	return Report{
		Summary: stats.Summarize(history, threshold),
		Streak:  stats.Streak(history, threshold),
	}, nil
}

// clampInt clamps v into the inclusive range [lo, hi].
func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// clampFloat clamps v into the inclusive range [lo, hi].
func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
