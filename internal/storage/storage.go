// Package storage persists cards, links, and reviews in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the storage package.
var (
	ErrNotFound        = errors.New("storage: not found")
	ErrReviewCompleted = errors.New("storage: review already completed")
)

// Card is a single knowledge card.
type Card struct {
	ID         int64
	Title      string
	Content    string
	Topic      string
	Tags       []string
	SourceURL  string
	Status     string
	Importance int
	Confidence float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Link is a directed relationship between two cards.
type Link struct {
	ID         int64
	FromCardID int64
	ToCardID   int64
	Type       string
	Context    string
	CreatedAt  time.Time
}

// Review is one scheduled review of a card. An open review has a nil
// CompletedAt; completing it records the score and spawns the successor row.
type Review struct {
	ID          int64
	CardID      int64
	Stage       int
	Iteration   int
	DueAt       time.Time
	CompletedAt *time.Time
	Score       *float64
}

// CardFilter narrows ListCards results. Zero values mean no filtering.
type CardFilter struct {
	Query  string // substring match on title or content
	Topic  string
	Tag    string
	Limit  int
	Offset int
}

// InsertCard stores a new card and returns its ID.
func (db *DB) InsertCard(ctx context.Context, c *Card) (int64, error) {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return 0, err
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO cards (title, content, topic, tags, source_url, status, importance, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Content, c.Topic, string(tags), c.SourceURL, c.Status,
		c.Importance, c.Confidence, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCard returns the card with the given ID, or ErrNotFound.
func (db *DB) GetCard(ctx context.Context, id int64) (*Card, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, title, content, topic, tags, source_url, status, importance, confidence, created_at, updated_at
		FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d", ErrNotFound, id)
	}
	return c, err
}

// ListCards returns cards matching the filter, most recently updated first.
func (db *DB) ListCards(ctx context.Context, f CardFilter) ([]Card, error) {
	var (
		where []string
		args  []any
	)
	if f.Query != "" {
		where = append(where, "(title LIKE ? OR content LIKE ?)")
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	if f.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, f.Topic)
	}

	q := `SELECT id, title, content, topic, tags, source_url, status, importance, confidence, created_at, updated_at FROM cards`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		// Tag filtering happens here: tags live in a JSON column.
		if f.Tag != "" && !contains(c.Tags, f.Tag) {
			continue
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// InsertLink stores a directed link between two cards.
func (db *DB) InsertLink(ctx context.Context, l *Link) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO links (from_card_id, to_card_id, type, context, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.FromCardID, l.ToCardID, l.Type, l.Context, l.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListLinks returns all links.
func (db *DB) ListLinks(ctx context.Context) ([]Link, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, from_card_id, to_card_id, type, context, created_at FROM links`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var (
			l           Link
			linkContext sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.FromCardID, &l.ToCardID, &l.Type, &linkContext, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Context = linkContext.String
		links = append(links, l)
	}
	return links, rows.Err()
}

// InsertReview stores a review row and returns its ID.
func (db *DB) InsertReview(ctx context.Context, r *Review) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO reviews (card_id, stage, iteration, due_at, completed_at, score)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.CardID, r.Stage, r.Iteration, r.DueAt, r.CompletedAt, r.Score)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// OpenReview returns the earliest open review for a card, or ErrNotFound.
func (db *DB) OpenReview(ctx context.Context, cardID int64) (*Review, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, card_id, stage, iteration, due_at, completed_at, score
		FROM reviews
		WHERE card_id = ? AND completed_at IS NULL
		ORDER BY due_at ASC
		LIMIT 1`, cardID)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: open review for card %d", ErrNotFound, cardID)
	}
	return r, err
}

// ListDueReviews returns open reviews due at or before now, soonest first.
func (db *DB) ListDueReviews(ctx context.Context, now time.Time, limit int) ([]Review, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, card_id, stage, iteration, due_at, completed_at, score
		FROM reviews
		WHERE completed_at IS NULL AND due_at <= ?
		ORDER BY due_at ASC
		LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// ListCompletedReviews returns all completed reviews, oldest first.
func (db *DB) ListCompletedReviews(ctx context.Context) ([]Review, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, card_id, stage, iteration, due_at, completed_at, score
		FROM reviews
		WHERE completed_at IS NOT NULL
		ORDER BY completed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// CompleteReview closes an open review and inserts its successor in a single
// transaction. The close is guarded on completed_at still being NULL, so of
// two concurrent completions of the same review exactly one wins; the loser
// gets ErrReviewCompleted.
func (db *DB) CompleteReview(ctx context.Context, reviewID int64, score *float64, completedAt time.Time, next *Review) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE reviews SET completed_at = ?, score = ?
		WHERE id = ? AND completed_at IS NULL`,
		completedAt, score, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: review %d", ErrReviewCompleted, reviewID)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reviews (card_id, stage, iteration, due_at, completed_at, score)
		VALUES (?, ?, ?, ?, NULL, NULL)`,
		next.CardID, next.Stage, next.Iteration, next.DueAt); err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*Card, error) {
	var (
		c                         Card
		content, topic, sourceURL sql.NullString
		tags                      string
	)
	if err := row.Scan(&c.ID, &c.Title, &content, &topic, &tags, &sourceURL,
		&c.Status, &c.Importance, &c.Confidence, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Content = content.String
	c.Topic = topic.String
	c.SourceURL = sourceURL.String
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("card %d has malformed tags: %w", c.ID, err)
	}
	return &c, nil
}

func scanReview(row rowScanner) (*Review, error) {
	var (
		r           Review
		completedAt sql.NullTime
		score       sql.NullFloat64
	)
	if err := row.Scan(&r.ID, &r.CardID, &r.Stage, &r.Iteration, &r.DueAt, &completedAt, &score); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if score.Valid {
		v := score.Float64
		r.Score = &v
	}
	return &r, nil
}

func collectReviews(rows *sql.Rows) ([]Review, error) {
	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
