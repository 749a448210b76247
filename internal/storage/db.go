package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	SchemaVersion = 2
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// NewDB opens the SQLite database at path and applies pending migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies database migrations
func (db *DB) migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for version < SchemaVersion {
		version++
		switch version {
		case 1:
			if err := applySchemaV1(tx); err != nil {
				return fmt.Errorf("failed to apply schema v%d: %w", version, err)
			}
		case 2:
			if err := applySchemaV2(tx); err != nil {
				return fmt.Errorf("failed to apply schema v%d: %w", version, err)
			}
		default:
			return fmt.Errorf("unknown schema version: %d", version)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// applySchemaV1 creates the cards and reviews tables.
func applySchemaV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			content     TEXT,
			topic       TEXT,
			tags        TEXT NOT NULL DEFAULT '[]',
			source_url  TEXT,
			status      TEXT NOT NULL DEFAULT 'active',
			importance  INTEGER NOT NULL DEFAULT 0,
			confidence  REAL NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL,
			updated_at  TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS ix_cards_topic ON cards(topic);
		CREATE INDEX IF NOT EXISTS ix_cards_title ON cards(title);

		CREATE TABLE IF NOT EXISTS reviews (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			card_id      INTEGER NOT NULL REFERENCES cards(id),
			stage        INTEGER NOT NULL,
			iteration    INTEGER NOT NULL DEFAULT 1,
			due_at       TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			score        REAL
		);

		CREATE INDEX IF NOT EXISTS ix_reviews_card_id ON reviews(card_id);
		CREATE INDEX IF NOT EXISTS ix_reviews_due_at ON reviews(due_at);
		CREATE INDEX IF NOT EXISTS ix_reviews_open_due ON reviews(completed_at, due_at);
	`)
	return err
}

// applySchemaV2 adds directed links between cards.
func applySchemaV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS links (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			from_card_id  INTEGER NOT NULL REFERENCES cards(id),
			to_card_id    INTEGER NOT NULL REFERENCES cards(id),
			type          TEXT NOT NULL DEFAULT 'reference',
			context       TEXT,
			created_at    TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS ix_links_from ON links(from_card_id);
		CREATE INDEX IF NOT EXISTS ix_links_to ON links(to_card_id);
		CREATE UNIQUE INDEX IF NOT EXISTS ix_links_unique ON links(from_card_id, to_card_id, type);
	`)
	return err
}
