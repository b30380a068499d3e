// Package sqlite provides a SQLite implementation of the Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Soulfra/soulfra-sub007/internal/domain/entities"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/config"
)

// Repository implements ports.Store using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Edit records (append-only per-entity hash chain)
	CREATE TABLE IF NOT EXISTS edit_records (
		entity_id TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		prev_hash TEXT NOT NULL DEFAULT '',
		chain_hash TEXT NOT NULL,
		author_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (entity_id, sequence)
	);

	-- Reviews (blind mutual reviews between reviewer and counterparty)
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		reviewer_id TEXT NOT NULL,
		counterparty_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		feedback TEXT,
		status TEXT NOT NULL,
		reciprocal_review_id TEXT,
		created_at TIMESTAMP NOT NULL,
		deadline_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_subject_reviewer ON reviews(subject_id, reviewer_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_pending ON reviews(counterparty_id, status);
	CREATE INDEX IF NOT EXISTS idx_reviews_deadline ON reviews(status, deadline_at);

	-- Consensus verdicts (append-only adjudication history)
	CREATE TABLE IF NOT EXISTS verdicts (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		votes TEXT NOT NULL,
		aggregate TEXT NOT NULL,
		decided_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_verdicts_entity ON verdicts(entity_id, decided_at);

	-- External identities (actor -> endorsement platform handle)
	CREATE TABLE IF NOT EXISTS external_identities (
		actor_id TEXT PRIMARY KEY,
		handle TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique/primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// AppendEditRecord persists a new edit record. The (entity_id, sequence)
// primary key is the optimistic check: a racing append that already took
// this sequence surfaces as entities.ErrConcurrentAppend.
func (r *Repository) AppendEditRecord(ctx context.Context, rec *entities.EditRecord) error {
	query := `
		INSERT INTO edit_records (entity_id, sequence, content_hash, prev_hash, chain_hash, author_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.EntityID,
		rec.Sequence,
		rec.ContentHash,
		rec.PrevHash,
		rec.ChainHash,
		rec.AuthorID,
		rec.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("entity %s sequence %d: %w", rec.EntityID, rec.Sequence, entities.ErrConcurrentAppend)
	}
	if err != nil {
		return fmt.Errorf("inserting edit record: %w", err)
	}
	return nil
}

// LatestEditRecord returns the highest-sequence record for an entity.
func (r *Repository) LatestEditRecord(ctx context.Context, entityID string) (*entities.EditRecord, error) {
	query := `
		SELECT entity_id, sequence, content_hash, prev_hash, chain_hash, author_id, created_at
		FROM edit_records
		WHERE entity_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, entityID)

	var rec entities.EditRecord
	err := row.Scan(
		&rec.EntityID,
		&rec.Sequence,
		&rec.ContentHash,
		&rec.PrevHash,
		&rec.ChainHash,
		&rec.AuthorID,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning edit record: %w", err)
	}
	return &rec, nil
}

// ListEditRecords returns an entity's full history in sequence order.
func (r *Repository) ListEditRecords(ctx context.Context, entityID string) ([]entities.EditRecord, error) {
	query := `
		SELECT entity_id, sequence, content_hash, prev_hash, chain_hash, author_id, created_at
		FROM edit_records
		WHERE entity_id = ?
		ORDER BY sequence ASC
	`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying edit records: %w", err)
	}
	defer rows.Close()

	records := make([]entities.EditRecord, 0, 16)
	for rows.Next() {
		var rec entities.EditRecord
		if err := rows.Scan(
			&rec.EntityID,
			&rec.Sequence,
			&rec.ContentHash,
			&rec.PrevHash,
			&rec.ChainHash,
			&rec.AuthorID,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning edit record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveReview inserts a new review.
func (r *Repository) SaveReview(ctx context.Context, review *entities.Review) error {
	query := `
		INSERT INTO reviews (id, subject_id, reviewer_id, counterparty_id, rating, feedback, status, reciprocal_review_id, created_at, deadline_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.SubjectID,
		review.ReviewerID,
		review.CounterpartyID,
		review.Rating,
		review.Feedback,
		string(review.Status),
		nullableString(review.ReciprocalReviewID),
		review.CreatedAt,
		review.DeadlineAt,
	)
	if err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	return nil
}

// FindReview finds a review by ID.
func (r *Repository) FindReview(ctx context.Context, id string) (*entities.Review, error) {
	query := reviewSelect + ` WHERE id = ?`
	return r.scanReviewRow(r.db.QueryRowContext(ctx, query, id))
}

// FindReviewBySubjectReviewer finds the most recent review this reviewer
// submitted for this subject, any status.
func (r *Repository) FindReviewBySubjectReviewer(ctx context.Context, subjectID, reviewerID string) (*entities.Review, error) {
	query := reviewSelect + `
		WHERE subject_id = ? AND reviewer_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanReviewRow(r.db.QueryRowContext(ctx, query, subjectID, reviewerID))
}

// FindReviewsBySubject returns all reviews for a subject.
func (r *Repository) FindReviewsBySubject(ctx context.Context, subjectID string) ([]entities.Review, error) {
	query := reviewSelect + ` WHERE subject_id = ? ORDER BY created_at ASC`
	return r.queryReviews(ctx, query, subjectID)
}

// PublishReviewPair inserts the reciprocal and flips the original to
// published in one transaction. The UPDATE's status predicate is the
// compare-and-set that serializes racing reciprocals: the loser matches
// zero rows and gets entities.ErrAlreadyResolved.
func (r *Repository) PublishReviewPair(ctx context.Context, original, reciprocal *entities.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE reviews
		SET status = ?, reciprocal_review_id = ?
		WHERE id = ? AND status = ?
	`
	result, err := tx.ExecContext(ctx, update,
		string(entities.ReviewPublished),
		reciprocal.ID,
		original.ID,
		string(entities.ReviewPendingReciprocal),
	)
	if err != nil {
		return fmt.Errorf("publishing original review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking publish result: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE id = ?`, original.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking original review: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("review %s: %w", original.ID, entities.ErrNotFound)
		}
		return fmt.Errorf("review %s: %w", original.ID, entities.ErrAlreadyResolved)
	}

	insert := `
		INSERT INTO reviews (id, subject_id, reviewer_id, counterparty_id, rating, feedback, status, reciprocal_review_id, created_at, deadline_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insert,
		reciprocal.ID,
		reciprocal.SubjectID,
		reciprocal.ReviewerID,
		reciprocal.CounterpartyID,
		reciprocal.Rating,
		reciprocal.Feedback,
		string(entities.ReviewPublished),
		original.ID,
		reciprocal.CreatedAt,
		reciprocal.DeadlineAt,
	)
	if err != nil {
		return fmt.Errorf("inserting reciprocal review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing review pair: %w", err)
	}
	return nil
}

// ExpireOverdueReviews transitions pending reviews past their deadline to
// expired. Idempotent: already-expired rows never match the predicate.
func (r *Repository) ExpireOverdueReviews(ctx context.Context, now time.Time) (int, error) {
	query := `
		UPDATE reviews
		SET status = ?
		WHERE status = ? AND deadline_at < ?
	`
	result, err := r.db.ExecContext(ctx, query,
		string(entities.ReviewExpired),
		string(entities.ReviewPendingReciprocal),
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("expiring reviews: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking expiry result: %w", err)
	}
	return int(affected), nil
}

// FindPendingForActor returns reviews awaiting this actor's reciprocal.
func (r *Repository) FindPendingForActor(ctx context.Context, actorID string) ([]entities.Review, error) {
	query := reviewSelect + `
		WHERE counterparty_id = ? AND status = ?
		ORDER BY created_at ASC
	`
	return r.queryReviews(ctx, query, actorID, string(entities.ReviewPendingReciprocal))
}

// SaveVerdict appends a consensus verdict.
func (r *Repository) SaveVerdict(ctx context.Context, verdict *entities.ConsensusVerdict) error {
	votes, err := json.Marshal(verdict.Votes)
	if err != nil {
		return fmt.Errorf("marshaling votes: %w", err)
	}

	query := `
		INSERT INTO verdicts (id, entity_id, votes, aggregate, decided_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		verdict.ID,
		verdict.EntityID,
		string(votes),
		string(verdict.Aggregate),
		verdict.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("saving verdict: %w", err)
	}
	return nil
}

// FindVerdictsByEntity returns all verdicts for an entity, newest first.
func (r *Repository) FindVerdictsByEntity(ctx context.Context, entityID string) ([]entities.ConsensusVerdict, error) {
	query := `
		SELECT id, entity_id, votes, aggregate, decided_at
		FROM verdicts
		WHERE entity_id = ?
		ORDER BY decided_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := make([]entities.ConsensusVerdict, 0, 4)
	for rows.Next() {
		var v entities.ConsensusVerdict
		var votes, aggregate string
		if err := rows.Scan(&v.ID, &v.EntityID, &votes, &aggregate, &v.DecidedAt); err != nil {
			return nil, fmt.Errorf("scanning verdict: %w", err)
		}
		if err := json.Unmarshal([]byte(votes), &v.Votes); err != nil {
			return nil, fmt.Errorf("unmarshaling votes: %w", err)
		}
		v.Aggregate = entities.Verdict(aggregate)
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// FindLatestVerdict returns the most recent verdict for an entity.
func (r *Repository) FindLatestVerdict(ctx context.Context, entityID string) (*entities.ConsensusVerdict, error) {
	query := `
		SELECT id, entity_id, votes, aggregate, decided_at
		FROM verdicts
		WHERE entity_id = ?
		ORDER BY decided_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, entityID)

	var v entities.ConsensusVerdict
	var votes, aggregate string
	err := row.Scan(&v.ID, &v.EntityID, &votes, &aggregate, &v.DecidedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning verdict: %w", err)
	}
	if err := json.Unmarshal([]byte(votes), &v.Votes); err != nil {
		return nil, fmt.Errorf("unmarshaling votes: %w", err)
	}
	v.Aggregate = entities.Verdict(aggregate)
	return &v, nil
}

// LinkIdentity records an actor's verified platform handle.
func (r *Repository) LinkIdentity(ctx context.Context, actorID, handle string) error {
	query := `
		INSERT INTO external_identities (actor_id, handle)
		VALUES (?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET
			handle = excluded.handle
	`
	_, err := r.db.ExecContext(ctx, query, actorID, handle)
	if err != nil {
		return fmt.Errorf("linking identity: %w", err)
	}
	return nil
}

// FindExternalIdentity returns the actor's linked handle, or "".
func (r *Repository) FindExternalIdentity(ctx context.Context, actorID string) (string, error) {
	query := `SELECT handle FROM external_identities WHERE actor_id = ?`
	var handle string
	err := r.db.QueryRowContext(ctx, query, actorID).Scan(&handle)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scanning identity: %w", err)
	}
	return handle, nil
}

const reviewSelect = `
	SELECT id, subject_id, reviewer_id, counterparty_id, rating, feedback, status, reciprocal_review_id, created_at, deadline_at
	FROM reviews`

// scanReviewRow scans a single review row, mapping no-rows to nil.
func (r *Repository) scanReviewRow(row *sql.Row) (*entities.Review, error) {
	var review entities.Review
	var status string
	var feedback, reciprocalID sql.NullString

	err := row.Scan(
		&review.ID,
		&review.SubjectID,
		&review.ReviewerID,
		&review.CounterpartyID,
		&review.Rating,
		&feedback,
		&status,
		&reciprocalID,
		&review.CreatedAt,
		&review.DeadlineAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning review: %w", err)
	}

	review.Status = entities.ReviewStatus(status)
	review.Feedback = feedback.String
	review.ReciprocalReviewID = reciprocalID.String
	return &review, nil
}

// queryReviews is a helper to execute review list queries.
func (r *Repository) queryReviews(ctx context.Context, query string, args ...any) ([]entities.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]entities.Review, 0, 16)
	for rows.Next() {
		var review entities.Review
		var status string
		var feedback, reciprocalID sql.NullString

		if err := rows.Scan(
			&review.ID,
			&review.SubjectID,
			&review.ReviewerID,
			&review.CounterpartyID,
			&review.Rating,
			&feedback,
			&status,
			&reciprocalID,
			&review.CreatedAt,
			&review.DeadlineAt,
		); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}

		review.Status = entities.ReviewStatus(status)
		review.Feedback = feedback.String
		review.ReciprocalReviewID = reciprocalID.String
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// nullableString maps "" to NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
