package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlAttempts = `
CREATE TABLE IF NOT EXISTS practice_attempts (
    id             BIGSERIAL         PRIMARY KEY,
    sentence_index INT               NOT NULL,
    sentence       TEXT              NOT NULL,
    score          DOUBLE PRECISION  NOT NULL,
    is_correct     BOOLEAN           NOT NULL,
    missed_words   TEXT[]            NOT NULL DEFAULT '{}',
    at             TIMESTAMPTZ       NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_practice_attempts_sentence
    ON practice_attempts (sentence_index);

CREATE INDEX IF NOT EXISTS idx_practice_attempts_at
    ON practice_attempts (at);
`

// PostgresStore persists attempts in PostgreSQL so progress survives across
// sessions. All operations are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database at dsn, verifies the connection,
// and runs [Migrate].
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("stats: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("stats: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("stats: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("stats: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate ensures the attempts table exists. Idempotent and safe to run on
// every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlAttempts); err != nil {
		return fmt.Errorf("stats migrate: %w", err)
	}
	return nil
}

// Ping verifies the database connection, for readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// RecordAttempt inserts one attempt row.
func (s *PostgresStore) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO practice_attempts (sentence_index, sentence, score, is_correct, missed_words, at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.SentenceIndex, a.Sentence, a.Score, a.IsCorrect, a.MissedWords, a.At)
	if err != nil {
		return fmt.Errorf("stats: record attempt: %w", err)
	}
	return nil
}

// Summary aggregates all recorded attempts in one query.
func (s *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE is_correct),
		       count(DISTINCT sentence_index) FILTER (WHERE is_correct)
		FROM practice_attempts`).
		Scan(&sum.Attempts, &sum.Correct, &sum.CompletedSentences)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: summary: %w", err)
	}
	if sum.Attempts > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Attempts)
	}
	return sum, nil
}

// WeakWords flattens every attempt's missed words and groups them
// phonetically. The phonetic grouping happens client-side; the database only
// stores the raw misses.
func (s *PostgresStore) WeakWords(ctx context.Context) ([]WeakWordGroup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT w FROM practice_attempts, unnest(missed_words) AS w`)
	if err != nil {
		return nil, fmt.Errorf("stats: weak words: %w", err)
	}
	defer rows.Close()

	var missed []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("stats: weak words scan: %w", err)
		}
		missed = append(missed, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: weak words rows: %w", err)
	}
	return GroupWeakWords(missed), nil
}
