package stats_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectara/lectara/internal/stats"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if LECTARA_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("LECTARA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LECTARA_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh PostgresStore over a clean schema.
func newTestStore(t *testing.T) *stats.PostgresStore {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS practice_attempts`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	store, err := stats.NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	attempts := []stats.Attempt{
		{SentenceIndex: 0, Sentence: "The knight rode.", Score: 0.4, IsCorrect: false,
			MissedWords: []string{"knight"}, At: time.Now()},
		{SentenceIndex: 0, Sentence: "The knight rode.", Score: 0.7, IsCorrect: false,
			MissedWords: []string{"knight"}, At: time.Now()},
		{SentenceIndex: 0, Sentence: "The knight rode.", Score: 0.96, IsCorrect: true,
			At: time.Now()},
		{SentenceIndex: 2, Sentence: "A quiet night.", Score: 0.9, IsCorrect: true,
			At: time.Now()},
	}
	for _, a := range attempts {
		if err := store.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	sum, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Attempts != 4 || sum.Correct != 2 || sum.CompletedSentences != 2 {
		t.Errorf("Summary = %+v, want 4/2/2", sum)
	}
	if sum.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", sum.Accuracy)
	}

	groups, err := store.WeakWords(ctx)
	if err != nil {
		t.Fatalf("WeakWords: %v", err)
	}
	if len(groups) != 1 || groups[0].Misses != 2 || groups[0].Words[0] != "knight" {
		t.Errorf("WeakWords = %+v, want knight missed twice", groups)
	}
}

func TestPostgresMigrateIsIdempotent(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	for i := 0; i < 2; i++ {
		if err := stats.Migrate(ctx, pool); err != nil {
			t.Fatalf("Migrate pass %d: %v", i, err)
		}
	}
}
