package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matsen/learnpath/internal/learner"
)

// LearnerDBFile is the name of the learner database file.
const LearnerDBFile = "learners.db"

// LearnerDB is a learner.Store backed by SQLite. Every mutation runs in a
// transaction that re-reads the learner, applies the change in memory, and
// writes it back only if validation passes.
type LearnerDB struct {
	db *sql.DB
}

// OpenLearnerDB opens or creates the learner database at path. Use
// ":memory:" for a throwaway store.
func OpenLearnerDB(path string) (*LearnerDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createLearnerSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &LearnerDB{db: db}, nil
}

// Close closes the database connection.
func (d *LearnerDB) Close() error {
	return d.db.Close()
}

func createLearnerSchema(db *sql.DB) error {
	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS learners (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS knowledge (
			learner_id TEXT NOT NULL REFERENCES learners(id),
			concept_id TEXT NOT NULL,
			mastery REAL NOT NULL CHECK (mastery >= 0 AND mastery <= 1),
			PRIMARY KEY (learner_id, concept_id)
		);

		CREATE TABLE IF NOT EXISTS interests (
			learner_id TEXT NOT NULL REFERENCES learners(id),
			concept_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (learner_id, concept_id)
		);

		CREATE INDEX IF NOT EXISTS idx_interests_order ON interests(learner_id, position);
	`
	_, err := db.Exec(schema)
	return err
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Get returns the learner's state, empty if the learner is unknown.
func (d *LearnerDB) Get(ctx context.Context, id string) (*learner.State, error) {
	if id == "" {
		return nil, learner.ErrEmptyLearnerID
	}
	return loadState(ctx, d.db, id)
}

// UpdateMastery sets one mastery value atomically.
func (d *LearnerDB) UpdateMastery(ctx context.Context, id, conceptID string, mastery float64) (*learner.State, error) {
	return d.mutate(ctx, id, func(tx *sql.Tx, s *learner.State) error {
		if err := s.UpdateMastery(conceptID, mastery); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge (learner_id, concept_id, mastery) VALUES (?, ?, ?)
			ON CONFLICT (learner_id, concept_id) DO UPDATE SET mastery = excluded.mastery
		`, id, conceptID, mastery)
		if err != nil {
			return fmt.Errorf("writing mastery: %w", err)
		}
		return nil
	})
}

// AddInterest appends an interest atomically; an existing interest is a no-op.
func (d *LearnerDB) AddInterest(ctx context.Context, id, conceptID string) (*learner.State, error) {
	return d.mutate(ctx, id, func(tx *sql.Tx, s *learner.State) error {
		added, err := s.AddInterest(conceptID)
		if err != nil || !added {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO interests (learner_id, concept_id, position) VALUES (?, ?, ?)`,
			id, conceptID, len(s.Interests)-1)
		if err != nil {
			return fmt.Errorf("writing interest: %w", err)
		}
		return nil
	})
}

// List returns the known learner ids, sorted.
func (d *LearnerDB) List(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id FROM learners ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing learners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning learner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// mutate runs apply inside a transaction. Any error rolls back every write,
// including creation of a previously unknown learner.
func (d *LearnerDB) mutate(ctx context.Context, id string, apply func(*sql.Tx, *learner.State) error) (*learner.State, error) {
	if id == "" {
		return nil, learner.ErrEmptyLearnerID
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO learners (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at
	`, id, now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting learner: %w", err)
	}

	s, err := loadState(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(tx, s); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return s, nil
}

func loadState(ctx context.Context, q queryer, id string) (*learner.State, error) {
	s := learner.New(id)

	rows, err := q.QueryContext(ctx, `SELECT concept_id, mastery FROM knowledge WHERE learner_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge: %w", err)
	}
	for rows.Next() {
		var conceptID string
		var mastery float64
		if err := rows.Scan(&conceptID, &mastery); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning knowledge: %w", err)
		}
		s.KnowledgeState[conceptID] = mastery
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading knowledge: %w", err)
	}

	rows, err = q.QueryContext(ctx, `SELECT concept_id FROM interests WHERE learner_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying interests: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var conceptID string
		if err := rows.Scan(&conceptID); err != nil {
			return nil, fmt.Errorf("scanning interest: %w", err)
		}
		s.Interests = append(s.Interests, conceptID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading interests: %w", err)
	}
	return s, nil
}
