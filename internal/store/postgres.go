// Package store persists workout history, voice notes, and onboarding
// preferences in Postgres.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitvoice/internal/domain"
)

// ErrNoPreferences is returned before onboarding has run.
var ErrNoPreferences = errors.New("no preferences saved yet")

const schema = `
CREATE TABLE IF NOT EXISTS workouts (
	id UUID PRIMARY KEY,
	performed_at TIMESTAMPTZ NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS workout_entries (
	workout_id UUID NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
	position INT NOT NULL,
	name TEXT NOT NULL,
	sets INT NOT NULL,
	reps INT NOT NULL,
	weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (workout_id, position)
);

CREATE TABLE IF NOT EXISTS voice_notes (
	id UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	transcript TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
	singleton BOOL PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	goal TEXT NOT NULL DEFAULT '',
	experience TEXT NOT NULL DEFAULT '',
	days_per_week INT NOT NULL DEFAULT 0,
	equipment TEXT[] NOT NULL DEFAULT '{}'
);
`

// Postgres implements ports.WorkoutStore on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) SaveWorkout(ctx context.Context, w domain.Workout) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin workout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO workouts (id, performed_at, notes) VALUES ($1, $2, $3)`,
		w.ID, w.PerformedAt, w.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}

	for i, entry := range w.Entries {
		_, err = tx.Exec(ctx,
			`INSERT INTO workout_entries (workout_id, position, name, sets, reps, weight, unit)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			w.ID, i, entry.Name, entry.Sets, entry.Reps, entry.Weight, entry.Unit,
		)
		if err != nil {
			return fmt.Errorf("insert workout entry %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Postgres) ListWorkouts(ctx context.Context, limit int) ([]domain.Workout, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, performed_at, notes FROM workouts ORDER BY performed_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []domain.Workout
	for rows.Next() {
		var w domain.Workout
		if err := rows.Scan(&w.ID, &w.PerformedAt, &w.Notes); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read workouts: %w", err)
	}

	for i := range workouts {
		entries, err := s.workoutEntries(ctx, workouts[i])
		if err != nil {
			return nil, err
		}
		workouts[i].Entries = entries
	}

	return workouts, nil
}

func (s *Postgres) workoutEntries(ctx context.Context, w domain.Workout) ([]domain.ExerciseEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, sets, reps, weight, unit FROM workout_entries
		 WHERE workout_id = $1 ORDER BY position`,
		w.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workout entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ExerciseEntry
	for rows.Next() {
		var e domain.ExerciseEntry
		if err := rows.Scan(&e.Name, &e.Sets, &e.Reps, &e.Weight, &e.Unit); err != nil {
			return nil, fmt.Errorf("scan workout entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Postgres) SaveNote(ctx context.Context, n domain.VoiceNote) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO voice_notes (id, created_at, transcript) VALUES ($1, $2, $3)`,
		n.ID, n.CreatedAt, n.Transcript,
	)
	if err != nil {
		return fmt.Errorf("insert voice note: %w", err)
	}
	return nil
}

func (s *Postgres) RecentNotes(ctx context.Context, limit int) ([]domain.VoiceNote, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, transcript FROM voice_notes ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query voice notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.VoiceNote
	for rows.Next() {
		var n domain.VoiceNote
		if err := rows.Scan(&n.ID, &n.CreatedAt, &n.Transcript); err != nil {
			return nil, fmt.Errorf("scan voice note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Postgres) SavePreferences(ctx context.Context, p domain.Preferences) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO preferences (singleton, goal, experience, days_per_week, equipment)
		 VALUES (TRUE, $1, $2, $3, $4)
		 ON CONFLICT (singleton) DO UPDATE
		 SET goal = $1, experience = $2, days_per_week = $3, equipment = $4`,
		p.Goal, p.Experience, p.DaysPerWeek, p.Equipment,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func (s *Postgres) GetPreferences(ctx context.Context) (domain.Preferences, error) {
	var p domain.Preferences
	err := s.pool.QueryRow(ctx,
		`SELECT goal, experience, days_per_week, equipment FROM preferences WHERE singleton`,
	).Scan(&p.Goal, &p.Experience, &p.DaysPerWeek, &p.Equipment)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Preferences{}, ErrNoPreferences
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}
	return p, nil
}
