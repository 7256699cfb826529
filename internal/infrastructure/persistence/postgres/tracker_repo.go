package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TrackerRepository implements store.Repository for PostgreSQL.
type TrackerRepository struct {
	conn *Connection
}

// NewTrackerRepository creates a new TrackerRepository.
func NewTrackerRepository(conn *Connection) *TrackerRepository {
	return &TrackerRepository{conn: conn}
}

var _ store.Repository = (*TrackerRepository)(nil)

// LoadSnapshot reads all four collections in one transaction.
func (r *TrackerRepository) LoadSnapshot(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		if snap.Goals, err = r.loadGoals(ctx, tx); err != nil {
			return err
		}
		if snap.Entries, err = r.loadEntries(ctx, tx); err != nil {
			return err
		}
		if snap.Events, err = r.loadEvents(ctx, tx); err != nil {
			return err
		}
		snap.Badges, err = r.loadBadges(ctx, tx)
		return err
	})
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Goals
// ─────────────────────────────────────────────────────────────────────────────

// SaveGoal inserts or updates a goal.
func (r *TrackerRepository) SaveGoal(ctx context.Context, g goal.Goal) error {
	query := `
		INSERT INTO goals (id, title, description, progress, status, due_date, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			progress = EXCLUDED.progress,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			category = EXCLUDED.category
	`

	_, err := r.conn.Exec(ctx, query,
		g.ID,
		g.Title,
		g.Description,
		g.Progress,
		string(g.Status),
		nullTime(g.DueDate),
		g.Category,
		g.CreatedAt,
	)
	if err != nil {
		return saveError("SaveGoal", "goal", err)
	}
	return nil
}

// DeleteGoal removes a goal. Progress entries are kept.
func (r *TrackerRepository) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func (r *TrackerRepository) loadGoals(ctx context.Context, q Querier) ([]goal.Goal, error) {
	rows, err := q.Query(ctx, `
		SELECT id, title, description, progress, status, due_date, category, created_at
		FROM goals
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []goal.Goal
	for rows.Next() {
		var (
			g       goal.Goal
			status  string
			dueDate *time.Time
		)
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Progress, &status, &dueDate, &g.Category, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.Status = goal.Status(status)
		if dueDate != nil {
			g.DueDate = *dueDate
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return goals, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress entries
// ─────────────────────────────────────────────────────────────────────────────

// saveError maps constraint violations onto domain error kinds.
func saveError(op, what string, err error) error {
	switch {
	case IsUniqueViolation(err):
		return shared.WrapError("postgres", op, shared.ErrAlreadyExists, what+" already exists", err)
	case IsCheckViolation(err):
		return shared.WrapError("postgres", op, shared.ErrValidation, what+" violates table constraints", err)
	default:
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
}

// SaveEntry inserts a progress entry. Entries are immutable, so an existing
// row with the same id is left as is.
func (r *TrackerRepository) SaveEntry(ctx context.Context, e progress.Entry) error {
	query := `
		INSERT INTO progress_entries (id, entry_date, goal_id, goal_ref, hours, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.conn.Exec(ctx, query, e.ID, e.Date, nullUUID(e.GoalID), e.GoalRef, e.Hours, e.Notes); err != nil {
		return saveError("SaveEntry", "progress entry", err)
	}
	return nil
}

// DeleteEntry removes a progress entry.
func (r *TrackerRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM progress_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete progress entry: %w", err)
	}
	return nil
}

func (r *TrackerRepository) loadEntries(ctx context.Context, q Querier) ([]progress.Entry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, entry_date, goal_id, goal_ref, hours, notes
		FROM progress_entries
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress entries: %w", err)
	}
	defer rows.Close()

	var entries []progress.Entry
	for rows.Next() {
		var (
			e      progress.Entry
			goalID uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &e.Date, &goalID, &e.GoalRef, &e.Hours, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan progress entry: %w", err)
		}
		if goalID.Valid {
			e.GoalID = goalID.UUID
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Calendar events
// ─────────────────────────────────────────────────────────────────────────────

// SaveEvent inserts a calendar event.
func (r *TrackerRepository) SaveEvent(ctx context.Context, e calendar.Event) error {
	query := `
		INSERT INTO calendar_events (id, title, starts_at, ends_at, event_type, goal_id, goal_ref, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID, e.Title, e.Start, e.End, string(e.Type), nullUUID(e.GoalID), e.GoalRef, e.Notes,
	)
	if err != nil {
		return saveError("SaveEvent", "calendar event", err)
	}
	return nil
}

// DeleteEvent removes a calendar event.
func (r *TrackerRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	return nil
}

func (r *TrackerRepository) loadEvents(ctx context.Context, q Querier) ([]calendar.Event, error) {
	rows, err := q.Query(ctx, `
		SELECT id, title, starts_at, ends_at, event_type, goal_id, goal_ref, notes
		FROM calendar_events
		ORDER BY starts_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar events: %w", err)
	}
	defer rows.Close()

	var events []calendar.Event
	for rows.Next() {
		var (
			e      calendar.Event
			kind   string
			goalID uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Start, &e.End, &kind, &goalID, &e.GoalRef, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		e.Type = calendar.Type(kind)
		if goalID.Valid {
			e.GoalID = goalID.UUID
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return events, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Badges
// ─────────────────────────────────────────────────────────────────────────────

// SaveBadges replaces the badge table with the given collection.
func (r *TrackerRepository) SaveBadges(ctx context.Context, badges []badge.Badge) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM badges`); err != nil {
			return fmt.Errorf("failed to clear badges: %w", err)
		}

		batch := &pgx.Batch{}
		for i, b := range badges {
			batch.Queue(`
				INSERT INTO badges (id, position, title, description, unlocked, progress, requirement, unlocked_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, b.ID, i, b.Title, b.Description, b.Unlocked, b.Progress, b.Requirement, b.UnlockedDate)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return saveError("SaveBadges", "badge", err)
		}
		return nil
	})
}

func (r *TrackerRepository) loadBadges(ctx context.Context, q Querier) ([]badge.Badge, error) {
	rows, err := q.Query(ctx, `
		SELECT id, title, description, unlocked, progress, requirement, unlocked_date
		FROM badges
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []badge.Badge
	for rows.Next() {
		var b badge.Badge
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.Unlocked, &b.Progress, &b.Requirement, &b.UnlockedDate); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return badges, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
