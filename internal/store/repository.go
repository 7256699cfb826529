package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
)

// Repository is the storage collaborator. The store does not define the
// persistence format; adapters in infrastructure implement this port.
type Repository interface {
	// LoadSnapshot reads every persisted collection.
	LoadSnapshot(ctx context.Context) (Snapshot, error)

	// SaveGoal inserts or updates a goal.
	SaveGoal(ctx context.Context, g goal.Goal) error
	// DeleteGoal removes a goal. Missing rows are not an error.
	DeleteGoal(ctx context.Context, id uuid.UUID) error

	// SaveEntry inserts a progress entry.
	SaveEntry(ctx context.Context, e progress.Entry) error
	// DeleteEntry removes a progress entry.
	DeleteEntry(ctx context.Context, id uuid.UUID) error

	// SaveEvent inserts a calendar event.
	SaveEvent(ctx context.Context, e calendar.Event) error
	// DeleteEvent removes a calendar event.
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// SaveBadges replaces the persisted badge collection.
	SaveBadges(ctx context.Context, badges []badge.Badge) error
}

// Load builds a Store from persisted state.
func Load(ctx context.Context, repo Repository) (*Store, error) {
	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	return New(snap), nil
}
