package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/store"
)

// Repository implements store.Repository with gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ store.Repository = (*Repository)(nil)

func (r *Repository) LoadSnapshot(ctx context.Context) (store.Snapshot, error) {
	var (
		goals   []GoalRecord
		entries []EntryRecord
		events  []EventRecord
		badges  []BadgeRecord
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at, id").Find(&goals).Error; err != nil {
			return fmt.Errorf("goals: %w", err)
		}
		if err := tx.Order("rowid").Find(&entries).Error; err != nil {
			return fmt.Errorf("progress entries: %w", err)
		}
		if err := tx.Order("starts_at, id").Find(&events).Error; err != nil {
			return fmt.Errorf("calendar events: %w", err)
		}
		if err := tx.Order("position").Find(&badges).Error; err != nil {
			return fmt.Errorf("badges: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite: load snapshot: %w", err)
	}

	snap := store.Snapshot{
		Goals:   make([]goal.Goal, 0, len(goals)),
		Entries: make([]progress.Entry, 0, len(entries)),
		Events:  make([]calendar.Event, 0, len(events)),
		Badges:  make([]badge.Badge, 0, len(badges)),
	}
	for _, g := range goals {
		snap.Goals = append(snap.Goals, g.toDomain())
	}
	for _, e := range entries {
		snap.Entries = append(snap.Entries, e.toDomain())
	}
	for _, e := range events {
		snap.Events = append(snap.Events, e.toDomain())
	}
	for _, b := range badges {
		snap.Badges = append(snap.Badges, b.toDomain())
	}
	return snap, nil
}

func (r *Repository) SaveGoal(ctx context.Context, g goal.Goal) error {
	rec := goalToRecord(g)
	if err := r.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("sqlite: save goal: %w", err)
	}
	return nil
}

func (r *Repository) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&GoalRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("sqlite: delete goal: %w", err)
	}
	return nil
}

// SaveEntry inserts an entry; an existing row with the same id is kept.
func (r *Repository) SaveEntry(ctx context.Context, e progress.Entry) error {
	rec := entryToRecord(e)
	if err := r.db.WithContext(ctx).Where("id = ?", rec.ID).FirstOrCreate(&rec).Error; err != nil {
		return fmt.Errorf("sqlite: save progress entry: %w", err)
	}
	return nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&EntryRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("sqlite: delete progress entry: %w", err)
	}
	return nil
}

func (r *Repository) SaveEvent(ctx context.Context, e calendar.Event) error {
	rec := eventToRecord(e)
	if err := r.db.WithContext(ctx).Where("id = ?", rec.ID).FirstOrCreate(&rec).Error; err != nil {
		return fmt.Errorf("sqlite: save calendar event: %w", err)
	}
	return nil
}

func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&EventRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("sqlite: delete calendar event: %w", err)
	}
	return nil
}

// SaveBadges replaces the badge table in one transaction.
func (r *Repository) SaveBadges(ctx context.Context, badges []badge.Badge) error {
	records := badgesToRecords(badges)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&BadgeRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("sqlite: save badges: %w", err)
	}
	return nil
}
