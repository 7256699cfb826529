// Package sqlite implements store.Repository on a local SQLite file through
// gorm. It is the default backend when no postgres URL is configured.
package sqlite

import (
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
)

type GoalRecord struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"not null;default:''"`
	Progress    int        `gorm:"not null;default:0"`
	Status      string     `gorm:"not null;default:'active'"` // active, completed, paused
	DueDate     *time.Time `gorm:"index"`
	Category    string     `gorm:"not null;default:''"`
	CreatedAt   time.Time  `gorm:"index"`
}

func (GoalRecord) TableName() string { return "goals" }

// EntryRecord rows are read back in rowid order, which is insertion order.
type EntryRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EntryDate time.Time  `gorm:"index;not null"`
	GoalID    *uuid.UUID `gorm:"type:uuid;index"`
	GoalRef   string     `gorm:"not null;default:''"`
	Hours     float64    `gorm:"not null"`
	Notes     string     `gorm:"not null;default:''"`
}

func (EntryRecord) TableName() string { return "progress_entries" }

type EventRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title     string     `gorm:"not null"`
	StartsAt  time.Time  `gorm:"index;not null"`
	EndsAt    time.Time  `gorm:"not null"`
	EventType string     `gorm:"not null"` // study, meeting, deadline
	GoalID    *uuid.UUID `gorm:"type:uuid"`
	GoalRef   string     `gorm:"not null;default:''"`
	Notes     string     `gorm:"not null;default:''"`
}

func (EventRecord) TableName() string { return "calendar_events" }

type BadgeRecord struct {
	ID           string `gorm:"primaryKey"`
	Position     int    `gorm:"not null"`
	Title        string `gorm:"not null"`
	Description  string
	Unlocked     bool `gorm:"default:false"`
	Progress     *int
	Requirement  string
	UnlockedDate *time.Time
}

func (BadgeRecord) TableName() string { return "badges" }

// ══════════════════════════════════════════════════════════════════════════════
// MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func idOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func goalToRecord(g goal.Goal) GoalRecord {
	return GoalRecord{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Progress:    g.Progress,
		Status:      string(g.Status),
		DueDate:     optionalTime(g.DueDate),
		Category:    g.Category,
		CreatedAt:   g.CreatedAt,
	}
}

func (r GoalRecord) toDomain() goal.Goal {
	g := goal.Goal{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Progress:    r.Progress,
		Status:      goal.Status(r.Status),
		Category:    r.Category,
		CreatedAt:   r.CreatedAt,
	}
	if r.DueDate != nil {
		g.DueDate = *r.DueDate
	}
	return g
}

func entryToRecord(e progress.Entry) EntryRecord {
	return EntryRecord{
		ID:        e.ID,
		EntryDate: e.Date,
		GoalID:    optionalID(e.GoalID),
		GoalRef:   e.GoalRef,
		Hours:     e.Hours,
		Notes:     e.Notes,
	}
}

func (r EntryRecord) toDomain() progress.Entry {
	return progress.Entry{
		ID:      r.ID,
		Date:    r.EntryDate,
		GoalID:  idOrNil(r.GoalID),
		GoalRef: r.GoalRef,
		Hours:   r.Hours,
		Notes:   r.Notes,
	}
}

func eventToRecord(e calendar.Event) EventRecord {
	return EventRecord{
		ID:        e.ID,
		Title:     e.Title,
		StartsAt:  e.Start,
		EndsAt:    e.End,
		EventType: string(e.Type),
		GoalID:    optionalID(e.GoalID),
		GoalRef:   e.GoalRef,
		Notes:     e.Notes,
	}
}

func (r EventRecord) toDomain() calendar.Event {
	return calendar.Event{
		ID:      r.ID,
		Title:   r.Title,
		Start:   r.StartsAt,
		End:     r.EndsAt,
		Type:    calendar.Type(r.EventType),
		GoalID:  idOrNil(r.GoalID),
		GoalRef: r.GoalRef,
		Notes:   r.Notes,
	}
}

func badgesToRecords(badges []badge.Badge) []BadgeRecord {
	records := make([]BadgeRecord, 0, len(badges))
	for i, b := range badges {
		c := b.Clone()
		records = append(records, BadgeRecord{
			ID:           c.ID,
			Position:     i,
			Title:        c.Title,
			Description:  c.Description,
			Unlocked:     c.Unlocked,
			Progress:     c.Progress,
			Requirement:  c.Requirement,
			UnlockedDate: c.UnlockedDate,
		})
	}
	return records
}

func (r BadgeRecord) toDomain() badge.Badge {
	return badge.Badge{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Unlocked:     r.Unlocked,
		Progress:     r.Progress,
		Requirement:  r.Requirement,
		UnlockedDate: r.UnlockedDate,
	}
}
