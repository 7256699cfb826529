// Package store holds the learner's goals, progress entries, calendar events
// and badges in memory. It owns no derived data: analytics and badge
// evaluation read Snapshots taken from it.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
)

// Store is the single owner of the four collections. Insertion order is
// preserved. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	goals   []goal.Goal
	entries []progress.Entry
	events  []calendar.Event
	badges  []badge.Badge
}

// New creates a store seeded with initial. The seed is copied.
func New(initial Snapshot) *Store {
	seed := initial.Clone()
	return &Store{
		goals:   seed.Goals,
		entries: seed.Entries,
		events:  seed.Events,
		badges:  seed.Badges,
	}
}

// Snapshot returns a deep copy of every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Goals:   s.goals,
		Entries: s.entries,
		Events:  s.events,
		Badges:  s.badges,
	}.Clone()
}

// ══════════════════════════════════════════════════════════════════════════════
// GOALS
// ══════════════════════════════════════════════════════════════════════════════

// Goal returns the goal with the given ID.
func (s *Store) Goal(id uuid.UUID) (goal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.goalIndex(id); i >= 0 {
		return s.goals[i], nil
	}
	return goal.Goal{}, shared.ErrGoalNotFound
}

// Goals returns a copy of all goals.
func (s *Store) Goals() []goal.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]goal.Goal(nil), s.goals...)
}

// AddGoal appends a new goal.
func (s *Store) AddGoal(g goal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.goalIndex(g.ID) >= 0 {
		return shared.ErrGoalAlreadyExists
	}
	s.goals = append(s.goals, g)
	return nil
}

// UpdateGoal replaces the stored goal with the same ID.
func (s *Store) UpdateGoal(g goal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.goalIndex(g.ID)
	if i < 0 {
		return shared.ErrGoalNotFound
	}
	s.goals[i] = g
	return nil
}

// DeleteGoal removes a goal and returns it. Entries and events that
// reference it keep their captured label.
func (s *Store) DeleteGoal(id uuid.UUID) (goal.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.goalIndex(id)
	if i < 0 {
		return goal.Goal{}, shared.ErrGoalNotFound
	}
	removed := s.goals[i]
	s.goals = append(s.goals[:i:i], s.goals[i+1:]...)
	return removed, nil
}

func (s *Store) goalIndex(id uuid.UUID) int {
	for i := range s.goals {
		if s.goals[i].ID == id {
			return i
		}
	}
	return -1
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

// Entries returns a copy of all progress entries.
func (s *Store) Entries() []progress.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]progress.Entry(nil), s.entries...)
}

// AddEntry appends a progress entry.
func (s *Store) AddEntry(e progress.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == e.ID {
			return shared.ErrEntryAlreadyExists
		}
	}
	s.entries = append(s.entries, e)
	return nil
}

// DeleteEntry removes a progress entry and returns it.
func (s *Store) DeleteEntry(id uuid.UUID) (progress.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			removed := s.entries[i]
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return removed, nil
		}
	}
	return progress.Entry{}, shared.ErrEntryNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// Events returns a copy of all calendar events.
func (s *Store) Events() []calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]calendar.Event(nil), s.events...)
}

// AddEvent appends a calendar event without placement checks.
func (s *Store) AddEvent(e calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEventLocked(e)
}

// ScheduleEvent validates the candidate against the stored events and
// inserts it. Check and insert happen under one lock.
func (s *Store) ScheduleEvent(candidate calendar.Event) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	validated, err := calendar.Validate(candidate, s.events)
	if err != nil {
		return calendar.Event{}, err
	}
	if err := s.addEventLocked(validated); err != nil {
		return calendar.Event{}, err
	}
	return validated, nil
}

func (s *Store) addEventLocked(e calendar.Event) error {
	for i := range s.events {
		if s.events[i].ID == e.ID {
			return shared.ErrEventAlreadyExists
		}
	}
	s.events = append(s.events, e)
	return nil
}

// DeleteEvent removes a calendar event and returns it.
func (s *Store) DeleteEvent(id uuid.UUID) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == id {
			removed := s.events[i]
			s.events = append(s.events[:i:i], s.events[i+1:]...)
			return removed, nil
		}
	}
	return calendar.Event{}, shared.ErrEventNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// Badges returns a copy of the badge collection.
func (s *Store) Badges() []badge.Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return badge.CloneAll(s.badges)
}

// ReplaceBadges swaps in a freshly evaluated badge collection.
func (s *Store) ReplaceBadges(badges []badge.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = badge.CloneAll(badges)
}
