package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
)

var now = time.Date(2024, 12, 22, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) Snapshot {
	t.Helper()
	g, err := goal.New(goal.NewGoalParams{Title: "React Patterns", Category: "Programming"}, now)
	require.NoError(t, err)
	e, err := progress.NewEntry(progress.NewEntryParams{Date: now, GoalID: g.ID, GoalRef: g.Title, Hours: 2})
	require.NoError(t, err)

	p := 3
	return Snapshot{
		Goals:   []goal.Goal{*g},
		Entries: []progress.Entry{e},
		Badges:  []badge.Badge{{ID: "week-warrior", Progress: &p}},
	}
}

func TestNew_CopiesSeed(t *testing.T) {
	initial := seed(t)
	s := New(initial)

	initial.Goals[0].Title = "mutated"
	*initial.Badges[0].Progress = 99

	snap := s.Snapshot()
	assert.Equal(t, "React Patterns", snap.Goals[0].Title)
	assert.Equal(t, 3, snap.Badges[0].ProgressValue())
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	s := New(seed(t))
	before := s.Snapshot()

	g, err := goal.New(goal.NewGoalParams{Title: "Spanish"}, now)
	require.NoError(t, err)
	require.NoError(t, s.AddGoal(*g))

	before.Goals[0].Progress = 50
	assert.Len(t, before.Goals, 1)
	assert.Len(t, s.Goals(), 2)

	stored, err := s.Goal(before.Goals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Progress)
}

func TestGoals_CRUD(t *testing.T) {
	s := New(Snapshot{})

	g, err := goal.New(goal.NewGoalParams{Title: "Algorithms"}, now)
	require.NoError(t, err)
	require.NoError(t, s.AddGoal(*g))
	assert.ErrorIs(t, s.AddGoal(*g), shared.ErrAlreadyExists)

	g.Progress = 40
	require.NoError(t, s.UpdateGoal(*g))
	got, err := s.Goal(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)

	removed, err := s.DeleteGoal(g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, removed.ID)

	_, err = s.Goal(g.ID)
	assert.True(t, shared.IsNotFound(err))
	assert.ErrorIs(t, s.UpdateGoal(*g), shared.ErrGoalNotFound)
	_, err = s.DeleteGoal(g.ID)
	assert.ErrorIs(t, err, shared.ErrGoalNotFound)
}

func TestDeleteGoal_KeepsEntries(t *testing.T) {
	initial := seed(t)
	s := New(initial)

	_, err := s.DeleteGoal(initial.Goals[0].ID)
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "React Patterns", entries[0].GoalRef)
}

func TestEntries(t *testing.T) {
	s := New(seed(t))
	e := s.Entries()[0]

	assert.ErrorIs(t, s.AddEntry(e), shared.ErrEntryAlreadyExists)

	_, err := s.DeleteEntry(e.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Entries())

	_, err = s.DeleteEntry(e.ID)
	assert.ErrorIs(t, err, shared.ErrEntryNotFound)
}

func TestScheduleEvent(t *testing.T) {
	s := New(Snapshot{})
	at := func(h int) time.Time { return time.Date(2024, 12, 22, h, 0, 0, 0, time.UTC) }

	first, err := calendar.NewEvent(calendar.NewEventParams{Title: "React", Type: calendar.TypeStudy, Start: at(14), End: at(16)})
	require.NoError(t, err)
	_, err = s.ScheduleEvent(first)
	require.NoError(t, err)

	overlapping, err := calendar.NewEvent(calendar.NewEventParams{Title: "ML", Type: calendar.TypeStudy, Start: at(15), End: at(17)})
	require.NoError(t, err)
	_, err = s.ScheduleEvent(overlapping)
	assert.ErrorIs(t, err, shared.ErrSchedulingConflict)
	assert.Len(t, s.Events(), 1, "rejected events are not stored")

	_, err = s.ScheduleEvent(first)
	assert.ErrorIs(t, err, shared.ErrEventAlreadyExists)

	_, err = s.DeleteEvent(first.ID)
	require.NoError(t, err)
	_, err = s.DeleteEvent(first.ID)
	assert.ErrorIs(t, err, shared.ErrEventNotFound)
}

func TestScheduleEvent_Concurrent(t *testing.T) {
	s := New(Snapshot{})
	start := time.Date(2024, 12, 22, 14, 0, 0, 0, time.UTC)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, _ := calendar.NewEvent(calendar.NewEventParams{Title: "Study", Type: calendar.TypeStudy, Start: start, End: start.Add(time.Hour)})
			if _, err := s.ScheduleEvent(e); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}

func TestReplaceBadges(t *testing.T) {
	s := New(Snapshot{})
	unlockedAt := now
	badges := []badge.Badge{{ID: "first-steps", Unlocked: true, UnlockedDate: &unlockedAt}}

	s.ReplaceBadges(badges)
	*badges[0].UnlockedDate = now.Add(time.Hour)

	got := s.Badges()
	require.Len(t, got, 1)
	assert.Equal(t, now, *got[0].UnlockedDate)
}

func TestFingerprint(t *testing.T) {
	snap := seed(t)

	a, err := snap.Fingerprint()
	require.NoError(t, err)
	b, err := snap.Clone().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	snap.Entries[0].Hours = 3
	c, err := snap.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

type stubRepository struct {
	Repository
	snap Snapshot
	err  error
}

func (r stubRepository) LoadSnapshot(context.Context) (Snapshot, error) {
	return r.snap, r.err
}

func TestLoad(t *testing.T) {
	snap := seed(t)

	s, err := Load(context.Background(), stubRepository{snap: snap})
	require.NoError(t, err)
	assert.Len(t, s.Goals(), 1)
	assert.False(t, s.Snapshot().IsEmpty())

	_, err = Load(context.Background(), stubRepository{err: errors.New("connection refused")})
	assert.ErrorContains(t, err, "connection refused")
}
