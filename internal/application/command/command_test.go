package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

var now = time.Date(2024, 12, 22, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(event shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) ofType(t shared.EventType) []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shared.Event
	for _, e := range r.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// failingRepository rejects every write.
type failingRepository struct {
	store.Repository
}

var errDiskFull = errors.New("disk full")

func (failingRepository) SaveGoal(context.Context, goal.Goal) error { return errDiskFull }
func (failingRepository) SaveEntry(context.Context, progress.Entry) error { return errDiskFull }
func (failingRepository) SaveEvent(context.Context, calendar.Event) error { return errDiskFull }
func (failingRepository) DeleteGoal(context.Context, uuid.UUID) error { return errDiskFull }
func (failingRepository) SaveBadges(context.Context, []badge.Badge) error { return errDiskFull }
func (failingRepository) DeleteEntry(context.Context, uuid.UUID) error { return errDiskFull }
func (failingRepository) DeleteEvent(context.Context, uuid.UUID) error { return errDiskFull }

func newDeps(pub *recorder) Dependencies {
	return Dependencies{
		Store:     store.New(store.Snapshot{}),
		Publisher: pub,
		Zone:      timeutil.UTC,
		Clock:     func() time.Time { return now },
	}
}

func createGoal(t *testing.T, deps Dependencies, title string) goal.Goal {
	t.Helper()
	res, err := NewCreateGoalHandler(deps).Handle(context.Background(), CreateGoalCommand{Title: title, Category: "Programming"})
	require.NoError(t, err)
	return res.Goal
}

func TestCreateGoal(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)

	g := createGoal(t, deps, "  React Patterns ")
	assert.Equal(t, "React Patterns", g.Title)
	assert.Equal(t, goal.StatusActive, g.Status)
	assert.Equal(t, now, g.CreatedAt)
	assert.Len(t, deps.Store.Goals(), 1)
	assert.Len(t, pub.ofType(shared.EventGoalCreated), 1)

	_, err := NewCreateGoalHandler(deps).Handle(context.Background(), CreateGoalCommand{Title: " "})
	assert.True(t, shared.IsValidation(err))
}

func TestCreateGoal_RepositoryFailureRollsBack(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	deps.Repository = failingRepository{}

	_, err := NewCreateGoalHandler(deps).Handle(context.Background(), CreateGoalCommand{Title: "Spanish"})
	assert.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, deps.Store.Goals())
	assert.Empty(t, pub.events)
}

func TestUpdateGoal_CompletionUnlocksBadgeOnce(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	badges := NewRefreshBadgesHandler(deps, nil)
	update := NewUpdateGoalHandler(deps, badges)

	g := createGoal(t, deps, "Algorithms")

	done := goal.StatusCompleted
	full := 100
	res, err := update.Handle(context.Background(), UpdateGoalCommand{GoalID: g.ID, Progress: &full, Status: &done})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 0, res.Previous.Progress)

	unlocked := pub.ofType(shared.EventBadgeUnlocked)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-steps", unlocked[0].AggregateID())

	again := 90
	_, err = update.Handle(context.Background(), UpdateGoalCommand{GoalID: g.ID, Progress: &again})
	require.NoError(t, err)
	assert.Len(t, pub.ofType(shared.EventBadgeUnlocked), 1)

	stored := deps.Store.Badges()
	require.Len(t, stored, len(badge.DefaultRules()))
	assert.True(t, stored[0].Unlocked)
	assert.Equal(t, now, *stored[0].UnlockedDate)
}

func TestUpdateGoal_Validation(t *testing.T) {
	deps := newDeps(&recorder{})
	update := NewUpdateGoalHandler(deps, nil)
	g := createGoal(t, deps, "Algorithms")

	_, err := update.Handle(context.Background(), UpdateGoalCommand{GoalID: g.ID})
	assert.Error(t, err)

	tooMuch := 101
	_, err = update.Handle(context.Background(), UpdateGoalCommand{GoalID: g.ID, Progress: &tooMuch})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	bogus := goal.Status("archived")
	_, err = update.Handle(context.Background(), UpdateGoalCommand{GoalID: g.ID, Status: &bogus})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = update.Handle(context.Background(), UpdateGoalCommand{GoalID: uuid.New(), Progress: &tooMuch})
	assert.True(t, shared.IsNotFound(err))
}

func TestDeleteGoal_KeepsEntriesUnderCapturedLabel(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	g := createGoal(t, deps, "Machine Learning")

	_, err := NewLogProgressHandler(deps, nil).Handle(context.Background(), LogProgressCommand{GoalID: g.ID, Hours: 2})
	require.NoError(t, err)

	removed, err := NewDeleteGoalHandler(deps, nil).Handle(context.Background(), DeleteGoalCommand{GoalID: g.ID})
	require.NoError(t, err)
	assert.Equal(t, g.ID, removed.ID)
	assert.Len(t, pub.ofType(shared.EventGoalDeleted), 1)

	entries := deps.Store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Machine Learning", entries[0].GoalRef)
}

func TestLogProgress(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	badges := NewRefreshBadgesHandler(deps, nil)
	logProgress := NewLogProgressHandler(deps, badges)
	g := createGoal(t, deps, "Spanish")

	res, err := logProgress.Handle(context.Background(), LogProgressCommand{GoalID: g.ID, Hours: 50})
	require.NoError(t, err)
	assert.Equal(t, "Spanish", res.Entry.GoalRef)
	assert.Equal(t, timeutil.UTC.StartOfDay(now), res.Entry.Date)

	logged := pub.ofType(shared.EventProgressLogged)
	require.Len(t, logged, 1)
	assert.Equal(t, "2024-12-22", logged[0].Payload()["day"])

	unlocked := pub.ofType(shared.EventBadgeUnlocked)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "time-master", unlocked[0].AggregateID())

	_, err = logProgress.Handle(context.Background(), LogProgressCommand{GoalID: g.ID, Hours: -1})
	assert.ErrorIs(t, err, shared.ErrNegativeValue)

	_, err = logProgress.Handle(context.Background(), LogProgressCommand{GoalID: uuid.New(), Hours: 1})
	assert.ErrorIs(t, err, shared.ErrGoalNotFound)

	_, err = logProgress.Handle(context.Background(), LogProgressCommand{Hours: 1})
	assert.ErrorIs(t, err, shared.ErrEntryGoalRequired)

	legacy, err := logProgress.Handle(context.Background(), LogProgressCommand{GoalRef: "Piano", Hours: 1})
	require.NoError(t, err)
	assert.False(t, legacy.Entry.HasGoalID())
}

func TestDeleteProgress_KeepsUnlockedBadges(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	badges := NewRefreshBadgesHandler(deps, nil)
	g := createGoal(t, deps, "Spanish")

	res, err := NewLogProgressHandler(deps, badges).Handle(context.Background(), LogProgressCommand{GoalID: g.ID, Hours: 60})
	require.NoError(t, err)

	_, err = NewDeleteProgressHandler(deps, badges).Handle(context.Background(), DeleteProgressCommand{EntryID: res.Entry.ID})
	require.NoError(t, err)
	assert.Empty(t, deps.Store.Entries())

	unlocked := badge.Unlocked(deps.Store.Badges())
	require.Len(t, unlocked, 1)
	assert.Equal(t, "time-master", unlocked[0].ID)

	_, err = NewDeleteProgressHandler(deps, badges).Handle(context.Background(), DeleteProgressCommand{EntryID: res.Entry.ID})
	assert.ErrorIs(t, err, shared.ErrEntryNotFound)
}

func TestScheduleEvent_ConflictRejected(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	schedule := NewScheduleEventHandler(deps)
	at := func(h int) time.Time { return time.Date(2024, 12, 22, h, 0, 0, 0, time.UTC) }

	first, err := schedule.Handle(context.Background(), ScheduleEventCommand{
		Title: "React Study Session", Type: calendar.TypeStudy, Start: at(14), End: at(16),
	})
	require.NoError(t, err)

	_, err = schedule.Handle(context.Background(), ScheduleEventCommand{
		Title: "ML Study", Type: calendar.TypeStudy, Start: at(15), End: at(17),
	})
	require.Error(t, err)
	assert.True(t, shared.IsSchedulingConflict(err))

	var conflict *calendar.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.Event.ID, conflict.EventID)

	_, err = schedule.Handle(context.Background(), ScheduleEventCommand{
		Title: "Project Deadline", Type: calendar.TypeDeadline, Start: at(15), End: at(16),
	})
	require.NoError(t, err)

	_, err = schedule.Handle(context.Background(), ScheduleEventCommand{
		Title: "Backwards", Type: calendar.TypeMeeting, Start: at(18), End: at(18),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidRange)

	assert.Len(t, deps.Store.Events(), 2)
	assert.Len(t, pub.ofType(shared.EventSessionScheduled), 2)
}

func TestScheduleEvent_RepositoryFailureRollsBack(t *testing.T) {
	deps := newDeps(&recorder{})
	deps.Repository = failingRepository{}

	_, err := NewScheduleEventHandler(deps).Handle(context.Background(), ScheduleEventCommand{
		Title: "Study", Type: calendar.TypeStudy, Start: now, End: now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, deps.Store.Events())
}

func TestDeleteEvent(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)

	res, err := NewScheduleEventHandler(deps).Handle(context.Background(), ScheduleEventCommand{
		Title: "Study", Type: calendar.TypeStudy, Start: now, End: now.Add(time.Hour),
	})
	require.NoError(t, err)

	removed, err := NewDeleteEventHandler(deps).Handle(context.Background(), DeleteEventCommand{EventID: res.Event.ID})
	require.NoError(t, err)
	assert.Equal(t, "Study", removed.Title)
	assert.Len(t, pub.ofType(shared.EventSessionDeleted), 1)

	_, err = NewDeleteEventHandler(deps).Handle(context.Background(), DeleteEventCommand{})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestRefreshBadges_Concurrent(t *testing.T) {
	pub := &recorder{}
	deps := newDeps(pub)
	g := createGoal(t, deps, "Algorithms")
	completed := g
	completed.Status = goal.StatusCompleted
	require.NoError(t, deps.Store.UpdateGoal(completed))

	badges := NewRefreshBadgesHandler(deps, nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = badges.Handle(context.Background(), RefreshBadgesCommand{})
		}()
	}
	wg.Wait()

	assert.Len(t, pub.ofType(shared.EventBadgeUnlocked), 1)
}

func TestRefreshBadges_SaveFailureKeepsStore(t *testing.T) {
	deps := newDeps(&recorder{})
	deps.Repository = failingRepository{}

	_, err := NewRefreshBadgesHandler(deps, nil).Handle(context.Background(), RefreshBadgesCommand{Now: now})
	assert.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, deps.Store.Badges())
}
