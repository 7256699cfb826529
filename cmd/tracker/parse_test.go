package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylog/learning-tracker/config"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

func TestParseID(t *testing.T) {
	id := uuid.New()

	got, err := parseID(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseID("nope")
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	got, err = parseOptionalID("")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)
}

func TestParseDayAndTime(t *testing.T) {
	zone, err := timeutil.NewZone("Europe/Berlin")
	require.NoError(t, err)

	d, err := parseDay(zone, "2024-12-22")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 21, 23, 0, 0, 0, time.UTC), d.UTC())

	d, err = parseDay(zone, "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDay(zone, "22.12.2024")
	assert.Error(t, err)

	at, err := parseDateTime(zone, "2024-07-01 14:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 12, 30, 0, 0, time.UTC), at.UTC())

	_, err = parseDateTime(zone, "2024-07-01")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	s, err := parseStatus("Completed")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, goal.StatusCompleted, *s)

	s, err = parseStatus("")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = parseStatus("archived")
	assert.Error(t, err)
}

func TestParseEventType(t *testing.T) {
	kind, err := parseEventType("deadline")
	require.NoError(t, err)
	assert.Equal(t, calendar.TypeDeadline, kind)

	_, err = parseEventType("party")
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", slogLevel("debug").String())
	assert.Equal(t, "WARN", slogLevel("warn").String())
	assert.Equal(t, "INFO", slogLevel("loud").String())
}

func TestNewScheduler_RegistersBothJobs(t *testing.T) {
	cfg := config.FromEnv()
	cfg.Scheduler.RolloverTime = "00:05"
	cfg.Scheduler.RefreshInterval = time.Minute

	app := &application{cfg: cfg, log: setupLogger(cfg), zone: timeutil.UTC}
	sched, err := app.newScheduler()
	require.NoError(t, err)

	names := []string{}
	for _, info := range sched.ListJobs() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{jobDailyRollover, jobRefreshBadges}, names)

	cfg.Scheduler.RolloverTime = "25:00"
	_, err = app.newScheduler()
	assert.Error(t, err)
}
