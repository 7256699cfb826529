package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", shared.ErrInvalidID, value)
	}
	return id, nil
}

// parseOptionalID accepts an empty value as "no id".
func parseOptionalID(value string) (uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return uuid.Nil, nil
	}
	return parseID(value)
}

// parseDay reads YYYY-MM-DD in the zone. Empty means zero time.
func parseDay(zone timeutil.Zone, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := zone.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}

// parseDateTime reads "YYYY-MM-DD HH:MM" in the zone.
func parseDateTime(zone timeutil.Zone, value string) (time.Time, error) {
	t, err := zone.ParseDateTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want \"YYYY-MM-DD HH:MM\"", value)
	}
	return t, nil
}

func parseStatus(value string) (*goal.Status, error) {
	if value == "" {
		return nil, nil
	}
	s := goal.Status(strings.ToLower(value))
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid status %q", value)
	}
	return &s, nil
}

func parseEventType(value string) (calendar.Type, error) {
	t := calendar.Type(strings.ToLower(value))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid event type %q", value)
	}
	return t, nil
}
