// Package command contains write operations (CQRS - Commands).
//
// Every handler follows the same flow: validate, write the in-memory store,
// write through to the optional repository, then publish domain events.
// A failed repository write undoes the store write so both stay in step.
package command

import (
	"context"
	"time"

	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/logger"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

// Dependencies are the collaborators shared by all command handlers.
type Dependencies struct {
	// Store is the single source of truth. Required.
	Store *store.Store

	// Repository persists writes. Nil means memory only.
	Repository store.Repository

	// Publisher receives domain events. Nil disables publishing.
	Publisher shared.EventPublisher

	// Logger defaults to a no-op logger.
	Logger *logger.Logger

	// Zone is the learner's calendar. Zero value means UTC.
	Zone timeutil.Zone

	// Clock supplies "now" when a command does not carry one.
	Clock func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// now returns at, or the dependency clock when at is zero.
func (d Dependencies) now(at time.Time) time.Time {
	if at.IsZero() {
		return d.Clock()
	}
	return at
}

// persist runs fn against the repository when one is configured.
func (d Dependencies) persist(ctx context.Context, fn func(store.Repository) error) error {
	if d.Repository == nil {
		return nil
	}
	return fn(d.Repository)
}

// publish sends events, logging and dropping failures. Event delivery never
// fails a command that already committed.
func (d Dependencies) publish(log *logger.Logger, events ...shared.Event) {
	if d.Publisher == nil {
		return
	}
	for _, event := range events {
		if err := d.Publisher.Publish(event); err != nil {
			log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}
}

// logFor returns the handler logger tagged with operation and correlation.
func (d Dependencies) logFor(op, correlationID string) *logger.Logger {
	log := d.Logger.With(logger.Component("command"), logger.Operation(op))
	if correlationID != "" {
		log = log.WithCorrelationID(correlationID)
	}
	return log
}

// refresh re-evaluates badges after a write that may change metrics. A
// failure is logged: the triggering write has already been committed.
func refresh(ctx context.Context, r *RefreshBadgesHandler, log *logger.Logger, at time.Time, correlationID string) {
	if r == nil {
		return
	}
	if _, err := r.Handle(ctx, RefreshBadgesCommand{Now: at, CorrelationID: correlationID}); err != nil {
		log.Error("badge refresh failed", logger.Err(err))
	}
}
