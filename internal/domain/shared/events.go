package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to the learner's tracked data.
const (
	// Goal events
	EventGoalCreated EventType = "goal.created"
	EventGoalUpdated EventType = "goal.updated"
	EventGoalDeleted EventType = "goal.deleted"

	// Progress events
	EventProgressLogged  EventType = "progress.logged"
	EventProgressDeleted EventType = "progress.deleted"

	// Calendar events
	EventSessionScheduled EventType = "calendar.scheduled"
	EventSessionDeleted   EventType = "calendar.deleted"

	// Achievement events
	EventBadgeUnlocked EventType = "badge.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped with the given instant.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Goal Events
// ═══════════════════════════════════════════════════════════════════════════

// GoalCreatedEvent is emitted when a learner adds a goal.
type GoalCreatedEvent struct {
	BaseEvent
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Payload implements Event interface.
func (e GoalCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title":    e.Title,
		"category": e.Category,
	}
}

// NewGoalCreatedEvent creates a new GoalCreatedEvent.
func NewGoalCreatedEvent(goalID, title, category string, at time.Time) GoalCreatedEvent {
	return GoalCreatedEvent{
		BaseEvent: NewBaseEvent(EventGoalCreated, goalID, at),
		Title:     title,
		Category:  category,
	}
}

// GoalUpdatedEvent is emitted when a goal's progress or status changes.
type GoalUpdatedEvent struct {
	BaseEvent
	OldProgress int    `json:"old_progress"`
	NewProgress int    `json:"new_progress"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// Payload implements Event interface.
func (e GoalUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_progress": e.OldProgress,
		"new_progress": e.NewProgress,
		"old_status":   e.OldStatus,
		"new_status":   e.NewStatus,
	}
}

// Completed reports whether this update moved the goal into completed.
func (e GoalUpdatedEvent) Completed() bool {
	return e.NewStatus == "completed" && e.OldStatus != "completed"
}

// NewGoalUpdatedEvent creates a new GoalUpdatedEvent.
func NewGoalUpdatedEvent(goalID string, oldProgress, newProgress int, oldStatus, newStatus string, at time.Time) GoalUpdatedEvent {
	return GoalUpdatedEvent{
		BaseEvent:   NewBaseEvent(EventGoalUpdated, goalID, at),
		OldProgress: oldProgress,
		NewProgress: newProgress,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	}
}

// GoalDeletedEvent is emitted when a goal is removed.
type GoalDeletedEvent struct {
	BaseEvent
	Title string `json:"title"`
}

// Payload implements Event interface.
func (e GoalDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title": e.Title,
	}
}

// NewGoalDeletedEvent creates a new GoalDeletedEvent.
func NewGoalDeletedEvent(goalID, title string, at time.Time) GoalDeletedEvent {
	return GoalDeletedEvent{
		BaseEvent: NewBaseEvent(EventGoalDeleted, goalID, at),
		Title:     title,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// ProgressLoggedEvent is emitted when a learner logs study time.
type ProgressLoggedEvent struct {
	BaseEvent
	GoalID string  `json:"goal_id,omitempty"`
	Day    string  `json:"day"`
	Hours  float64 `json:"hours"`
}

// Payload implements Event interface.
func (e ProgressLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"goal_id": e.GoalID,
		"day":     e.Day,
		"hours":   e.Hours,
	}
}

// NewProgressLoggedEvent creates a new ProgressLoggedEvent.
func NewProgressLoggedEvent(entryID, goalID, day string, hours float64, at time.Time) ProgressLoggedEvent {
	return ProgressLoggedEvent{
		BaseEvent: NewBaseEvent(EventProgressLogged, entryID, at),
		GoalID:    goalID,
		Day:       day,
		Hours:     hours,
	}
}

// ProgressDeletedEvent is emitted when a progress entry is removed.
type ProgressDeletedEvent struct {
	BaseEvent
	Hours float64 `json:"hours"`
}

// Payload implements Event interface.
func (e ProgressDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"hours": e.Hours,
	}
}

// NewProgressDeletedEvent creates a new ProgressDeletedEvent.
func NewProgressDeletedEvent(entryID string, hours float64, at time.Time) ProgressDeletedEvent {
	return ProgressDeletedEvent{
		BaseEvent: NewBaseEvent(EventProgressDeleted, entryID, at),
		Hours:     hours,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionScheduledEvent is emitted when a calendar event passes validation
// and is stored.
type SessionScheduledEvent struct {
	BaseEvent
	Title string    `json:"title"`
	Kind  string    `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Payload implements Event interface.
func (e SessionScheduledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title": e.Title,
		"kind":  e.Kind,
		"start": e.Start.Format(time.RFC3339),
		"end":   e.End.Format(time.RFC3339),
	}
}

// NewSessionScheduledEvent creates a new SessionScheduledEvent.
func NewSessionScheduledEvent(eventID, title, kind string, start, end, at time.Time) SessionScheduledEvent {
	return SessionScheduledEvent{
		BaseEvent: NewBaseEvent(EventSessionScheduled, eventID, at),
		Title:     title,
		Kind:      kind,
		Start:     start,
		End:       end,
	}
}

// SessionDeletedEvent is emitted when a calendar event is removed.
type SessionDeletedEvent struct {
	BaseEvent
	Title string `json:"title"`
}

// Payload implements Event interface.
func (e SessionDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title": e.Title,
	}
}

// NewSessionDeletedEvent creates a new SessionDeletedEvent.
func NewSessionDeletedEvent(eventID, title string, at time.Time) SessionDeletedEvent {
	return SessionDeletedEvent{
		BaseEvent: NewBaseEvent(EventSessionDeleted, eventID, at),
		Title:     title,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeUnlockedEvent is emitted the first time a badge transitions to unlocked.
type BadgeUnlockedEvent struct {
	BaseEvent
	Title       string `json:"title"`
	Requirement string `json:"requirement,omitempty"`
}

// Payload implements Event interface.
func (e BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title":       e.Title,
		"requirement": e.Requirement,
	}
}

// NewBadgeUnlockedEvent creates a new BadgeUnlockedEvent.
func NewBadgeUnlockedEvent(badgeID, title, requirement string, at time.Time) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{
		BaseEvent:   NewBaseEvent(EventBadgeUnlocked, badgeID, at),
		Title:       title,
		Requirement: requirement,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Envelope serializes an event into its transport form.
func Envelope(event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	env := EventEnvelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Payload:     payload,
	}
	if b, ok := event.(interface{ Correlation() string }); ok {
		env.CorrelationID = b.Correlation()
	}
	return env, nil
}

// Correlation returns the correlation ID carried by the event.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
