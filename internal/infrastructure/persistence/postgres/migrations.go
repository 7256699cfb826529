package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_goals", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_progress_entries", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_calendar_events", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_badges", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE GOALS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS goals (
    id UUID PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    progress INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    due_date TIMESTAMP WITH TIME ZONE,
    category VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_goal_status CHECK (status IN ('active', 'completed', 'paused')),
    CONSTRAINT valid_goal_progress CHECK (progress >= 0 AND progress <= 100)
);

CREATE INDEX IF NOT EXISTS idx_goals_created_at ON goals(created_at);
CREATE INDEX IF NOT EXISTS idx_goals_due_date ON goals(due_date) WHERE due_date IS NOT NULL;
`

const migration001Down = `
DROP TABLE IF EXISTS goals;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE PROGRESS ENTRIES
// Записи не ссылаются на goals внешним ключом: после удаления цели они
// остаются под сохранённой меткой goal_ref.
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS progress_entries (
    id UUID PRIMARY KEY,
    entry_date TIMESTAMP WITH TIME ZONE NOT NULL,
    goal_id UUID,
    goal_ref VARCHAR(200) NOT NULL DEFAULT '',
    hours DOUBLE PRECISION NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    seq BIGSERIAL,

    CONSTRAINT valid_entry_hours CHECK (hours >= 0),
    CONSTRAINT entry_has_goal CHECK (goal_id IS NOT NULL OR goal_ref <> '')
);

CREATE INDEX IF NOT EXISTS idx_progress_entries_date ON progress_entries(entry_date);
CREATE INDEX IF NOT EXISTS idx_progress_entries_goal ON progress_entries(goal_id);
`

const migration002Down = `
DROP TABLE IF EXISTS progress_entries;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CALENDAR EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS calendar_events (
    id UUID PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
    ends_at TIMESTAMP WITH TIME ZONE NOT NULL,
    event_type VARCHAR(20) NOT NULL,
    goal_id UUID,
    goal_ref VARCHAR(200) NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',

    CONSTRAINT valid_event_type CHECK (event_type IN ('study', 'meeting', 'deadline')),
    CONSTRAINT valid_event_range CHECK (ends_at > starts_at)
);

CREATE INDEX IF NOT EXISTS idx_calendar_events_starts_at ON calendar_events(starts_at);
`

const migration003Down = `
DROP TABLE IF EXISTS calendar_events;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS badges (
    id VARCHAR(50) PRIMARY KEY,
    position INTEGER NOT NULL,
    title VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    unlocked BOOLEAN NOT NULL DEFAULT FALSE,
    progress INTEGER,
    requirement VARCHAR(100) NOT NULL DEFAULT '',
    unlocked_date TIMESTAMP WITH TIME ZONE
);
`

const migration004Down = `
DROP TABLE IF EXISTS badges;
`
