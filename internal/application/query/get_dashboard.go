// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studylog/learning-tracker/internal/domain/analytics"
	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
	"github.com/studylog/learning-tracker/internal/domain/shared"
	"github.com/studylog/learning-tracker/internal/store"
	"github.com/studylog/learning-tracker/pkg/logger"
	"github.com/studylog/learning-tracker/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Собирает всё, что показывает главная страница: карточки статистики,
// недельный и месячный графики, распределение времени по целям,
// достижения, ближайшие сессии и последние цели.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultMonths        = 6
	maxMonths            = 24
	defaultUpcomingLimit = 5
	defaultRecentGoals   = 5
)

// GetDashboardQuery содержит параметры запроса.
type GetDashboardQuery struct {
	// Now - момент оценки (пустой = часы обработчика).
	Now time.Time

	// Months - сколько месяцев показывать в месячном графике (по умолчанию 6).
	Months int

	// UpcomingLimit - сколько ближайших событий вернуть (по умолчанию 5).
	UpcomingLimit int

	// RecentGoals - сколько последних целей вернуть (по умолчанию 5).
	RecentGoals int
}

// Validate нормализует параметры.
func (q *GetDashboardQuery) Validate() error {
	if q.Months < 0 || q.UpcomingLimit < 0 || q.RecentGoals < 0 {
		return fmt.Errorf("get_dashboard: limits cannot be negative: %w", shared.ErrNegativeValue)
	}
	if q.Months == 0 {
		q.Months = defaultMonths
	}
	if q.Months > maxMonths {
		q.Months = maxMonths
	}
	if q.UpcomingLimit == 0 {
		q.UpcomingLimit = defaultUpcomingLimit
	}
	if q.RecentGoals == 0 {
		q.RecentGoals = defaultRecentGoals
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// ══════════════════════════════════════════════════════════════════════════════

// DashboardDTO - данные главной страницы.
type DashboardDTO struct {
	GeneratedAt time.Time `json:"generated_at"`
	Day         string    `json:"day"`
	Zone        string    `json:"zone"`

	Stats      analytics.Stats `json:"stats"`
	HoursToday float64         `json:"hours_today"`

	// Weekly - семь дней текущей недели, Пн-Вс, пустые дни с нулём.
	Weekly []SeriesPointDTO `json:"weekly"`

	// Monthly - последние N месяцев включая текущий.
	Monthly []SeriesPointDTO `json:"monthly"`

	Distribution []analytics.Share `json:"distribution"`

	UnlockedBadges []BadgeDTO `json:"unlocked_badges"`
	LockedBadges   []BadgeDTO `json:"locked_badges"`

	Upcoming    []SessionDTO `json:"upcoming"`
	RecentGoals []GoalDTO    `json:"recent_goals"`
}

// SeriesPointDTO - точка графика.
type SeriesPointDTO struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Hours   float64 `json:"hours"`
	Entries int     `json:"entries"`

	// GoalsCompleted - завершённые цели со сроком в этом месяце (только Monthly).
	GoalsCompleted int `json:"goals_completed,omitempty"`
}

// BadgeDTO - достижение.
type BadgeDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirement  string `json:"requirement"`
	Unlocked     bool   `json:"unlocked"`
	Progress     *int   `json:"progress,omitempty"`
	UnlockedDate string `json:"unlocked_date,omitempty"`
}

// SessionDTO - событие календаря.
type SessionDTO struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Goal       string    `json:"goal,omitempty"`
	TimeRange  string    `json:"time_range"`
	InProgress bool      `json:"in_progress"`
}

// GoalDTO - цель с суммой залогированного времени.
type GoalDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category,omitempty"`
	Progress    int       `json:"progress"`
	Status      string    `json:"status"`
	DueDate     string    `json:"due_date,omitempty"`
	Overdue     bool      `json:"overdue"`
	HoursLogged float64   `json:"hours_logged"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE PORT
// ══════════════════════════════════════════════════════════════════════════════

// DashboardCache хранит собранные DTO. Ключ учитывает содержимое данных,
// поэтому явная инвалидация не обязательна.
type DashboardCache interface {
	GetDashboard(ctx context.Context, key string) (*DashboardDTO, error)
	SetDashboard(ctx context.Context, key string, dto *DashboardDTO) error
}

// BadgeRefresher пересчитывает и сохраняет достижения на момент at.
// Дашборд показывает только сохранённые разблокировки, поэтому дата
// открытия не зависит от времени чтения.
type BadgeRefresher func(ctx context.Context, at time.Time) error

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardHandler обрабатывает GetDashboardQuery.
type GetDashboardHandler struct {
	store   *store.Store
	cache   DashboardCache
	refresh BadgeRefresher
	rules   []badge.Rule
	zone    timeutil.Zone
	clock   func() time.Time
	log     *logger.Logger
}

// NewGetDashboardHandler создаёт обработчик. cache и log могут быть nil.
func NewGetDashboardHandler(
	s *store.Store,
	cache DashboardCache,
	zone timeutil.Zone,
	log *logger.Logger,
) *GetDashboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetDashboardHandler{
		store: s,
		cache: cache,
		rules: badge.DefaultRules(),
		zone:  zone,
		clock: time.Now,
		log:   log.With(logger.Component("query"), logger.Operation("GetDashboard")),
	}
}

// WithClock подменяет источник текущего времени.
func (h *GetDashboardHandler) WithClock(clock func() time.Time) *GetDashboardHandler {
	h.clock = clock
	return h
}

// WithBadgeRefresher включает пересчёт достижений перед каждым чтением.
func (h *GetDashboardHandler) WithBadgeRefresher(refresh BadgeRefresher) *GetDashboardHandler {
	h.refresh = refresh
	return h
}

// Handle собирает данные главной страницы.
func (h *GetDashboardHandler) Handle(ctx context.Context, query GetDashboardQuery) (*DashboardDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetDashboard", shared.ErrValidation, err.Error(), err)
	}
	if query.Now.IsZero() {
		query.Now = h.clock()
	}

	if h.refresh != nil {
		if err := h.refresh(ctx, query.Now); err != nil {
			h.log.Warn("badge refresh before dashboard failed", logger.Err(err))
		}
	}

	snap := h.store.Snapshot()

	key, keyErr := h.cacheKey(snap, query)
	if dto := h.tryGetFromCache(ctx, key, keyErr); dto != nil {
		h.overlayLive(dto, snap, query)
		return dto, nil
	}

	dto := h.build(snap, query)

	if h.cache != nil && keyErr == nil {
		if err := h.cache.SetDashboard(ctx, key, dto); err != nil {
			h.log.Warn("dashboard cache write failed", logger.Err(err))
		}
	}

	h.overlayLive(dto, snap, query)
	return dto, nil
}

// CacheKey возвращает ключ кэша для снимка и параметров запроса.
func CacheKey(fingerprint, day string, query GetDashboardQuery) string {
	return fmt.Sprintf("%s:%s:m%d:g%d", fingerprint, day, query.Months, query.RecentGoals)
}

func (h *GetDashboardHandler) cacheKey(snap store.Snapshot, query GetDashboardQuery) (string, error) {
	if h.cache == nil {
		return "", nil
	}
	fp, err := snap.Fingerprint()
	if err != nil {
		return "", err
	}
	return CacheKey(fp, h.zone.DayKey(query.Now), query), nil
}

func (h *GetDashboardHandler) tryGetFromCache(ctx context.Context, key string, keyErr error) *DashboardDTO {
	if h.cache == nil {
		return nil
	}
	if keyErr != nil {
		h.log.Warn("dashboard cache key failed", logger.Err(keyErr))
		return nil
	}
	dto, err := h.cache.GetDashboard(ctx, key)
	if err != nil || dto == nil {
		return nil
	}
	return dto
}

// build считает всё, что зависит только от снимка и календарного дня.
func (h *GetDashboardHandler) build(snap store.Snapshot, query GetDashboardQuery) *DashboardDTO {
	now := query.Now
	zone := h.zone

	stats := analytics.BuildStats(analytics.StatsInput{
		Goals:   snap.Goals,
		Entries: snap.Entries,
		Now:     now,
		Zone:    zone,
	})

	today := shared.DateRange{From: zone.StartOfDay(now), To: zone.EndOfDay(now)}

	badges := badge.Preview(snap.Badges, h.rules, stats.BadgeMetrics())

	return &DashboardDTO{
		GeneratedAt:    now,
		Day:            zone.DayKey(now),
		Zone:           zone.String(),
		Stats:          stats,
		HoursToday:     analytics.HoursInRange(snap.Entries, zone, today),
		Weekly:         h.weeklySeries(snap.Entries, now),
		Monthly:        h.monthlySeries(snap.Goals, snap.Entries, now, query.Months),
		Distribution:   analytics.Distribution(snap.Entries, analytics.GoalLabels(snap.Goals)),
		UnlockedBadges: toBadgeDTOs(badge.Unlocked(badges), zone),
		LockedBadges:   toBadgeDTOs(badge.Locked(badges), zone),
		RecentGoals:    h.recentGoals(snap.Goals, snap.Entries, now, query.RecentGoals),
	}
}

// overlayLive добавляет данные, зависящие от точного времени.
func (h *GetDashboardHandler) overlayLive(dto *DashboardDTO, snap store.Snapshot, query GetDashboardQuery) {
	labels := analytics.GoalLabels(snap.Goals)
	upcoming := calendar.Upcoming(snap.Events, query.Now, query.UpcomingLimit)

	dto.Upcoming = make([]SessionDTO, 0, len(upcoming))
	for _, e := range upcoming {
		s := SessionDTO{
			ID:         e.ID,
			Title:      e.Title,
			Type:       string(e.Type),
			Start:      e.Start,
			End:        e.End,
			TimeRange:  h.zone.Format(e.Start, "15:04") + " - " + h.zone.Format(e.End, "15:04"),
			InProgress: !e.Start.After(query.Now),
		}
		if e.GoalID != uuid.Nil || e.GoalRef != "" {
			s.Goal = labels(e.GoalID, e.GoalRef)
		}
		dto.Upcoming = append(dto.Upcoming, s)
	}
}

func (h *GetDashboardHandler) weeklySeries(entries []progress.Entry, now time.Time) []SeriesPointDTO {
	from := h.zone.StartOfWeek(now)
	to := h.zone.EndOfWeek(now)

	buckets := analytics.Aggregate(entries, analytics.AggregateOptions{
		Zone:        h.zone,
		Granularity: timeutil.Day,
		Range:       &shared.DateRange{From: from, To: to},
		Fill:        h.zone.KeysBetween(timeutil.Day, from, to),
	})

	points := make([]SeriesPointDTO, 0, len(buckets))
	for i, b := range buckets {
		day := from.AddDate(0, 0, i)
		points = append(points, SeriesPointDTO{
			Key:     b.Key,
			Label:   day.Weekday().String()[:3],
			Hours:   b.TotalHours,
			Entries: b.Entries,
		})
	}
	return points
}

func (h *GetDashboardHandler) monthlySeries(goals []goal.Goal, entries []progress.Entry, now time.Time, months int) []SeriesPointDTO {
	from := h.zone.StartOfMonth(now).AddDate(0, -(months - 1), 0)
	to := h.zone.EndOfMonth(now)

	buckets := analytics.Aggregate(entries, analytics.AggregateOptions{
		Zone:        h.zone,
		Granularity: timeutil.Month,
		Range:       &shared.DateRange{From: from, To: to},
		Fill:        h.zone.KeysBetween(timeutil.Month, from, to),
	})

	completed := analytics.GoalsCompletedByMonth(goals, h.zone)

	points := make([]SeriesPointDTO, 0, len(buckets))
	for i, b := range buckets {
		month := from.AddDate(0, i, 0)
		points = append(points, SeriesPointDTO{
			Key:            b.Key,
			Label:          month.Month().String()[:3],
			Hours:          b.TotalHours,
			Entries:        b.Entries,
			GoalsCompleted: completed[b.Key],
		})
	}
	return points
}

func (h *GetDashboardHandler) recentGoals(goals []goal.Goal, entries []progress.Entry, now time.Time, limit int) []GoalDTO {
	sorted := append([]goal.Goal(nil), goals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	result := make([]GoalDTO, 0, len(sorted))
	for _, g := range sorted {
		dto := GoalDTO{
			ID:          g.ID,
			Title:       g.Title,
			Category:    g.Category,
			Progress:    g.Progress,
			Status:      g.Status.String(),
			HoursLogged: analytics.TotalHours(progress.ForGoal(entries, g.ID)),
		}
		if g.HasDueDate() {
			dto.DueDate = h.zone.DayKey(g.DueDate)
			dto.Overdue = !g.IsCompleted() && h.zone.DaysBetween(g.DueDate, now) > 0
		}
		result = append(result, dto)
	}
	return result
}

func toBadgeDTOs(badges []badge.Badge, zone timeutil.Zone) []BadgeDTO {
	result := make([]BadgeDTO, 0, len(badges))
	for _, b := range badges {
		dto := BadgeDTO{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			Requirement: b.Requirement,
			Unlocked:    b.Unlocked,
			Progress:    b.Progress,
		}
		if b.UnlockedDate != nil {
			dto.UnlockedDate = zone.DayKey(*b.UnlockedDate)
		}
		result = append(result, dto)
	}
	return result
}
