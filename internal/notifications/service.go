package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/zauberjournal/journal-api/pkg/enums"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
	"github.com/zauberjournal/journal-api/pkg/logger"
	"github.com/zauberjournal/journal-api/pkg/metrics"
)

// Notification is one active, user-visible message.
type Notification struct {
	ID        int64                  `json:"id"`
	Message   string                 `json:"message"`
	Type      enums.NotificationType `json:"type"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Center holds the ordered set of active notifications. Add suppresses an
// entry whose message and type match one that is still active; a positive
// duration schedules automatic removal, zero keeps it until Remove.
type Center interface {
	Add(ctx context.Context, message string, kind enums.NotificationType, duration time.Duration)
	Remove(ctx context.Context, id int64)
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
	Info(ctx context.Context, message string)
	Warning(ctx context.Context, message string)
	List() []Notification
	DefaultDuration(kind enums.NotificationType) time.Duration
	Reset(ctx context.Context)
}

type center struct {
	mu        sync.Mutex
	items     []Notification
	timers    map[int64]Timer
	lastID    int64
	durations map[enums.NotificationType]time.Duration

	scheduler Scheduler
	now       func() time.Time
	metrics   *metrics.NotificationMetrics
	logg      *logger.Logger
}

// Option customises a Center.
type Option func(*center)

// WithScheduler replaces the wall clock used for expiry timers.
func WithScheduler(s Scheduler) Option {
	return func(c *center) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithClock overrides the timestamp source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *center) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDefaultDuration overrides the display time used by the typed helpers.
func WithDefaultDuration(kind enums.NotificationType, d time.Duration) Option {
	return func(c *center) {
		if kind.IsValid() && d >= 0 {
			c.durations[kind] = d
		}
	}
}

// WithMetrics records adds, suppressions and expiries.
func WithMetrics(m *metrics.NotificationMetrics) Option {
	return func(c *center) {
		c.metrics = m
	}
}

// NewCenter builds an empty notification center. Ids start at 1.
func NewCenter(logg *logger.Logger, opts ...Option) (Center, error) {
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	c := &center{
		timers:    make(map[int64]Timer),
		durations: make(map[enums.NotificationType]time.Duration),
		scheduler: WallClock(),
		now:       time.Now,
		logg:      logg,
	}
	for _, kind := range enums.NotificationTypes() {
		c.durations[kind] = kind.DefaultDuration()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *center) Add(ctx context.Context, message string, kind enums.NotificationType, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.items {
		if n.Message == message && n.Type == kind {
			c.metrics.IncSuppressed(kind.String())
			c.logg.Debug(c.logg.WithFields(ctx, map[string]any{"type": kind, "active_id": n.ID}), "notification.suppressed")
			return
		}
	}

	c.lastID++
	id := c.lastID
	c.items = append(c.items, Notification{
		ID:        id,
		Message:   message,
		Type:      kind,
		CreatedAt: c.now().UTC(),
	})
	if duration > 0 {
		c.timers[id] = c.scheduler.AfterFunc(duration, func() { c.expire(id) })
	}

	c.metrics.IncAdded(kind.String())
	c.logg.Debug(c.logg.WithFields(ctx, map[string]any{
		"notification_id": id,
		"type":            kind,
		"duration_ms":     duration.Milliseconds(),
	}), "notification.added")
}

func (c *center) Remove(ctx context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.removeLocked(id) {
		return
	}
	c.logg.Debug(c.logg.WithField(ctx, "notification_id", id), "notification.removed")
}

func (c *center) expire(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind, ok := c.typeOfLocked(id)
	if !ok {
		return
	}
	c.removeLocked(id)
	c.metrics.IncExpired(kind.String())
}

// removeLocked drops id and cancels its timer. Reports whether id was active.
func (c *center) removeLocked(id int64) bool {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *center) typeOfLocked(id int64) (enums.NotificationType, bool) {
	for _, n := range c.items {
		if n.ID == id {
			return n.Type, true
		}
	}
	return "", false
}

func (c *center) Success(ctx context.Context, message string) {
	c.addDefault(ctx, message, enums.NotificationTypeSuccess)
}

func (c *center) Error(ctx context.Context, message string) {
	c.addDefault(ctx, message, enums.NotificationTypeError)
}

func (c *center) Info(ctx context.Context, message string) {
	c.addDefault(ctx, message, enums.NotificationTypeInfo)
}

func (c *center) Warning(ctx context.Context, message string) {
	c.addDefault(ctx, message, enums.NotificationTypeWarning)
}

func (c *center) addDefault(ctx context.Context, message string, kind enums.NotificationType) {
	c.Add(ctx, message, kind, c.DefaultDuration(kind))
}

func (c *center) DefaultDuration(kind enums.NotificationType) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durations[kind]
}

func (c *center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Reset cancels every pending timer and clears the active set. Ids keep
// increasing so stale references never match a new entry.
func (c *center) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	cleared := len(c.items)
	c.items = nil
	c.logg.Info(c.logg.WithField(ctx, "cleared", cleared), "notification.center.reset")
}
