package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics counts notification center activity by type.
type NotificationMetrics struct {
	added      *prometheus.CounterVec
	suppressed *prometheus.CounterVec
	expired    *prometheus.CounterVec
}

// NewNotificationMetrics registers the notification counters on reg. A nil
// registerer yields a no-op recorder.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	added := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_added_total",
		Help: "Notifications appended to the active list.",
	}, []string{"type"})
	suppressed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_suppressed_total",
		Help: "Notifications dropped because an identical one was active.",
	}, []string{"type"})
	expired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_expired_total",
		Help: "Notifications removed by their display timer.",
	}, []string{"type"})
	reg.MustRegister(added, suppressed, expired)
	return &NotificationMetrics{added: added, suppressed: suppressed, expired: expired}
}

func (m *NotificationMetrics) IncAdded(kind string) {
	if m == nil || m.added == nil {
		return
	}
	m.added.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *NotificationMetrics) IncSuppressed(kind string) {
	if m == nil || m.suppressed == nil {
		return
	}
	m.suppressed.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *NotificationMetrics) IncExpired(kind string) {
	if m == nil || m.expired == nil {
		return
	}
	m.expired.WithLabelValues(normalizeLabel(kind)).Inc()
}
