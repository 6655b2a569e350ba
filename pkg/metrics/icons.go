package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IconCacheMetrics tracks icon cache loads and lookups.
type IconCacheMetrics struct {
	loads   *prometheus.CounterVec
	lookups *prometheus.CounterVec
	entries prometheus.Gauge
}

// NewIconCacheMetrics registers the icon cache collectors on reg. A nil
// registerer yields a no-op recorder.
func NewIconCacheMetrics(reg prometheus.Registerer) *IconCacheMetrics {
	if reg == nil {
		return &IconCacheMetrics{}
	}
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icon_cache_loads_total",
		Help: "Icon cache load attempts by result.",
	}, []string{"result"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icon_cache_lookups_total",
		Help: "Emoji lookups by matching tier.",
	}, []string{"tier"})
	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "icon_cache_entries",
		Help: "Number of mappings currently cached.",
	})
	reg.MustRegister(loads, lookups, entries)
	return &IconCacheMetrics{loads: loads, lookups: lookups, entries: entries}
}

// IncLoad counts a load attempt outcome (loaded, transport, status, decode, skipped, backoff, discarded).
func (m *IconCacheMetrics) IncLoad(result string) {
	if m == nil || m.loads == nil {
		return
	}
	m.loads.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncLookup counts a lookup resolved at tier (exact, keyword_in_name, name_in_keyword, miss).
func (m *IconCacheMetrics) IncLookup(tier string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(tier)).Inc()
}

func (m *IconCacheMetrics) SetEntries(n int) {
	if m == nil || m.entries == nil {
		return
	}
	m.entries.Set(float64(n))
}
