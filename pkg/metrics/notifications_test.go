package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationMetricsCountByType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewNotificationMetrics(reg)
	m.IncAdded("success")
	m.IncAdded("success")
	m.IncSuppressed("error")
	m.IncExpired("")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "notifications_added_total", "type", "success")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "notifications_suppressed_total", "type", "error")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "notifications_expired_total", "type", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestIconCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIconCacheMetrics(reg)
	m.IncLoad("loaded")
	m.IncLoad("status")
	m.IncLookup("exact")
	m.SetEntries(12)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "icon_cache_loads_total", "result", "status")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "icon_cache_lookups_total", "tier", "exact")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	gauge := findMetricFamily(mfs, "icon_cache_entries")
	require.NotNil(t, gauge)
	assert.Equal(t, 12.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestNilRecordersAreNoops(t *testing.T) {
	var n *NotificationMetrics
	var i *IconCacheMetrics
	var c *CronJobMetrics
	assert.NotPanics(t, func() {
		n.IncAdded("info")
		i.IncLoad("loaded")
		i.SetEntries(1)
		c.IncSuccess("job")
		NewNotificationMetrics(nil).IncExpired("info")
		NewIconCacheMetrics(nil).IncLookup("miss")
	})
}
