package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportTime = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

func newTestMonitor() *Monitor {
	return NewMonitor().WithClock(func() time.Time { return reportTime })
}

func TestWatchKey(t *testing.T) {
	assert.Equal(t, "sunshine_holdings_llc", watchKey("Sunshine Holdings LLC"))
	assert.Equal(t, "business_investment_trust_llc", watchKey("  Business Investment Trust, LLC  "))
}

func TestCheck(t *testing.T) {
	m := newTestMonitor()

	t.Run("untracked entity", func(t *testing.T) {
		result := m.Check("Quiet Meadows Landscaping LLC")
		assert.False(t, result.Tracked)
		assert.Equal(t, "low", result.RiskLevel)
		assert.Empty(t, result.Alerts)
		assert.Empty(t, result.Concerns)
	})

	t.Run("rising risk score flags the entity high", func(t *testing.T) {
		result := m.Check("Sunshine Holdings LLC")
		require.True(t, result.Tracked)

		assert.Equal(t, []string{"active_foreclosure", "recent_funding"}, result.WatchReasons)
		assert.Equal(t, "daily", result.AlertFrequency)
		require.Len(t, result.Alerts, 2)
		assert.Equal(t, 1, result.HighAlerts)
		assert.Equal(t, 1, result.MediumAlerts)
		assert.Zero(t, result.CriticalAlerts)

		assert.True(t, result.Trends.SufficientData)
		assert.Equal(t, "increasing", result.Trends.RiskScoreTrend)
		assert.Equal(t, 25, result.Trends.RiskScoreChange)
		assert.Equal(t, "increasing", result.Trends.AlertActivityTrend)

		assert.Equal(t, "high", result.RiskLevel)
		assert.Contains(t, result.Concerns, "risk score increased by 25 points")
		assert.Contains(t, result.Recommendations, "increase monitoring frequency")
	})

	t.Run("alerts outside the lookback are dropped", func(t *testing.T) {
		// The only alert for this entity is from October 20, more than 30
		// days before the report clock.
		result := m.Check("Business Investment Trust LLC")
		require.True(t, result.Tracked)
		assert.Empty(t, result.Alerts)
		assert.Zero(t, result.CriticalAlerts)
		assert.Equal(t, "low", result.RiskLevel)
		assert.Contains(t, result.Recommendations, "continue standard monitoring")
	})

	t.Run("critical alert inside the lookback escalates", func(t *testing.T) {
		early := NewMonitor().WithClock(func() time.Time {
			return time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)
		})
		result := early.Check("Business Investment Trust LLC")
		require.Len(t, result.Alerts, 1)
		assert.Equal(t, 1, result.CriticalAlerts)
		assert.Equal(t, "critical", result.RiskLevel)
		assert.Contains(t, result.Concerns, "1 critical alert(s) in the last 30 days")
		assert.Contains(t, result.Recommendations, "escalate for immediate investigation")
	})
}
