package courts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference clock sits shortly after the newest sample filing so recency
// indicators are deterministic.
var checkTime = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

func newTestChecker() *Checker {
	return NewChecker().WithClock(func() time.Time { return checkTime })
}

func TestCheck(t *testing.T) {
	c := newTestChecker()

	t.Run("empty name yields nothing", func(t *testing.T) {
		a := c.Check("", "")
		assert.Empty(t, a.Cases)
		assert.Empty(t, a.RiskIndicators)
	})

	t.Run("clean entity has no cases", func(t *testing.T) {
		a := c.Check("Quiet Meadows Landscaping LLC", "")
		assert.Zero(t, a.CaseCount)
	})

	t.Run("exact name match finds the foreclosure", func(t *testing.T) {
		a := c.Check("Sunshine Holdings LLC", "")
		require.Equal(t, 1, a.CaseCount)
		assert.True(t, a.HasForeclosure)
		assert.Equal(t, "2024-CA-001234", a.Cases[0].CaseNumber)
		assert.Contains(t, a.Cases[0].SearchURL, "marioncountyclerk.org")
		assert.Contains(t, a.RiskIndicators, "active_foreclosure_cases:1")
		assert.Contains(t, a.RiskIndicators, "recent_court_activity:1")
		assert.Contains(t, a.RiskIndicators, "high_dollar_cases:1")
	})

	t.Run("fuzzy match tolerates punctuation and suffix changes", func(t *testing.T) {
		a := c.Check("Sunshine Holdings, Inc.", "")
		require.Equal(t, 1, a.CaseCount)
		assert.Equal(t, "Sunshine Holdings LLC", a.Cases[0].EntityName)
	})

	t.Run("property address cross-reference", func(t *testing.T) {
		a := c.Check("Unrelated Entity LLC", "123 Investment Blvd, Ocala FL")
		require.Equal(t, 1, a.CaseCount)
		assert.Equal(t, "property_address", a.Cases[0].MatchType)
	})

	t.Run("bankruptcy case is typed", func(t *testing.T) {
		a := c.Check("Offshore Holdings Trust", "")
		require.Equal(t, 1, a.CaseCount)
		assert.True(t, a.HasBankruptcy)
		assert.Contains(t, a.RiskIndicators, "bankruptcy_cases:1")
	})

	t.Run("old case is not recent activity", func(t *testing.T) {
		// Filed 2024-08-15; a check far in the future sees no recent cases.
		late := NewChecker().WithClock(func() time.Time {
			return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		})
		a := late.Check("Florida Investment Properties LLC", "")
		require.Equal(t, 1, a.CaseCount)
		assert.NotContains(t, a.RiskIndicators, "recent_court_activity:1")
	})
}

func TestRiskFlags(t *testing.T) {
	c := newTestChecker()

	t.Run("open foreclosure", func(t *testing.T) {
		flags := c.Check("Sunshine Holdings LLC", "").RiskFlags()
		assert.Contains(t, flags, "entity involved in 1 active foreclosure case(s)")
	})

	t.Run("judgment foreclosure is not active", func(t *testing.T) {
		flags := c.Check("Florida Investment Properties LLC", "").RiskFlags()
		for _, f := range flags {
			assert.NotContains(t, f, "active foreclosure")
		}
	})

	t.Run("regulatory civil action", func(t *testing.T) {
		flags := c.Check("Business Investment Trust LLC", "").RiskFlags()
		assert.Contains(t, flags, "entity facing regulatory action from Florida DBPR")
	})

	t.Run("active bankruptcy names the chapter", func(t *testing.T) {
		flags := c.Check("Offshore Holdings Trust", "").RiskFlags()
		assert.Contains(t, flags, "entity in active Chapter 11 bankruptcy proceedings")
	})

	t.Run("tax lien", func(t *testing.T) {
		flags := c.Check("Coastal Development Trust", "").RiskFlags()
		assert.Contains(t, flags, "entity has outstanding tax lien cases")
	})
}
