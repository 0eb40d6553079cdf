// Package monitoring reports watchlist status, recent alerts, and risk
// score trends for entities under continuous observation.
package monitoring

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// alertLookback is the window of alert history a report covers.
const alertLookback = 30 * 24 * time.Hour

// Alert is one recorded monitoring event for a tracked entity.
type Alert struct {
	EntityName  string    `json:"entity_name"`
	Type        string    `json:"alert_type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// snapshot is one periodic risk reading for a tracked entity.
type snapshot struct {
	takenAt   time.Time
	riskScore int
	anomalies int
}

// watch describes why an entity is on the watchlist.
type watch struct {
	alertFrequency string
	watchReasons   []string
	since          string
}

// Sample watchlist state standing in for a monitoring database.
var (
	watches = map[string]watch{
		"sunshine_holdings_llc": {
			alertFrequency: "daily",
			watchReasons:   []string{"active_foreclosure", "recent_funding"},
			since:          "2024-10-01",
		},
		"business_investment_trust_llc": {
			alertFrequency: "immediate",
			watchReasons:   []string{"compliance_violations", "dbpr_action"},
			since:          "2024-09-15",
		},
	}

	snapshots = map[string][]snapshot{
		"sunshine_holdings_llc": {
			{takenAt: time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC), riskScore: 35, anomalies: 1},
			{takenAt: time.Date(2024, 11, 4, 10, 0, 0, 0, time.UTC), riskScore: 60, anomalies: 2},
		},
	}

	alertHistory = []Alert{
		{
			EntityName:  "Sunshine Holdings LLC",
			Type:        "court_case_filed",
			Severity:    "high",
			Description: "New foreclosure case filed: 2024-CA-001234",
			Timestamp:   time.Date(2024, 11, 4, 8, 30, 0, 0, time.UTC),
		},
		{
			EntityName:  "Sunshine Holdings LLC",
			Type:        "funding_received",
			Severity:    "medium",
			Description: "Received $2.5M FEMA grant while in foreclosure",
			Timestamp:   time.Date(2024, 11, 4, 12, 15, 0, 0, time.UTC),
		},
		{
			EntityName:  "Business Investment Trust LLC",
			Type:        "compliance_violation",
			Severity:    "critical",
			Description: "Grant marked non-compliant - misuse investigation",
			Timestamp:   time.Date(2024, 10, 20, 14, 45, 0, 0, time.UTC),
		},
	}
)

// Trends summarizes how a tracked entity's risk readings move over time.
type Trends struct {
	SufficientData     bool   `json:"sufficient_data"`
	RiskScoreTrend     string `json:"risk_score_trend,omitempty"`
	RiskScoreChange    int    `json:"risk_score_change,omitempty"`
	AlertActivityTrend string `json:"alert_activity_trend,omitempty"`
	SnapshotCount      int    `json:"snapshot_count"`
}

// Analysis is the monitoring report for one entity.
type Analysis struct {
	Tracked         bool     `json:"tracked"`
	WatchReasons    []string `json:"watch_reasons,omitempty"`
	AlertFrequency  string   `json:"alert_frequency,omitempty"`
	MonitoredSince  string   `json:"monitored_since,omitempty"`
	Alerts          []Alert  `json:"recent_alerts"`
	CriticalAlerts  int      `json:"critical_alerts"`
	HighAlerts      int      `json:"high_alerts"`
	MediumAlerts    int      `json:"medium_alerts"`
	Trends          Trends   `json:"trends"`
	RiskLevel       string   `json:"risk_level"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// Monitor reads the watchlist and alert history.
type Monitor struct {
	now func() time.Time
}

// NewMonitor builds a Monitor.
func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

// WithClock overrides the lookback clock for tests.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// Check reports the monitoring state for an entity. Untracked entities
// get an empty low-risk report.
func (m *Monitor) Check(entityName string) Analysis {
	result := Analysis{RiskLevel: "low"}

	w, ok := watches[watchKey(entityName)]
	if !ok {
		return result
	}
	result.Tracked = true
	result.WatchReasons = w.watchReasons
	result.AlertFrequency = w.alertFrequency
	result.MonitoredSince = w.since

	cutoff := m.now().Add(-alertLookback)
	for _, alert := range alertHistory {
		if !strings.EqualFold(alert.EntityName, entityName) || alert.Timestamp.Before(cutoff) {
			continue
		}
		result.Alerts = append(result.Alerts, alert)
		switch alert.Severity {
		case "critical":
			result.CriticalAlerts++
		case "high":
			result.HighAlerts++
		case "medium":
			result.MediumAlerts++
		}
	}

	result.Trends = trends(snapshots[watchKey(entityName)])
	m.assess(&result)
	return result
}

var watchKeyRe = regexp.MustCompile(`[^\w]+`)

// watchKey normalizes an entity name to its watchlist key.
func watchKey(entityName string) string {
	key := strings.ToLower(strings.TrimSpace(entityName))
	key = watchKeyRe.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

func trends(history []snapshot) Trends {
	t := Trends{SnapshotCount: len(history)}
	if len(history) < 2 {
		return t
	}
	t.SufficientData = true

	first, last := history[0], history[len(history)-1]
	t.RiskScoreChange = last.riskScore - first.riskScore
	switch {
	case t.RiskScoreChange > 0:
		t.RiskScoreTrend = "increasing"
	case t.RiskScoreChange < 0:
		t.RiskScoreTrend = "decreasing"
	default:
		t.RiskScoreTrend = "stable"
	}

	switch {
	case last.anomalies > first.anomalies:
		t.AlertActivityTrend = "increasing"
	case last.anomalies < first.anomalies:
		t.AlertActivityTrend = "decreasing"
	default:
		t.AlertActivityTrend = "stable"
	}
	return t
}

// assess derives the overall risk level and concerns from the recent
// alerts and trend data.
func (m *Monitor) assess(result *Analysis) {
	if result.CriticalAlerts > 0 {
		result.RiskLevel = "critical"
		result.Concerns = append(result.Concerns,
			fmt.Sprintf("%d critical alert(s) in the last 30 days", result.CriticalAlerts))
	}
	if result.HighAlerts >= 3 {
		if result.RiskLevel == "low" {
			result.RiskLevel = "high"
		}
		result.Concerns = append(result.Concerns,
			fmt.Sprintf("%d high-severity alert(s) in the last 30 days", result.HighAlerts))
	}
	if result.Trends.RiskScoreTrend == "increasing" && result.Trends.RiskScoreChange > 20 {
		if result.RiskLevel == "low" {
			result.RiskLevel = "high"
		}
		result.Concerns = append(result.Concerns,
			fmt.Sprintf("risk score increased by %d points", result.Trends.RiskScoreChange))
	}

	var violation, fundingDuringLitigation bool
	for _, alert := range result.Alerts {
		if alert.Type == "compliance_violation" {
			violation = true
		}
		if alert.Type == "funding_received" && strings.Contains(
			strings.ToLower(alert.Description), "foreclosure") {
			fundingDuringLitigation = true
		}
	}
	if violation && fundingDuringLitigation {
		result.RiskLevel = "critical"
		result.Concerns = append(result.Concerns,
			"pattern indicates potential fraud or misuse of funds")
	}

	switch result.RiskLevel {
	case "critical":
		result.Recommendations = append(result.Recommendations,
			"escalate for immediate investigation",
			"notify relevant regulatory agencies")
	case "high":
		result.Recommendations = append(result.Recommendations,
			"increase monitoring frequency",
			"review recent filings and funding activity")
	default:
		result.Recommendations = append(result.Recommendations,
			"continue standard monitoring")
	}
}
