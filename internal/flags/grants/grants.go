// Package grants analyzes an entity's government grant and contract history
// for funding-related risk patterns.
package grants

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Award is one grant or contract record.
type Award struct {
	AwardID           string `json:"award_id"`
	Title             string `json:"title"`
	Agency            string `json:"agency"`
	AwardDate         string `json:"award_date"`
	Amount            string `json:"amount"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	PeriodStart       string `json:"period_start"`
	PeriodEnd         string `json:"period_end"`
	Description       string `json:"description"`
	ComplianceStatus  string `json:"compliance_status"`
	TerminationReason string `json:"termination_reason,omitempty"`
}

type fundingRecord struct {
	grants    []Award
	contracts []Award
}

// Sample award records standing in for USASpending.gov and state database
// integrations, keyed by normalized entity name.
var fundingRecords = map[string]fundingRecord{
	"sunshine_holdings_llc": {
		grants: []Award{{
			AwardID:          "FEMA-FL-2024-001234",
			Title:            "Hurricane Recovery Housing Initiative",
			Agency:           "FEMA",
			AwardDate:        "2024-10-15",
			Amount:           "$2,500,000",
			Type:             "Grant",
			Status:           "Active",
			PeriodStart:      "2024-10-15",
			PeriodEnd:        "2025-10-14",
			Description:      "Emergency housing assistance for hurricane victims",
			ComplianceStatus: "Under Review",
		}},
		contracts: []Award{{
			AwardID:          "FL-DOT-2024-5678",
			Title:            "Emergency Road Repair Services",
			Agency:           "Florida Department of Transportation",
			AwardDate:        "2024-11-01",
			Amount:           "$450,000",
			Type:             "Contract",
			Status:           "Active",
			PeriodStart:      "2024-11-01",
			PeriodEnd:        "2025-04-30",
			Description:      "Post-hurricane infrastructure repair",
			ComplianceStatus: "Current",
		}},
	},
	"florida_educational_charitable_trust": {
		grants: []Award{
			{
				AwardID:          "ED-FL-2024-9876",
				Title:            "Rural Education Technology Initiative",
				Agency:           "U.S. Department of Education",
				AwardDate:        "2024-08-01",
				Amount:           "$750,000",
				Type:             "Grant",
				Status:           "Active",
				PeriodStart:      "2024-08-01",
				PeriodEnd:        "2026-07-31",
				Description:      "Technology access for underserved rural schools",
				ComplianceStatus: "Current",
			},
			{
				AwardID:          "FL-DOE-2024-3333",
				Title:            "Teacher Professional Development Program",
				Agency:           "Florida Department of Education",
				AwardDate:        "2024-09-15",
				Amount:           "$125,000",
				Type:             "Grant",
				Status:           "Active",
				PeriodStart:      "2024-09-15",
				PeriodEnd:        "2025-08-31",
				Description:      "Professional development for rural teachers",
				ComplianceStatus: "Current",
			},
		},
	},
	"business_investment_trust_llc": {
		grants: []Award{{
			AwardID:          "SBA-FL-2024-7890",
			Title:            "Small Business Recovery Loan Program",
			Agency:           "Small Business Administration",
			AwardDate:        "2024-06-01",
			Amount:           "$350,000",
			Type:             "Loan/Grant Hybrid",
			Status:           "Under Investigation",
			PeriodStart:      "2024-06-01",
			PeriodEnd:        "2027-05-31",
			Description:      "COVID-19 business recovery assistance",
			ComplianceStatus: "Non-Compliant - Misuse Investigation",
		}},
		contracts: []Award{{
			AwardID:           "FL-DBPR-2024-1111",
			Title:             "Construction Oversight Services",
			Agency:            "Florida DBPR",
			AwardDate:         "2024-07-15",
			Amount:            "$75,000",
			Type:              "Contract",
			Status:            "Terminated",
			PeriodStart:       "2024-07-15",
			PeriodEnd:         "2024-09-20",
			Description:       "Construction project oversight and inspection",
			ComplianceStatus:  "Breach of Contract",
			TerminationReason: "Unlicensed contractor violations",
		}},
	},
}

// Thresholds for suspicious funding patterns.
const (
	rapidAwardWindow    = 90 * 24 * time.Hour
	rapidAwardThreshold = 2
	largeAwardAmount    = 1_000_000
	newEntityAge        = 365
)

var investigationKeywords = []string{"investigation", "review", "audit", "non-compliant"}

// Analysis is the outcome of a funding history check.
type Analysis struct {
	Grants              []Award  `json:"grants"`
	Contracts           []Award  `json:"contracts"`
	TotalAwards         int      `json:"total_awards"`
	ActiveGrants        int      `json:"active_grants"`
	ActiveContracts     int      `json:"active_contracts"`
	TotalFunding        float64  `json:"total_funding"`
	ProblematicAwards   int      `json:"problematic_awards"`
	RiskIndicators      []string `json:"risk_indicators"`
	HasFederalFunding   bool     `json:"has_federal_funding"`
	HasStateFunding     bool     `json:"has_state_funding"`
	HasComplianceIssues bool     `json:"has_compliance_issues"`
}

// Checker matches entities against the funding records.
type Checker struct {
	now func() time.Time
}

// NewChecker builds a Checker.
func NewChecker() *Checker {
	return &Checker{now: time.Now}
}

// WithClock overrides the recency reference clock for tests.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// Check analyzes an entity's grant and contract history. formationDate, when
// non-zero, enables the large-award-to-new-entity pattern.
func (c *Checker) Check(entityName string, formationDate time.Time) Analysis {
	var a Analysis
	if entityName == "" {
		return a
	}

	record := fundingRecords[normalizeKey(entityName)]
	a.Grants = record.grants
	a.Contracts = record.contracts
	a.TotalAwards = len(a.Grants) + len(a.Contracts)

	all := append(append([]Award{}, a.Grants...), a.Contracts...)
	for _, award := range all {
		a.TotalFunding += parseDollars(award.Amount)
		if isFederalAgency(award.Agency) {
			a.HasFederalFunding = true
		}
		if isStateAgency(award.Agency) {
			a.HasStateFunding = true
		}
		if isProblematic(award) {
			a.ProblematicAwards++
		}
	}
	for _, g := range a.Grants {
		if g.Status == "Active" {
			a.ActiveGrants++
		}
	}
	for _, ct := range a.Contracts {
		if ct.Status == "Active" {
			a.ActiveContracts++
		}
	}
	a.HasComplianceIssues = a.ProblematicAwards > 0
	a.RiskIndicators = c.analyzeRisk(a.Grants, a.Contracts, formationDate)
	return a
}

var (
	punctRe      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonNumericRe = regexp.MustCompile(`[^\d.]`)
)

func normalizeKey(entityName string) string {
	key := punctRe.ReplaceAllString(strings.ToLower(entityName), "")
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(key), "_")
}

func parseDollars(amount string) float64 {
	clean := nonNumericRe.ReplaceAllString(amount, "")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}

func isFederalAgency(agency string) bool {
	lower := strings.ToLower(agency)
	for _, indicator := range []string{
		"u.s.", "united states", "federal", "fema", "department of",
		"sba", "small business administration", "irs", "treasury",
	} {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func isStateAgency(agency string) bool {
	lower := strings.ToLower(agency)
	for _, indicator := range []string{
		"florida", "fl", "state of", "department of transportation",
		"dbpr", "doe", "department of education",
	} {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func isProblematic(award Award) bool {
	switch strings.ToLower(award.ComplianceStatus) {
	case "non-compliant", "under review", "breach of contract":
		return true
	}
	return false
}

func (c *Checker) analyzeRisk(grants, contracts []Award, formationDate time.Time) []string {
	all := append(append([]Award{}, grants...), contracts...)
	if len(all) == 0 {
		return nil
	}

	var indicators []string

	cutoff := c.now().Add(-rapidAwardWindow)
	recent := 0
	for _, award := range all {
		awarded, err := time.Parse("2006-01-02", award.AwardDate)
		if err != nil {
			continue
		}
		if !awarded.Before(cutoff) {
			recent++
		}
	}
	if recent >= rapidAwardThreshold {
		indicators = append(indicators, fmt.Sprintf("rapid_multiple_awards:%d", recent))
	}

	for _, award := range all {
		status := strings.ToLower(award.ComplianceStatus)
		for _, keyword := range investigationKeywords {
			if strings.Contains(status, keyword) {
				indicators = append(indicators, "award_during_investigation:"+award.AwardID)
				break
			}
		}
	}

	if !formationDate.IsZero() {
		for _, award := range all {
			awarded, err := time.Parse("2006-01-02", award.AwardDate)
			if err != nil {
				continue
			}
			age := int(awarded.Sub(formationDate).Hours() / 24)
			if age <= newEntityAge && parseDollars(award.Amount) >= largeAwardAmount {
				indicators = append(indicators, "large_award_new_entity:"+award.AwardID)
			}
		}
	}

	terminated := 0
	for _, ct := range contracts {
		if ct.Status == "Terminated" || ct.Status == "Breached" {
			terminated++
		}
	}
	if terminated > 0 {
		indicators = append(indicators, fmt.Sprintf("terminated_contracts:%d", terminated))
	}

	nonCompliant := 0
	for _, award := range all {
		if strings.Contains(strings.ToLower(award.ComplianceStatus), "non-compliant") {
			nonCompliant++
		}
	}
	if nonCompliant > 0 {
		indicators = append(indicators, fmt.Sprintf("compliance_violations:%d", nonCompliant))
	}

	activeFederal := 0
	for _, award := range all {
		if award.Status == "Active" && isFederalAgency(award.Agency) {
			activeFederal++
		}
	}
	if activeFederal >= 2 {
		indicators = append(indicators, fmt.Sprintf("multiple_active_federal_awards:%d", activeFederal))
	}

	return indicators
}

// RiskFlags derives caller-facing red flags from a funding analysis.
func (a Analysis) RiskFlags() []string {
	var flags []string
	if a.TotalAwards == 0 {
		return flags
	}

	if a.HasComplianceIssues {
		flags = append(flags, fmt.Sprintf(
			"entity has %d award(s) with compliance issues", a.ProblematicAwards))
	}

	all := append(append([]Award{}, a.Grants...), a.Contracts...)
	for _, award := range all {
		status := strings.ToLower(award.ComplianceStatus)
		switch {
		case strings.Contains(status, "non-compliant"):
			flags = append(flags, "non-compliant award: "+award.Title)
		case strings.Contains(status, "breach of contract"):
			flags = append(flags, "breached contract: "+award.Title)
		case strings.Contains(status, "investigation"):
			flags = append(flags, "award under investigation: "+award.Title)
		}
	}

	for _, indicator := range a.RiskIndicators {
		switch {
		case strings.HasPrefix(indicator, "rapid_multiple_awards:"):
			flags = append(flags, fmt.Sprintf("received %s awards within 90 days",
				suffixAfter(indicator)))
		case strings.HasPrefix(indicator, "large_award_new_entity:"):
			flags = append(flags, "large award to recently formed entity: "+suffixAfter(indicator))
		case strings.HasPrefix(indicator, "terminated_contracts:"):
			flags = append(flags, fmt.Sprintf("%s contract(s) terminated for cause",
				suffixAfter(indicator)))
		case strings.HasPrefix(indicator, "multiple_active_federal_awards:"):
			flags = append(flags, fmt.Sprintf("%s simultaneous active federal awards",
				suffixAfter(indicator)))
		}
	}

	return flags
}

// SourceLinks points reviewers at the public funding databases relevant to
// the analysis.
func (a Analysis) SourceLinks(entityName string) map[string]string {
	links := make(map[string]string)
	encoded := url.QueryEscape(entityName)

	if a.HasFederalFunding {
		links["usa_spending"] = "https://www.usaspending.gov/search"
		links["grants_gov"] = "https://www.grants.gov/web/grants/search-grants.html?keywords=" + encoded
		links["sam_gov"] = "https://sam.gov/search?keywords=" + encoded
	}
	if a.HasStateFunding {
		links["fl_transparency"] = "https://floridahasarighttoknow.myflorida.com/search?q=" + encoded
	}
	if a.HasComplianceIssues {
		links["gao_reports"] = "https://www.gao.gov/reports-testimonies"
	}
	return links
}

func suffixAfter(indicator string) string {
	if i := strings.LastIndex(indicator, ":"); i >= 0 {
		return indicator[i+1:]
	}
	return indicator
}
