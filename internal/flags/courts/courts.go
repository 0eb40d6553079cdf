// Package courts surfaces court cases involving an entity and the risk
// indicators they imply.
package courts

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Case is one court filing involving an entity or property.
type Case struct {
	EntityName      string `json:"-"`
	CaseType        string `json:"case_type"`
	CaseNumber      string `json:"case_number"`
	Status          string `json:"status"`
	FiledDate       string `json:"filed_date"`
	County          string `json:"county"`
	Plaintiff       string `json:"plaintiff,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	Description     string `json:"description,omitempty"`
	Amount          string `json:"amount,omitempty"`
	Chapter         string `json:"chapter,omitempty"`
	MatchType       string `json:"match_type,omitempty"`
	SearchURL       string `json:"search_url,omitempty"`
}

// Sample case records standing in for county clerk API integrations.
var caseRecords = []Case{
	{
		EntityName:      "Sunshine Holdings LLC",
		CaseType:        "Foreclosure",
		CaseNumber:      "2024-CA-001234",
		Status:          "Open",
		FiledDate:       "2024-11-01",
		County:          "Marion",
		Plaintiff:       "First National Bank",
		PropertyAddress: "123 Investment Blvd, Ocala, FL",
		Amount:          "$450,000",
	},
	{
		EntityName:      "Florida Investment Properties LLC",
		CaseType:        "Foreclosure",
		CaseNumber:      "2024-CA-005678",
		Status:          "Judgment",
		FiledDate:       "2024-08-15",
		County:          "Orange",
		Plaintiff:       "Community Trust Bank",
		PropertyAddress: "456 Commerce St, Orlando, FL",
		Amount:          "$275,000",
	},
	{
		EntityName:      "Coastal Development Trust",
		CaseType:        "Tax Lien",
		CaseNumber:      "2024-TX-002134",
		Status:          "Open",
		FiledDate:       "2024-10-15",
		County:          "Brevard",
		Plaintiff:       "Brevard County Tax Collector",
		PropertyAddress: "789 Beachfront Dr, Melbourne, FL",
		Amount:          "$15,750",
	},
	{
		EntityName:  "Business Investment Trust LLC",
		CaseType:    "Civil Litigation",
		CaseNumber:  "2024-CC-003456",
		Status:      "Open",
		FiledDate:   "2024-09-20",
		County:      "Hillsborough",
		Plaintiff:   "State of Florida DBPR",
		Description: "Unlicensed contractor violations",
		Amount:      "$25,000",
	},
	{
		EntityName: "Offshore Holdings Trust",
		CaseType:   "Bankruptcy",
		CaseNumber: "2024-BK-001122",
		Status:     "Active",
		FiledDate:  "2024-07-30",
		County:     "Federal - Middle District FL",
		Chapter:    "Chapter 11",
	},
}

var clerkSearchURLs = map[string]string{
	"marion":       "https://www.marioncountyclerk.org/court-records/search",
	"orange":       "https://myorangeclerk.com/case-search",
	"brevard":      "https://brevardclerk.us/court-records",
	"hillsborough": "https://hillsclerk.com/records/search",
	"federal":      "https://pacer.uscourts.gov",
}

// Analysis is the outcome of a court record check.
type Analysis struct {
	Cases          []Case   `json:"cases"`
	RiskIndicators []string `json:"risk_indicators"`
	CaseCount      int      `json:"case_count"`
	HasForeclosure bool     `json:"has_foreclosure"`
	HasTaxLien     bool     `json:"has_tax_lien"`
	HasCivil       bool     `json:"has_civil"`
	HasBankruptcy  bool     `json:"has_bankruptcy"`
}

// Checker matches entities against the case records.
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

// Check searches court records by entity name and, when given, by property
// address.
func (c *Checker) Check(entityName, propertyAddress string) Analysis {
	var a Analysis
	if entityName == "" {
		return a
	}

	search := strings.TrimSpace(entityName)
	for _, record := range caseRecords {
		if entityNameMatch(search, record.EntityName) {
			record.SearchURL = clerkSearchURL(record.County, entityName)
			a.Cases = append(a.Cases, record)
		}
	}

	if propertyAddress != "" {
		for _, record := range caseRecords {
			if record.PropertyAddress != "" && addressMatch(propertyAddress, record.PropertyAddress) {
				record.MatchType = "property_address"
				a.Cases = append(a.Cases, record)
			}
		}
	}

	a.CaseCount = len(a.Cases)
	for _, found := range a.Cases {
		switch found.CaseType {
		case "Foreclosure":
			a.HasForeclosure = true
		case "Tax Lien":
			a.HasTaxLien = true
		case "Civil Litigation":
			a.HasCivil = true
		case "Bankruptcy":
			a.HasBankruptcy = true
		}
	}
	a.RiskIndicators = c.analyzeRisk(a.Cases)
	return a
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// entityNameMatch compares names after stripping punctuation and common
// entity suffixes, accepting when most core words overlap.
func entityNameMatch(searchName, recordName string) bool {
	searchClean := nonWordRe.ReplaceAllString(strings.ToLower(searchName), "")
	recordClean := nonWordRe.ReplaceAllString(strings.ToLower(recordName), "")
	if searchClean == recordClean {
		return true
	}

	suffixes := map[string]bool{
		"llc": true, "inc": true, "corp": true,
		"trust": true, "ltd": true, "foundation": true,
	}
	searchCore := coreWords(searchClean, suffixes)
	recordCore := coreWords(recordClean, suffixes)
	if len(searchCore) == 0 || len(recordCore) == 0 {
		return false
	}

	overlap := 0
	for w := range searchCore {
		if recordCore[w] {
			overlap++
		}
	}
	smaller := len(searchCore)
	if len(recordCore) < smaller {
		smaller = len(recordCore)
	}
	return float64(overlap) >= float64(smaller)*0.7
}

func coreWords(name string, suffixes map[string]bool) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(name) {
		if !suffixes[w] {
			words[w] = true
		}
	}
	return words
}

// addressMatch looks for at least a shared street number and street name.
func addressMatch(searchAddr, caseAddr string) bool {
	if searchAddr == "" || caseAddr == "" {
		return false
	}
	searchWords := strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(searchAddr), " "))
	caseWords := make(map[string]bool)
	for _, w := range strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(caseAddr), " ")) {
		caseWords[w] = true
	}
	matching := 0
	seen := make(map[string]bool)
	for _, w := range searchWords {
		if caseWords[w] && !seen[w] {
			matching++
			seen[w] = true
		}
	}
	return matching >= 2
}

func (c *Checker) analyzeRisk(cases []Case) []string {
	var indicators []string
	if len(cases) == 0 {
		return indicators
	}

	counts := make(map[string]int)
	for _, found := range cases {
		counts[found.CaseType]++
	}
	if n := counts["Foreclosure"]; n > 0 {
		indicators = append(indicators, fmt.Sprintf("active_foreclosure_cases:%d", n))
	}
	if n := counts["Tax Lien"]; n > 0 {
		indicators = append(indicators, fmt.Sprintf("tax_lien_cases:%d", n))
	}
	if n := counts["Civil Litigation"]; n > 0 {
		indicators = append(indicators, fmt.Sprintf("civil_litigation_cases:%d", n))
	}
	if n := counts["Bankruptcy"]; n > 0 {
		indicators = append(indicators, fmt.Sprintf("bankruptcy_cases:%d", n))
	}
	if len(counts) >= 2 {
		indicators = append(indicators, "multiple_case_types")
	}

	cutoff := c.now().AddDate(0, 0, -180)
	recent := 0
	for _, found := range cases {
		filed, err := time.Parse("2006-01-02", found.FiledDate)
		if err != nil {
			continue
		}
		if !filed.Before(cutoff) {
			recent++
		}
	}
	if recent > 0 {
		indicators = append(indicators, fmt.Sprintf("recent_court_activity:%d", recent))
	}

	highDollar := 0
	for _, found := range cases {
		if parseDollars(found.Amount) >= 100000 {
			highDollar++
		}
	}
	if highDollar > 0 {
		indicators = append(indicators, fmt.Sprintf("high_dollar_cases:%d", highDollar))
	}

	return indicators
}

var nonNumericRe = regexp.MustCompile(`[^\d.]`)

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

func clerkSearchURL(county, entityName string) string {
	if county == "" {
		return ""
	}
	key := strings.ReplaceAll(strings.ToLower(county), " county", "")
	key = strings.ReplaceAll(key, " ", "")
	if strings.HasPrefix(key, "federal") {
		key = "federal"
	}
	base, ok := clerkSearchURLs[key]
	if !ok {
		return fmt.Sprintf("https://www.google.com/search?q=%%22%s%%22 %s clerk court",
			url.QueryEscape(entityName), url.QueryEscape(county))
	}
	return base + "?q=" + url.QueryEscape(entityName)
}

// RiskFlags derives caller-facing red flags from a court analysis.
func (a Analysis) RiskFlags() []string {
	var flags []string
	if len(a.Cases) == 0 {
		return flags
	}

	if a.HasForeclosure {
		open := 0
		for _, found := range a.Cases {
			if found.CaseType == "Foreclosure" && found.Status == "Open" {
				open++
			}
		}
		if open > 0 {
			flags = append(flags, fmt.Sprintf("entity involved in %d active foreclosure case(s)", open))
		}
	}
	if a.HasTaxLien {
		flags = append(flags, "entity has outstanding tax lien cases")
	}
	if a.HasCivil {
		for _, found := range a.Cases {
			if found.CaseType != "Civil Litigation" {
				continue
			}
			if strings.Contains(found.Plaintiff, "DBPR") {
				flags = append(flags, "entity facing regulatory action from Florida DBPR")
			} else if found.Status == "Open" {
				flags = append(flags, "entity involved in active civil litigation")
			}
		}
	}
	if a.HasBankruptcy {
		for _, found := range a.Cases {
			if found.CaseType == "Bankruptcy" && found.Status == "Active" {
				chapter := found.Chapter
				if chapter == "" {
					chapter = "Unknown"
				}
				flags = append(flags, fmt.Sprintf("entity in active %s bankruptcy proceedings", chapter))
			}
		}
	}

	for _, indicator := range a.RiskIndicators {
		switch {
		case indicator == "multiple_case_types":
			flags = append(flags, "entity shows pattern of financial and legal distress")
		case strings.HasPrefix(indicator, "recent_court_activity:"):
			count := strings.TrimPrefix(indicator, "recent_court_activity:")
			flags = append(flags, fmt.Sprintf("entity has %s recent court case(s) within 6 months", count))
		case strings.HasPrefix(indicator, "high_dollar_cases:"):
			count := strings.TrimPrefix(indicator, "high_dollar_cases:")
			flags = append(flags, fmt.Sprintf("entity involved in %s high-dollar court case(s)", count))
		}
	}

	return flags
}
