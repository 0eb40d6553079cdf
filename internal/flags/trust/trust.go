// Package trust classifies trust entities by name and derives the risk
// flags their structure implies.
package trust

import (
	"fmt"
	"net/url"
	"strings"
)

// trustKeywords maps name fragments to the trust type they indicate.
var trustKeywords = map[string]string{
	"revocable":           "Revocable Trust",
	"irrevocable":         "Irrevocable Trust",
	"charitable":          "Charitable Trust",
	"land":                "Land Trust",
	"testamentary":        "Testamentary Trust",
	"business trust":      "Business Trust",
	"grantor":             "Grantor Trust",
	"special needs":       "Special Needs Trust",
	"real estate":         "REIT (Trust)",
	"massachusetts trust": "Business Trust",
	"foreign":             "Foreign Asset Trust",
	"living":              "Living Trust",
	"family":              "Family Trust",
	"investment":          "Investment Trust",
	"unit":                "Unit Trust",
	"voting":              "Voting Trust",
	"asset protection":    "Asset Protection Trust",
	"dynasty":             "Dynasty Trust",
	"spendthrift":         "Spendthrift Trust",
}

var highRiskTypes = []string{
	"Business Trust",
	"Foreign Asset Trust",
	"Asset Protection Trust",
}

// Trust types expected to carry an EIN or 501(c)(3) registration.
var regulatedTypes = []string{
	"Charitable Trust",
	"Investment Trust",
	"REIT (Trust)",
}

// suspiciousPatterns are name fragments that sit oddly next to "trust".
var suspiciousPatterns = []struct {
	fragment  string
	indicator string
}{
	{"llc", "trust_with_llc"},
	{"inc", "trust_with_corp"},
	{"corp", "trust_with_corp"},
	{"ltd", "trust_with_ltd"},
	{"offshore", "offshore_trust"},
	{"international", "international_trust"},
	{"privacy", "privacy_trust"},
	{"anonymous", "anonymous_trust"},
}

// Classification is the structured result of classifying an entity name.
type Classification struct {
	IsTrust            bool     `json:"is_trust"`
	TrustTypes         []string `json:"trust_types"`
	MatchTerms         []string `json:"match_terms"`
	RiskIndicators     []string `json:"risk_indicators"`
	RequiresRegulation bool     `json:"requires_regulation"`
	HighRisk           bool     `json:"high_risk"`
}

// Classify inspects an entity name for trust keywords and risk indicators.
func Classify(name string) Classification {
	var c Classification
	if name == "" {
		return c
	}

	lower := strings.ToLower(strings.TrimSpace(name))
	c.IsTrust = strings.Contains(lower, "trust")

	for keyword, trustType := range trustKeywords {
		if strings.Contains(lower, keyword) {
			c.TrustTypes = append(c.TrustTypes, trustType)
			c.MatchTerms = append(c.MatchTerms, keyword)
		}
	}
	if c.IsTrust && len(c.TrustTypes) == 0 {
		c.TrustTypes = []string{"Generic Trust"}
	}

	for _, t := range c.TrustTypes {
		if contains(highRiskTypes, t) {
			c.RiskIndicators = append(c.RiskIndicators, "high_risk_type:"+t)
			c.HighRisk = true
		}
	}
	for _, t := range c.TrustTypes {
		if contains(regulatedTypes, t) {
			c.RiskIndicators = append(c.RiskIndicators, "requires_regulation:"+t)
			c.RequiresRegulation = true
		}
	}

	if c.IsTrust {
		for _, p := range suspiciousPatterns {
			if strings.Contains(lower, p.fragment) {
				c.RiskIndicators = append(c.RiskIndicators, p.indicator)
			}
		}
	}

	return c
}

// RiskFlags derives caller-facing red flags from a classification.
func (c Classification) RiskFlags(hasEIN bool) []string {
	var flags []string
	if !c.IsTrust {
		return flags
	}

	if c.HighRisk {
		flags = append(flags, fmt.Sprintf(
			"entity appears to be a high-risk trust type: %s",
			strings.Join(intersect(c.TrustTypes, highRiskTypes), ", ")))
	}
	if c.RequiresRegulation && !hasEIN {
		flags = append(flags, fmt.Sprintf(
			"%s missing required EIN or regulatory filing",
			strings.Join(intersect(c.TrustTypes, regulatedTypes), ", ")))
	}

	for _, indicator := range c.RiskIndicators {
		switch {
		case strings.HasPrefix(indicator, "trust_with_"):
			entityType := strings.TrimPrefix(indicator, "trust_with_")
			flags = append(flags, fmt.Sprintf(
				"unusual trust structure: combines trust with %s", strings.ToUpper(entityType)))
		case strings.HasPrefix(indicator, "offshore"), strings.HasPrefix(indicator, "international"):
			flags = append(flags, "international or offshore trust structure detected")
		case strings.HasPrefix(indicator, "privacy"), strings.HasPrefix(indicator, "anonymous"):
			flags = append(flags, "privacy-focused trust name may indicate asset concealment")
		}
	}

	if len(c.TrustTypes) == 1 && c.TrustTypes[0] == "Generic Trust" {
		flags = append(flags, "generic trust entity without clear classification or purpose")
	}

	return flags
}

// SourceLinks builds public-record lookup URLs relevant to the classified
// trust types. Every entity gets the Sunbiz corporate search; charitable,
// investment, and testamentary trusts get their regulator's lookup too.
func (c Classification) SourceLinks(entityName string) map[string]string {
	encoded := url.QueryEscape(entityName)
	links := map[string]string{
		"sunbiz": "http://search.sunbiz.org/Inquiry/CorporationSearch/SearchResults?InquiryType=EntityName&SearchTerm=" + encoded,
	}

	if contains(c.TrustTypes, "Charitable Trust") {
		links["irs_990"] = "https://apps.irs.gov/app/eos/allSearch?names=" + encoded
		links["charity_navigator"] = "https://www.charitynavigator.org/index.cfm?bay=search.summary&orgname=" + encoded
	}
	if contains(c.TrustTypes, "Investment Trust") || contains(c.TrustTypes, "REIT (Trust)") {
		links["sec_edgar"] = "https://www.sec.gov/cgi-bin/browse-edgar?company=" + encoded + "&match=contains"
	}
	if contains(c.TrustTypes, "Testamentary Trust") {
		links["court_records"] = "https://www.courtrecords.org/search?name=" + encoded
	}

	return links
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func intersect(a, b []string) []string {
	var out []string
	for _, v := range a {
		if contains(b, v) && !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
