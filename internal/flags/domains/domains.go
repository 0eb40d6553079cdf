// Package domains analyzes an entity's web presence: domain registrations,
// WHOIS metadata, and website status.
package domains

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Whois is registration metadata for a domain.
type Whois struct {
	Domain            string   `json:"domain"`
	Registrar         string   `json:"registrar"`
	CreationDate      string   `json:"creation_date"`
	ExpirationDate    string   `json:"expiration_date"`
	RegistrantName    string   `json:"registrant_name"`
	RegistrantEmail   string   `json:"registrant_email"`
	RegistrantOrg     string   `json:"registrant_organization"`
	RegistrantCountry string   `json:"registrant_country"`
	NameServers       []string `json:"name_servers"`
	PrivacyProtection bool     `json:"privacy_protection"`
}

// Website is the observed state of a domain's site.
type Website struct {
	Status          string   `json:"status"`
	SSLCert         bool     `json:"ssl_cert"`
	ContentType     string   `json:"content_type"`
	ContactInfo     bool     `json:"contact_info"`
	PrivacyPolicy   bool     `json:"privacy_policy"`
	SocialMedia     []string `json:"social_media_links"`
	BusinessAddress string   `json:"business_address,omitempty"`
	PhoneNumber     string   `json:"phone_number,omitempty"`
}

// Domain pairs WHOIS and website data with a match confidence.
type Domain struct {
	Domain          string  `json:"domain"`
	Whois           Whois   `json:"whois"`
	Website         Website `json:"website"`
	MatchConfidence float64 `json:"match_confidence"`
}

// Analysis is the outcome of a web presence check.
type Analysis struct {
	Domains              []Domain `json:"domains"`
	DomainCount          int      `json:"domain_count"`
	RiskIndicators       []string `json:"risk_indicators"`
	HasActiveWebsite     bool     `json:"has_active_website"`
	HasPrivacyProtection bool     `json:"has_privacy_protection"`
	RecentRegistration   bool     `json:"recent_registration"`
}

// Sample WHOIS records standing in for a registrar data feed.
var whoisRecords = map[string]Whois{
	"sunshinetrustflorida.com": {
		Domain:            "sunshinetrustflorida.com",
		Registrar:         "GoDaddy.com LLC",
		CreationDate:      "2024-01-15",
		ExpirationDate:    "2025-01-15",
		RegistrantName:    "John Smith",
		RegistrantEmail:   "jsmith@sunshinetrustflorida.com",
		RegistrantOrg:     "Sunshine Holdings LLC",
		RegistrantCountry: "US",
		NameServers:       []string{"ns1.godaddy.com", "ns2.godaddy.com"},
	},
	"offshoretrustinc.com": {
		Domain:            "offshoretrustinc.com",
		Registrar:         "Namecheap Inc",
		CreationDate:      "2024-10-20",
		ExpirationDate:    "2025-10-20",
		RegistrantName:    "Privacy Protection Service",
		RegistrantEmail:   "privacy@whoisprotection.net",
		RegistrantOrg:     "Privacy Protection Service",
		RegistrantCountry: "PA",
		NameServers:       []string{"ns1.namecheap.com", "ns2.namecheap.com"},
		PrivacyProtection: true,
	},
	"businessinvestmenttrust.org": {
		Domain:            "businessinvestmenttrust.org",
		Registrar:         "Network Solutions LLC",
		CreationDate:      "2024-09-01",
		ExpirationDate:    "2025-09-01",
		RegistrantName:    "Michael Johnson",
		RegistrantEmail:   "info@businessinvestmenttrust.org",
		RegistrantOrg:     "Business Investment Trust LLC",
		RegistrantCountry: "US",
		NameServers:       []string{"ns1.networksolutions.com", "ns2.networksolutions.com"},
	},
}

var websiteRecords = map[string]Website{
	"sunshinetrustflorida.com": {
		Status:          "active",
		SSLCert:         true,
		ContentType:     "professional",
		ContactInfo:     true,
		PrivacyPolicy:   true,
		SocialMedia:     []string{"facebook", "linkedin"},
		BusinessAddress: "123 Investment Blvd, Ocala, FL",
		PhoneNumber:     "(555) 123-4567",
	},
	"offshoretrustinc.com": {
		Status:      "parked",
		ContentType: "placeholder",
	},
	"businessinvestmenttrust.org": {
		Status:          "under_construction",
		SSLCert:         true,
		ContentType:     "basic",
		ContactInfo:     true,
		SocialMedia:     []string{"linkedin"},
		BusinessAddress: "456 Business Park Dr, Tampa, FL",
	},
}

// Analyzer resolves entity names to candidate domains.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// WithClock overrides the registration-recency clock for tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze checks candidate domain variations of an entity name against the
// WHOIS and website records.
func (a *Analyzer) Analyze(entityName string) Analysis {
	var result Analysis
	if entityName == "" {
		return result
	}

	for _, candidate := range domainVariations(entityName) {
		whois, ok := whoisRecords[candidate]
		if !ok {
			continue
		}
		website := websiteRecords[candidate]
		result.Domains = append(result.Domains, Domain{
			Domain:          candidate,
			Whois:           whois,
			Website:         website,
			MatchConfidence: matchConfidence(entityName, whois, website),
		})
	}

	result.DomainCount = len(result.Domains)
	for _, d := range result.Domains {
		if d.Website.Status == "active" {
			result.HasActiveWebsite = true
		}
		if d.Whois.PrivacyProtection {
			result.HasPrivacyProtection = true
		}
		if a.isRecentRegistration(d.Whois.CreationDate) {
			result.RecentRegistration = true
		}
	}
	result.RiskIndicators = a.analyzeRisk(result.Domains)
	return result
}

var (
	punctRe      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// domainVariations generates plausible domains for an entity name: the
// compacted name with business suffixes stripped, joined with common TLDs.
func domainVariations(entityName string) []string {
	clean := punctRe.ReplaceAllString(strings.ToLower(entityName), "")
	clean = whitespaceRe.ReplaceAllString(clean, "")
	for _, suffix := range []string{"llc", "inc", "corp", "trust", "foundation", "ltd", "company", "co"} {
		clean = strings.ReplaceAll(clean, suffix, "")
	}

	bases := []string{clean, clean + "llc", clean + "trust", clean + "inc"}
	seen := make(map[string]bool)
	var variations []string
	add := func(domain string) {
		if !seen[domain] {
			seen[domain] = true
			variations = append(variations, domain)
		}
	}
	for _, base := range bases {
		if len(base) <= 2 {
			continue
		}
		for _, tld := range []string{".com", ".org", ".net", ".us"} {
			add(base + tld)
		}
	}

	// Known branded domains that the mechanical variations miss.
	lower := strings.ToLower(entityName)
	switch {
	case strings.Contains(lower, "sunshine") && strings.Contains(lower, "holdings"):
		add("sunshinetrustflorida.com")
	case strings.Contains(lower, "offshore") && strings.Contains(lower, "trust"):
		add("offshoretrustinc.com")
	case strings.Contains(lower, "business") && strings.Contains(lower, "investment"):
		add("businessinvestmenttrust.org")
	}

	return variations
}

func matchConfidence(entityName string, whois Whois, website Website) float64 {
	confidence := 0.0
	lower := strings.ToLower(entityName)

	if org := strings.ToLower(whois.RegistrantOrg); org != "" && strings.Contains(lower, org) {
		confidence += 0.4
	}
	if name := strings.ToLower(whois.RegistrantName); name != "" && !strings.HasPrefix(name, "privacy") {
		confidence += 0.2
	}
	if website.ContactInfo {
		confidence += 0.2
	}
	if website.BusinessAddress != "" {
		confidence += 0.15
	}
	if whois.PrivacyProtection {
		confidence -= 0.1
	}
	if website.Status == "parked" || website.Status == "placeholder" {
		confidence -= 0.2
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func (a *Analyzer) isRecentRegistration(creationDate string) bool {
	created, err := time.Parse("2006-01-02", creationDate)
	if err != nil {
		return false
	}
	return !created.Before(a.now().AddDate(0, 0, -90))
}

func (a *Analyzer) analyzeRisk(found []Domain) []string {
	if len(found) == 0 {
		return []string{"no_web_presence"}
	}

	var indicators []string
	count := func(pred func(Domain) bool) int {
		n := 0
		for _, d := range found {
			if pred(d) {
				n++
			}
		}
		return n
	}

	if n := count(func(d Domain) bool { return d.Whois.PrivacyProtection }); n > 0 {
		indicators = append(indicators, fmt.Sprintf("privacy_protection:%d", n))
	}
	if n := count(func(d Domain) bool { return a.isRecentRegistration(d.Whois.CreationDate) }); n > 0 {
		indicators = append(indicators, fmt.Sprintf("recent_registration:%d", n))
	}
	if n := count(func(d Domain) bool {
		return d.Website.Status == "parked" || d.Website.Status == "under_construction" || d.Website.Status == "not_found"
	}); n > 0 {
		indicators = append(indicators, fmt.Sprintf("inactive_websites:%d", n))
	}
	if n := count(func(d Domain) bool { return !d.Website.ContactInfo }); n == len(found) {
		indicators = append(indicators, "no_contact_info")
	}
	if n := count(func(d Domain) bool {
		return d.Whois.RegistrantCountry != "US" && d.Whois.RegistrantCountry != "CA"
	}); n > 0 {
		indicators = append(indicators, fmt.Sprintf("foreign_registration:%d", n))
	}
	if n := count(func(d Domain) bool { return d.MatchConfidence < 0.5 }); n > 0 {
		indicators = append(indicators, fmt.Sprintf("low_confidence_match:%d", n))
	}

	return indicators
}

// RiskFlags derives caller-facing red flags from a web presence analysis.
func (r Analysis) RiskFlags() []string {
	var flags []string
	if len(r.Domains) == 0 {
		return []string{"entity has no detectable web presence or domain registration"}
	}

	for _, indicator := range r.RiskIndicators {
		switch {
		case strings.HasPrefix(indicator, "privacy_protection:"):
			flags = append(flags, fmt.Sprintf(
				"entity uses privacy protection on %s domain(s)", suffixCount(indicator)))
		case strings.HasPrefix(indicator, "recent_registration:"):
			flags = append(flags, fmt.Sprintf(
				"entity registered %s domain(s) within last 90 days", suffixCount(indicator)))
		case strings.HasPrefix(indicator, "inactive_websites:"):
			flags = append(flags, fmt.Sprintf(
				"entity has %s parked or inactive website(s)", suffixCount(indicator)))
		case indicator == "no_contact_info":
			flags = append(flags, "entity websites lack contact information")
		case strings.HasPrefix(indicator, "foreign_registration:"):
			flags = append(flags, fmt.Sprintf(
				"entity has %s domain(s) registered outside US/Canada", suffixCount(indicator)))
		case strings.HasPrefix(indicator, "low_confidence_match:"):
			flags = append(flags, fmt.Sprintf(
				"%s domain(s) may not belong to this entity", suffixCount(indicator)))
		}
	}

	return flags
}

func suffixCount(indicator string) string {
	if i := strings.LastIndex(indicator, ":"); i >= 0 {
		return indicator[i+1:]
	}
	return indicator
}
