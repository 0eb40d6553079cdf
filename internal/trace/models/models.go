// Package models defines the entity graph and report types produced by an
// ownership trace. Entities reference each other by filing ID only, never by
// pointer, so the graph stays cycle-safe and trivially serializable.
package models

import (
	"time"

	"ledgertrace/internal/trace/identity"
)

// Officer is a corporate officer or manager. Normalized forms are computed
// once at construction; the value is immutable afterwards.
type Officer struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	Address           string `json:"address"`
	NormalizedName    string `json:"-"`
	NormalizedAddress string `json:"-"`
}

// NewOfficer builds an Officer with its normalized identity forms.
func NewOfficer(name, title, address string) Officer {
	return Officer{
		Name:              name,
		Title:             title,
		Address:           address,
		NormalizedName:    identity.NormalizeName(name),
		NormalizedAddress: identity.NormalizeAddress(address),
	}
}

// Entity is a business entity discovered during a crawl session. FilingID is
// the sole identity key; an entity is cached exactly once per session no
// matter how many paths reach it. Owns and OwnedBy hold filing IDs, with
// OwnedBy serving as a lookup back-reference only.
type Entity struct {
	FilingID          string    `json:"filing_id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"`
	EntityType        string    `json:"entity_type"`
	DateFiled         time.Time `json:"date_filed"`
	Officers          []Officer `json:"officers"`
	RegisteredAgent   string    `json:"registered_agent,omitempty"`
	RegisteredAddress string    `json:"registered_address,omitempty"`

	OwnershipDepth    int      `json:"ownership_depth"`
	ShellCompanyScore float64  `json:"shell_company_score"`
	Owns              []string `json:"owns"`
	OwnedBy           []string `json:"owned_by"`
}

// OwnershipChain is one root-to-terminal path through the ownership graph.
// No filing ID repeats within EntityIDs unless Circular is set, in which
// case the final element equals an earlier one and marks chain closure.
type OwnershipChain struct {
	RootID              string   `json:"root_id"`
	EntityIDs           []string `json:"entity_ids"`
	Depth               int      `json:"depth"`
	Circular            bool     `json:"circular"`
	ShellIndicators     []string `json:"shell_indicators"`
	ObfuscationPatterns []string `json:"obfuscation_patterns"`
	RiskScore           float64  `json:"risk_score"`
}

// RiskLevel buckets the maximum chain risk score for report consumers.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps a risk score in [0,100] to its assessment bucket.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ShellCompanyReport is the terminal artifact of a trace session.
type ShellCompanyReport struct {
	EntityName               string        `json:"entity_name"`
	AnalysisDate             time.Time     `json:"analysis_date"`
	RiskAssessment           RiskLevel     `json:"risk_assessment"`
	ShellCompanyProbability  float64       `json:"shell_company_probability"`
	OwnershipChainsFound     int           `json:"ownership_chains_found"`
	DeepestChainDepth        int           `json:"deepest_chain_depth"`
	TotalShellIndicators     int           `json:"total_shell_indicators"`
	TotalObfuscationPatterns int           `json:"total_obfuscation_patterns"`
	MaxRiskScore             float64       `json:"max_risk_score"`
	AvgRiskScore             float64       `json:"avg_risk_score"`
	OwnershipChains          []ReportChain `json:"ownership_chains"`
	Summary                  string        `json:"summary"`
}

// ReportChain is a fully resolved chain as it appears in a report.
type ReportChain struct {
	ChainID             int            `json:"chain_id"`
	Depth               int            `json:"depth"`
	RiskScore           float64        `json:"risk_score"`
	Circular            bool           `json:"circular"`
	Entities            []ReportEntity `json:"entities"`
	ShellIndicators     []string       `json:"shell_indicators"`
	ObfuscationPatterns []string       `json:"obfuscation_patterns"`
}

// ReportEntity is the report view of a graph entity.
type ReportEntity struct {
	FilingID     string    `json:"filing_id"`
	Name         string    `json:"name"`
	EntityType   string    `json:"entity_type"`
	Status       string    `json:"status"`
	DateFiled    time.Time `json:"date_filed"`
	OfficerCount int       `json:"officers_count"`
	Officers     []Officer `json:"officers"`
}
