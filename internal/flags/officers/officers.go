// Package officers cross-references an entity's officer roster against
// known officer filing histories to surface shared-control and
// serial-formation patterns.
package officers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ledgertrace/internal/trace/identity"
)

// matchThreshold is the minimum name similarity for a roster entry to be
// treated as a known officer.
const matchThreshold = 0.8

// Position is one entity role held by an officer.
type Position struct {
	EntityName   string `json:"entity_name"`
	Role         string `json:"role"`
	StartDate    string `json:"start_date"`
	Status       string `json:"status"`
	EndDate      string `json:"end_date,omitempty"`
	FilingSource string `json:"filing_source"`
}

// profile is a known officer with their name variations and filing history.
type profile struct {
	name         string
	variations   []string
	positions    []Position
	addresses    []string
	affiliations []string
}

// Sample officer filing histories standing in for a registry feed.
var profiles = []profile{
	{
		name:       "John Smith",
		variations: []string{"John A Smith", "J. Smith", "John Smith Jr"},
		positions: []Position{
			{EntityName: "Sunshine Holdings LLC", Role: "Managing Member", StartDate: "2024-01-15", Status: "Active", FilingSource: "FL Sunbiz"},
			{EntityName: "Coastal Development Trust", Role: "Trustee", StartDate: "2024-03-10", Status: "Active", FilingSource: "FL Sunbiz"},
			{EntityName: "Florida Investment Properties LLC", Role: "Member", StartDate: "2023-11-20", Status: "Resigned", EndDate: "2024-08-15", FilingSource: "FL Sunbiz"},
		},
		addresses: []string{
			"123 Investment Blvd, Ocala, FL 34471",
			"456 Business Park Dr, Tampa, FL 33602",
		},
		affiliations: []string{
			"Licensed Real Estate Broker - FL",
			"Registered Investment Advisor",
		},
	},
	{
		name:       "Michael Johnson",
		variations: []string{"Michael A Johnson", "Mike Johnson", "M. Johnson"},
		positions: []Position{
			{EntityName: "Business Investment Trust LLC", Role: "President", StartDate: "2024-09-01", Status: "Active", FilingSource: "FL Sunbiz"},
			{EntityName: "Offshore Holdings Trust", Role: "Managing Director", StartDate: "2024-07-15", Status: "Active", FilingSource: "Federal Filing"},
			{EntityName: "Investment Advisory Services Inc", Role: "CEO", StartDate: "2023-05-01", Status: "Active", FilingSource: "FL Sunbiz"},
		},
		addresses: []string{
			"789 Financial Plaza, Miami, FL 33101",
			"PO Box 12345, Cayman Islands",
		},
		affiliations: []string{
			"CPA License - FL (Suspended 2024)",
			"Series 7 Securities License",
		},
	},
	{
		name:       "Sarah Williams",
		variations: []string{"Sarah E Williams", "S. Williams"},
		positions: []Position{
			{EntityName: "Florida Educational Charitable Trust", Role: "Executive Director", StartDate: "2024-02-01", Status: "Active", FilingSource: "IRS 990"},
			{EntityName: "Community Development Foundation", Role: "Board Member", StartDate: "2023-08-15", Status: "Active", FilingSource: "FL Sunbiz"},
		},
		addresses: []string{
			"321 Charity Lane, Gainesville, FL 32601",
		},
		affiliations: []string{
			"Nonprofit Management Certificate",
		},
	},
}

// Summary describes one roster officer matched against the filing data.
type Summary struct {
	Name              string     `json:"name"`
	MatchedName       string     `json:"matched_name"`
	Confidence        float64    `json:"confidence"`
	TotalEntities     int        `json:"total_entities"`
	ActiveEntities    int        `json:"active_entities"`
	ConnectedEntities []string   `json:"connected_entities"`
	Positions         []Position `json:"positions"`
	Addresses         []string   `json:"addresses"`
	Affiliations      []string   `json:"business_affiliations"`
	RiskFlags         []string   `json:"risk_flags"`
}

// CrossReference links officers that share an entity or an address.
type CrossReference struct {
	Type       string   `json:"type"`
	EntityName string   `json:"entity_name,omitempty"`
	Address    string   `json:"address,omitempty"`
	Officers   []string `json:"officers"`
	RiskLevel  string   `json:"risk_level"`
}

// Analysis is the outcome of an officer cross-reference check.
type Analysis struct {
	Officers               []Summary        `json:"officers"`
	CrossReferences        []CrossReference `json:"cross_references"`
	RiskIndicators         []string         `json:"risk_indicators"`
	TotalConnectedEntities int              `json:"total_connected_entities"`
	HasSharedOfficers      bool             `json:"has_shared_officers"`
	HasProblematicOfficers bool             `json:"has_problematic_officers"`
}

// Tracker matches officer names against the filing histories.
type Tracker struct{}

// NewTracker builds a Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Check resolves each roster name against the known officers and derives
// cross-entity connections. The entity under analysis is excluded from
// connected-entity lists.
func (t *Tracker) Check(entityName string, officerNames []string) Analysis {
	var result Analysis
	connected := make(map[string]bool)

	for _, name := range officerNames {
		p, confidence, ok := match(name)
		if !ok {
			continue
		}

		summary := Summary{
			Name:         name,
			MatchedName:  p.name,
			Confidence:   confidence,
			Positions:    p.positions,
			Addresses:    p.addresses,
			Affiliations: p.affiliations,
		}
		for _, pos := range p.positions {
			summary.TotalEntities++
			if pos.Status == "Active" {
				summary.ActiveEntities++
			}
			if !strings.EqualFold(pos.EntityName, entityName) {
				summary.ConnectedEntities = append(summary.ConnectedEntities, pos.EntityName)
				connected[pos.EntityName] = true
			}
		}
		summary.RiskFlags = officerFlags(p, summary.ActiveEntities)
		result.Officers = append(result.Officers, summary)
	}

	result.TotalConnectedEntities = len(connected)
	result.CrossReferences = crossReference(result.Officers)
	result.HasSharedOfficers = len(result.CrossReferences) > 0
	result.RiskIndicators = t.analyzeRisk(result)
	for _, indicator := range result.RiskIndicators {
		if strings.Contains(indicator, "problematic") {
			result.HasProblematicOfficers = true
		}
	}
	return result
}

var (
	titleRe   = regexp.MustCompile(`\b(mr|mrs|ms|dr|jr|sr|ii|iii)\b`)
	initialRe = regexp.MustCompile(`\b[a-z]\.\s*`)
	punctRe   = regexp.MustCompile(`[^\w\s]`)
)

// normalizeName lowers a personal name and strips titles, middle initials,
// and punctuation so variations of the same officer compare equal.
func normalizeName(name string) string {
	s := strings.ToLower(name)
	s = initialRe.ReplaceAllString(s, "")
	s = titleRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// match finds the known officer whose name or variation is most similar to
// the input, if any clears the threshold.
func match(name string) (profile, float64, bool) {
	normalized := normalizeName(name)
	if normalized == "" {
		return profile{}, 0, false
	}

	best := -1
	bestScore := 0.0
	for i, p := range profiles {
		candidates := append([]string{p.name}, p.variations...)
		for _, candidate := range candidates {
			score := identity.Similarity(normalized, normalizeName(candidate))
			if score >= matchThreshold && score > bestScore {
				best = i
				bestScore = score
			}
		}
	}
	if best < 0 {
		return profile{}, 0, false
	}
	return profiles[best], bestScore, true
}

func officerFlags(p profile, active int) []string {
	var flags []string

	if active >= 3 {
		flags = append(flags, fmt.Sprintf("active in %d entities simultaneously", active))
	}

	resigned := 0
	for _, pos := range p.positions {
		if pos.Status == "Resigned" {
			resigned++
		}
		if strings.Contains(strings.ToLower(pos.EntityName), "offshore") {
			flags = append(flags, "connected to offshore entities")
		}
	}
	if resigned >= 2 {
		flags = append(flags, fmt.Sprintf("resigned from %d entities", resigned))
	}

	for _, aff := range p.affiliations {
		lower := strings.ToLower(aff)
		if strings.Contains(lower, "suspended") || strings.Contains(lower, "revoked") {
			flags = append(flags, "professional license issue: "+aff)
		}
	}
	for _, addr := range p.addresses {
		if strings.Contains(strings.ToLower(addr), "po box") {
			flags = append(flags, "uses PO Box address")
			break
		}
	}

	return flags
}

// crossReference finds entities and addresses shared by more than one
// matched officer.
func crossReference(officers []Summary) []CrossReference {
	byEntity := make(map[string][]string)
	byAddress := make(map[string][]string)
	for _, o := range officers {
		for _, e := range o.ConnectedEntities {
			byEntity[e] = append(byEntity[e], o.Name)
		}
		for _, a := range o.Addresses {
			byAddress[a] = append(byAddress[a], o.Name)
		}
	}

	var refs []CrossReference
	for _, entity := range sortedKeys(byEntity) {
		names := dedupe(byEntity[entity])
		if len(names) < 2 {
			continue
		}
		level := "medium"
		if len(names) >= 3 {
			level = "high"
		}
		refs = append(refs, CrossReference{
			Type:       "shared_entity",
			EntityName: entity,
			Officers:   names,
			RiskLevel:  level,
		})
	}
	for _, addr := range sortedKeys(byAddress) {
		names := dedupe(byAddress[addr])
		if len(names) < 2 {
			continue
		}
		level := "medium"
		if strings.Contains(strings.ToLower(addr), "po box") {
			level = "high"
		}
		refs = append(refs, CrossReference{
			Type:      "shared_address",
			Address:   addr,
			Officers:  names,
			RiskLevel: level,
		})
	}
	return refs
}

func (t *Tracker) analyzeRisk(result Analysis) []string {
	var indicators []string

	problematic := 0
	for _, o := range result.Officers {
		if o.ActiveEntities >= 3 {
			indicators = append(indicators, fmt.Sprintf("serial_entity_creator:%d", o.ActiveEntities))
		}
		if len(o.RiskFlags) > 0 {
			problematic++
		}
		for _, aff := range o.Affiliations {
			lower := strings.ToLower(aff)
			for _, kw := range []string{"suspended", "revoked"} {
				if strings.Contains(lower, kw) {
					indicators = append(indicators, "regulatory_issues:"+kw)
				}
			}
		}
		resigned := o.TotalEntities - o.ActiveEntities
		if resigned >= 2 {
			indicators = append(indicators, fmt.Sprintf("multiple_resignations:%d", resigned))
		}
		offshore := 0
		for _, e := range o.ConnectedEntities {
			if strings.Contains(strings.ToLower(e), "offshore") {
				offshore++
			}
		}
		if offshore > 0 {
			indicators = append(indicators, fmt.Sprintf("offshore_connections:%d", offshore))
		}
		for _, addr := range o.Addresses {
			if strings.Contains(strings.ToLower(addr), "po box") {
				indicators = append(indicators, "po_box_address")
				break
			}
		}
	}

	if problematic >= 2 {
		indicators = append(indicators, fmt.Sprintf("multiple_problematic_officers:%d", problematic))
	}
	sharedEntities := 0
	sharedAddresses := 0
	for _, ref := range result.CrossReferences {
		switch ref.Type {
		case "shared_entity":
			sharedEntities++
		case "shared_address":
			sharedAddresses++
		}
	}
	if sharedEntities >= 2 {
		indicators = append(indicators, fmt.Sprintf("complex_entity_web:%d", sharedEntities))
	}
	if sharedAddresses > 0 {
		indicators = append(indicators, fmt.Sprintf("shared_addresses:%d", sharedAddresses))
	}

	return indicators
}

// RiskFlags derives caller-facing red flags from an officer analysis.
func (r Analysis) RiskFlags() []string {
	var flags []string
	for _, o := range r.Officers {
		for _, f := range o.RiskFlags {
			flags = append(flags, fmt.Sprintf("officer %s: %s", o.Name, f))
		}
	}
	for _, ref := range r.CrossReferences {
		switch ref.Type {
		case "shared_entity":
			flags = append(flags, fmt.Sprintf(
				"officers %s share entity %s", strings.Join(ref.Officers, ", "), ref.EntityName))
		case "shared_address":
			flags = append(flags, fmt.Sprintf(
				"officers %s share address %s", strings.Join(ref.Officers, ", "), ref.Address))
		}
	}
	return flags
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
