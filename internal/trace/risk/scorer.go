// Package risk evaluates ownership chains for shell-company indicators and
// assembles the session report.
package risk

import (
	"fmt"
	"time"

	"ledgertrace/internal/trace/identity"
	"ledgertrace/internal/trace/models"
)

// Scoring weights. Entity-level indicators accumulate across every entity
// in a chain; chain-level patterns accumulate once each.
const (
	recentFormationPoints = 15
	minimalOfficersPoints = 20
	sharedOfficerPoints   = 10
	deepStructurePoints   = 25
	veryDeepPoints        = 40
	circularPoints        = 50

	recentFormationWindow = 365 * 24 * time.Hour
	minimalOfficerCount   = 2
	deepChainLength       = 3
	veryDeepChainLength   = 5
)

// Scorer assigns risk scores and textual findings to chains.
type Scorer struct {
	matcher identity.Matcher
	now     func() time.Time
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithClock injects the formation-recency reference clock for tests.
func WithClock(now func() time.Time) ScorerOption {
	return func(s *Scorer) { s.now = now }
}

// NewScorer builds a Scorer using the given identity matcher.
func NewScorer(matcher identity.Matcher, opts ...ScorerOption) *Scorer {
	s := &Scorer{matcher: matcher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score fills in the chain's indicators, patterns, and clamped risk score,
// and records each entity's own indicator total on the entity. Entities are
// evaluated once each even when the circular closing element repeats.
func (s *Scorer) Score(c *models.OwnershipChain, entities []*models.Entity) {
	unique := uniqueEntities(entities)

	var score float64
	cutoff := s.now().Add(-recentFormationWindow)

	for _, entity := range unique {
		var entityScore float64

		if entity.DateFiled.After(cutoff) {
			c.ShellIndicators = append(c.ShellIndicators,
				fmt.Sprintf("recent formation: %s", entity.Name))
			entityScore += recentFormationPoints
		}

		if len(entity.Officers) <= minimalOfficerCount {
			c.ShellIndicators = append(c.ShellIndicators,
				fmt.Sprintf("minimal officers: %s", entity.Name))
			entityScore += minimalOfficersPoints
		}

		if shared := s.countSharedOfficers(entity, unique); shared > 0 {
			c.ShellIndicators = append(c.ShellIndicators,
				fmt.Sprintf("shared officers: %s", entity.Name))
			entityScore += sharedOfficerPoints * float64(shared)
		}

		score += entityScore
		if entityScore > entity.ShellCompanyScore {
			entity.ShellCompanyScore = entityScore
		}
	}

	if len(c.EntityIDs) >= deepChainLength {
		c.ObfuscationPatterns = append(c.ObfuscationPatterns, "deep ownership structure")
		score += deepStructurePoints
	}
	if len(c.EntityIDs) >= veryDeepChainLength {
		c.ObfuscationPatterns = append(c.ObfuscationPatterns, "very deep ownership structure")
		score += veryDeepPoints
	}
	if c.Circular {
		c.ObfuscationPatterns = append(c.ObfuscationPatterns, "circular ownership detected")
		score += circularPoints
	}

	c.RiskScore = clamp(score, 0, 100)
}

// countSharedOfficers counts how many other chain entities share an officer
// identity with the given entity.
func (s *Scorer) countSharedOfficers(entity *models.Entity, chain []*models.Entity) int {
	count := 0
	for _, other := range chain {
		if other.FilingID == entity.FilingID {
			continue
		}
		if s.hasSharedOfficer(entity, other) {
			count++
		}
	}
	return count
}

func (s *Scorer) hasSharedOfficer(e1, e2 *models.Entity) bool {
	for _, o1 := range e1.Officers {
		for _, o2 := range e2.Officers {
			if s.matcher.SameName(o1.NormalizedName, o2.NormalizedName) {
				return true
			}
		}
	}
	return false
}

func uniqueEntities(entities []*models.Entity) []*models.Entity {
	seen := make(map[string]bool, len(entities))
	out := make([]*models.Entity, 0, len(entities))
	for _, e := range entities {
		if e == nil || seen[e.FilingID] {
			continue
		}
		seen[e.FilingID] = true
		out = append(out, e)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
