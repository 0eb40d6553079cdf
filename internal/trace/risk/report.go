package risk

import (
	"fmt"

	"ledgertrace/internal/trace/graph"
	"ledgertrace/internal/trace/models"
)

// BuildReport folds scored chains into the terminal report. An empty chain
// set is a legitimate outcome, not an error: the report carries a LOW
// assessment and zero probability.
func (s *Scorer) BuildReport(entityName string, network *graph.Network, chains []models.OwnershipChain) models.ShellCompanyReport {
	report := models.ShellCompanyReport{
		EntityName:           entityName,
		AnalysisDate:         s.now().UTC(),
		OwnershipChainsFound: len(chains),
	}

	if len(chains) == 0 {
		report.RiskAssessment = models.RiskLow
		report.Summary = "No complex ownership structures detected."
		return report
	}

	var maxScore, totalScore float64
	for i, c := range chains {
		if c.RiskScore > maxScore {
			maxScore = c.RiskScore
		}
		totalScore += c.RiskScore
		if c.Depth > report.DeepestChainDepth {
			report.DeepestChainDepth = c.Depth
		}
		report.TotalShellIndicators += len(c.ShellIndicators)
		report.TotalObfuscationPatterns += len(c.ObfuscationPatterns)

		report.OwnershipChains = append(report.OwnershipChains, models.ReportChain{
			ChainID:             i + 1,
			Depth:               c.Depth,
			RiskScore:           c.RiskScore,
			Circular:            c.Circular,
			Entities:            resolveEntities(network, c.EntityIDs),
			ShellIndicators:     c.ShellIndicators,
			ObfuscationPatterns: c.ObfuscationPatterns,
		})
	}

	report.MaxRiskScore = maxScore
	report.AvgRiskScore = totalScore / float64(len(chains))
	report.RiskAssessment = models.RiskLevelFor(maxScore)
	report.ShellCompanyProbability = maxScore / 100
	report.Summary = summarize(report)
	return report
}

func resolveEntities(network *graph.Network, ids []string) []models.ReportEntity {
	out := make([]models.ReportEntity, 0, len(ids))
	for _, id := range ids {
		entity := network.Get(id)
		if entity == nil {
			continue
		}
		out = append(out, models.ReportEntity{
			FilingID:     entity.FilingID,
			Name:         entity.Name,
			EntityType:   entity.EntityType,
			Status:       entity.Status,
			DateFiled:    entity.DateFiled,
			OfficerCount: len(entity.Officers),
			Officers:     entity.Officers,
		})
	}
	return out
}

func summarize(r models.ShellCompanyReport) string {
	switch r.RiskAssessment {
	case models.RiskCritical:
		return fmt.Sprintf(
			"Critical risk: %d ownership chain(s) show strong shell company characteristics, reaching depth %d with %d shell indicator(s) and %d obfuscation pattern(s).",
			r.OwnershipChainsFound, r.DeepestChainDepth, r.TotalShellIndicators, r.TotalObfuscationPatterns)
	case models.RiskHigh:
		return fmt.Sprintf(
			"High risk: %d ownership chain(s) exhibit significant shell company indicators across %d level(s) of ownership.",
			r.OwnershipChainsFound, r.DeepestChainDepth)
	case models.RiskMedium:
		return fmt.Sprintf(
			"Medium risk: %d ownership chain(s) found with some shell company indicators; further review recommended.",
			r.OwnershipChainsFound)
	default:
		return fmt.Sprintf(
			"Low risk: %d ownership chain(s) found with minimal shell company indicators.",
			r.OwnershipChainsFound)
	}
}
