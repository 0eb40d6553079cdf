// Package service assembles the composite entity risk report: trust
// classification, court history, web presence, officer connections, public
// funding, watchlist monitoring, property records, and the ownership trace,
// folded into a single score with plain-language anomalies.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"ledgertrace/internal/flags/courts"
	"ledgertrace/internal/flags/domains"
	"ledgertrace/internal/flags/grants"
	"ledgertrace/internal/flags/monitoring"
	"ledgertrace/internal/flags/officers"
	"ledgertrace/internal/flags/property"
	"ledgertrace/internal/flags/trust"
	"ledgertrace/internal/report/store"
	"ledgertrace/internal/trace/models"
	dErrors "ledgertrace/pkg/domain-errors"
)

const (
	maxNameLength    = 200
	maxAddressLength = 500
	maxCountyLength  = 50
	maxOfficers      = 20
	maxScore         = 100
)

var einRe = regexp.MustCompile(`^\d{2}-?\d{7}$`)

// AnalyzeRequest is one entity submitted for analysis. Only the name is
// required.
type AnalyzeRequest struct {
	Name     string
	EIN      string
	Address  string
	County   string
	Officers []string
}

// EntityReport is the composite risk assessment for one entity.
type EntityReport struct {
	Name           string                     `json:"name"`
	RiskScore      int                        `json:"risk_score"`
	Anomalies      []string                   `json:"anomalies"`
	EntityType     trust.Classification       `json:"entity_type"`
	CourtData      courts.Analysis            `json:"court_data"`
	DomainData     domains.Analysis           `json:"domain_data"`
	OfficerData    officers.Analysis          `json:"officer_data"`
	GrantsData     grants.Analysis            `json:"grants_data"`
	MonitoringData monitoring.Analysis        `json:"monitoring_data"`
	Property       *property.Info             `json:"property_record,omitempty"`
	Ownership      *models.ShellCompanyReport `json:"ownership_analysis,omitempty"`
	SourceLinks    map[string]string          `json:"source_links"`
}

// OwnershipReporter produces the shell company report for an entity. The
// trace service satisfies it.
type OwnershipReporter interface {
	GenerateShellCompanyReport(ctx context.Context, entityName string) (models.ShellCompanyReport, error)
}

// Service runs the composite analysis.
type Service struct {
	ownership OwnershipReporter
	courts    *courts.Checker
	domains   *domains.Analyzer
	officers  *officers.Tracker
	grants    *grants.Checker
	monitor   *monitoring.Monitor
	archive   store.Store
	logger    *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCourtChecker overrides the court case checker.
func WithCourtChecker(c *courts.Checker) Option {
	return func(s *Service) { s.courts = c }
}

// WithDomainAnalyzer overrides the web presence analyzer.
func WithDomainAnalyzer(a *domains.Analyzer) Option {
	return func(s *Service) { s.domains = a }
}

// WithOfficerTracker overrides the officer cross-reference tracker.
func WithOfficerTracker(t *officers.Tracker) Option {
	return func(s *Service) { s.officers = t }
}

// WithGrantsChecker overrides the public funding checker.
func WithGrantsChecker(c *grants.Checker) Option {
	return func(s *Service) { s.grants = c }
}

// WithMonitor overrides the watchlist monitor.
func WithMonitor(m *monitoring.Monitor) Option {
	return func(s *Service) { s.monitor = m }
}

// WithArchive stores each finished report for later review.
func WithArchive(archive store.Store) Option {
	return func(s *Service) { s.archive = archive }
}

// New constructs the analyzer service. The ownership reporter may be nil,
// in which case reports omit the ownership section.
func New(ownership OwnershipReporter, opts ...Option) *Service {
	s := &Service{
		ownership: ownership,
		courts:    courts.NewChecker(),
		domains:   domains.NewAnalyzer(),
		officers:  officers.NewTracker(),
		grants:    grants.NewChecker(),
		monitor:   monitoring.NewMonitor(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze validates the request and runs every risk module against the
// entity. An ownership trace failure degrades the report rather than
// failing it; all other modules are local and cannot fail.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*EntityReport, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	report := &EntityReport{
		Name:      req.Name,
		Anomalies: []string{},
	}
	hasEIN := req.EIN != ""

	// Trust classification.
	report.EntityType = trust.Classify(req.Name)
	report.Anomalies = append(report.Anomalies, report.EntityType.RiskFlags(hasEIN)...)
	if report.EntityType.HighRisk {
		report.RiskScore += 30
	}
	if report.EntityType.RequiresRegulation && !hasEIN {
		report.RiskScore += 25
	}

	// Court cases.
	report.CourtData = s.courts.Check(req.Name, req.Address)
	report.Anomalies = append(report.Anomalies, report.CourtData.RiskFlags()...)
	report.RiskScore += courtScore(report.CourtData)

	// Web presence.
	report.DomainData = s.domains.Analyze(req.Name)
	report.Anomalies = append(report.Anomalies, report.DomainData.RiskIndicators...)
	report.RiskScore += domainScore(report.DomainData)

	// Officer cross-reference.
	report.OfficerData = s.officers.Check(req.Name, req.Officers)
	report.Anomalies = append(report.Anomalies, report.OfficerData.RiskFlags()...)
	report.RiskScore += officerScore(report.OfficerData)

	// Public funding.
	report.GrantsData = s.grants.Check(req.Name, time.Time{})
	report.Anomalies = append(report.Anomalies, report.GrantsData.RiskIndicators...)
	if report.GrantsData.HasComplianceIssues {
		report.RiskScore += 30
	}
	if report.GrantsData.ProblematicAwards > 0 {
		report.RiskScore += 20
	}

	// Watchlist monitoring.
	report.MonitoringData = s.monitor.Check(req.Name)
	report.RiskScore += monitoringScore(report.MonitoringData)
	for _, alert := range report.MonitoringData.Alerts {
		if alert.Severity == "high" || alert.Severity == "critical" {
			report.Anomalies = append(report.Anomalies, alert.Description)
		}
	}

	// Ownership trace.
	if s.ownership != nil {
		ownership, err := s.ownership.GenerateShellCompanyReport(ctx, req.Name)
		if err != nil {
			s.logger.ErrorContext(ctx, "ownership analysis failed",
				"entity", req.Name,
				"error", err,
			)
		} else {
			report.Ownership = &ownership
			score, anomalies := ownershipScore(ownership)
			report.RiskScore += score
			report.Anomalies = append(report.Anomalies, anomalies...)
		}
	}

	// Entity-level rules.
	if !hasEIN {
		report.Anomalies = append(report.Anomalies, "no EIN provided")
		report.RiskScore += 20
	}
	if len(req.Officers) > 5 {
		report.Anomalies = append(report.Anomalies, "more than 5 officers listed")
		report.RiskScore += 10
	}
	if hasPOBox(req.Address) {
		report.Anomalies = append(report.Anomalies, "PO Box detected in address")
		report.RiskScore += 15
	}

	// Property records.
	if req.Address != "" {
		info := property.Lookup(req.Address, req.County)
		report.Property = &info
		report.Anomalies = append(report.Anomalies, info.RiskFlags()...)
		report.RiskScore += propertyScore(info)
	}

	if report.RiskScore > maxScore {
		report.RiskScore = maxScore
	}

	report.SourceLinks = s.sourceLinks(req.Name, report.EntityType)
	s.archiveReport(ctx, report)
	return report, nil
}

// archiveReport stores a copy of the report. Archive failures are logged,
// not surfaced; the caller still gets their report.
func (s *Service) archiveReport(ctx context.Context, report *EntityReport) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode report for archive", "entity", report.Name, "error", err)
		return
	}
	record := &store.Record{
		EntityName:     report.Name,
		ReportType:     store.TypeEntityAnalysis,
		RiskScore:      float64(report.RiskScore),
		RiskAssessment: string(models.RiskLevelFor(float64(report.RiskScore))),
		Payload:        payload,
	}
	if err := s.archive.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "archive report", "entity", report.Name, "error", err)
	}
}

func validate(req AnalyzeRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "entity name is required")
	}
	if len(name) > maxNameLength {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("entity name too long (max %d characters)", maxNameLength))
	}
	if len(req.Address) > maxAddressLength {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("address too long (max %d characters)", maxAddressLength))
	}
	if len(req.County) > maxCountyLength {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("county name too long (max %d characters)", maxCountyLength))
	}
	if len(req.Officers) > maxOfficers {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("too many officers listed (max %d)", maxOfficers))
	}
	if req.EIN != "" && !einRe.MatchString(req.EIN) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid EIN format")
	}
	return nil
}

func courtScore(a courts.Analysis) int {
	score := 0
	if a.HasForeclosure {
		score += 25
	}
	if a.HasBankruptcy {
		score += 30
	}
	if a.HasTaxLien {
		score += 20
	}
	if a.HasCivil {
		score += 15
	}
	for _, indicator := range a.RiskIndicators {
		switch {
		case indicator == "multiple_case_types":
			score += 20
		case strings.HasPrefix(indicator, "recent_court_activity"):
			score += 10
		case strings.HasPrefix(indicator, "high_dollar_cases"):
			score += 15
		}
	}
	return score
}

func officerScore(a officers.Analysis) int {
	score := 0
	if a.HasSharedOfficers {
		score += 15
	}
	if a.HasProblematicOfficers {
		score += 25
	}
	if a.TotalConnectedEntities > 10 {
		score += 20
	}
	return score
}

func monitoringScore(a monitoring.Analysis) int {
	switch a.RiskLevel {
	case "critical":
		return 30
	case "high":
		return 15
	}
	return 0
}

func propertyScore(info property.Info) int {
	score := 0
	if info.DelinquentTaxes {
		score += 20
	}
	landUse := strings.ToLower(info.LandUse)
	if strings.Contains(landUse, "vacant") {
		score += 15
	}
	if strings.Contains(landUse, "mail") {
		score += 25
	}
	if info.MarketValue == "N/A" || info.MarketValue == "$0" {
		score += 10
	}
	return score
}

func domainScore(a domains.Analysis) int {
	score := 0
	if a.HasPrivacyProtection {
		score += 10
	}
	if a.RecentRegistration {
		score += 15
	}
	if !a.HasActiveWebsite {
		score += 5
	}
	return score
}

func ownershipScore(report models.ShellCompanyReport) (int, []string) {
	score := 0
	var anomalies []string

	switch report.RiskAssessment {
	case models.RiskCritical:
		score += 40
		anomalies = append(anomalies, "critical: complex shell company structure detected")
	case models.RiskHigh:
		score += 30
		anomalies = append(anomalies, "high: significant ownership obfuscation detected")
	case models.RiskMedium:
		score += 20
		anomalies = append(anomalies, "medium: concerning ownership patterns found")
	}

	if report.DeepestChainDepth >= 5 {
		anomalies = append(anomalies, "very deep ownership structure (5+ layers)")
	}
	if report.TotalShellIndicators >= 3 {
		anomalies = append(anomalies, "multiple shell company indicators detected")
	}

	return score, anomalies
}

func hasPOBox(address string) bool {
	lower := strings.ToLower(address)
	return strings.Contains(lower, "po box") || strings.Contains(lower, "p.o. box")
}

func (s *Service) sourceLinks(entityName string, classification trust.Classification) map[string]string {
	links := classification.SourceLinks(entityName)
	encoded := strings.ReplaceAll(entityName, " ", "%20")
	links["irs"] = "https://apps.irs.gov/app/eos/allSearch?names=" + encoded
	links["sba"] = "https://www.sba.gov/partners/contracting-officials/procurement-center-representatives/search?name=" + encoded
	return links
}
