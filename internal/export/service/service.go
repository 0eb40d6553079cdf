// Package service writes entity analysis reports to disk as downloadable
// JSON documents.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	analyzer "ledgertrace/internal/analyzer/service"
	dErrors "ledgertrace/pkg/domain-errors"
)

const (
	reportVersion   = "1.0"
	maxFilenameStem = 50
	exportDirPerms  = 0o750
	timestampLayout = "2006-01-02_15-04-05"
)

// Section names a report section a caller can include.
const (
	SectionEntityInfo    = "entity_info"
	SectionCourtActivity = "court_activity"
	SectionDomainInfo    = "domain_info"
	SectionOfficers      = "officer_data"
	SectionGrantsData    = "grants_data"
	SectionMonitoring    = "monitoring_data"
	SectionCountyOffices = "county_offices"
	SectionOwnership     = "ownership_data"
)

// DefaultSections is the section set used when a request names none.
var DefaultSections = []string{
	SectionEntityInfo,
	SectionCourtActivity,
	SectionDomainInfo,
	SectionOfficers,
	SectionGrantsData,
	SectionMonitoring,
	SectionCountyOffices,
	SectionOwnership,
}

// Analyzer produces the entity report an export is built from. The analyzer
// service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.AnalyzeRequest) (*analyzer.EntityReport, error)
}

// ExportRequest asks for a report on one entity with selected sections.
type ExportRequest struct {
	Entity   analyzer.AnalyzeRequest
	Sections []string
}

// ExportResult describes a written report file.
type ExportResult struct {
	FileName    string    `json:"file_name"`
	Format      string    `json:"export_format"`
	FileSize    int64     `json:"file_size"`
	GeneratedAt time.Time `json:"generated_at"`
	EntityName  string    `json:"entity_name"`
	RiskScore   int       `json:"risk_score"`
	DownloadURL string    `json:"download_url"`
}

// ExportFile is one previously written report on disk.
type ExportFile struct {
	FileName string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Format   string    `json:"format"`
}

// Service renders and stores export files.
type Service struct {
	analyzer Analyzer
	dir      string
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock injects the report clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the export service. The export directory is created if
// missing.
func New(analyzer Analyzer, dir string, opts ...Option) (*Service, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve export dir: %w", err)
	}
	if err := os.MkdirAll(abs, exportDirPerms); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	s := &Service{
		analyzer: analyzer,
		dir:      abs,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Export analyzes the entity and writes the selected sections as a JSON
// report file.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	report, err := s.analyzer.Analyze(ctx, req.Entity)
	if err != nil {
		return nil, err
	}

	sections := req.Sections
	if len(sections) == 0 {
		sections = DefaultSections
	}

	generatedAt := s.now().UTC()
	timestamp := generatedAt.Format(timestampLayout)
	filename := fmt.Sprintf("%s_report_%s.json", sanitizeFilename(report.Name), timestamp)

	doc := s.buildDocument(report, req, sections, generatedAt, timestamp)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode export report")
	}

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "write export report")
	}

	s.logger.InfoContext(ctx, "export written",
		"entity", report.Name,
		"file", filename,
		"bytes", len(data),
	)

	return &ExportResult{
		FileName:    filename,
		Format:      "json",
		FileSize:    int64(len(data)),
		GeneratedAt: generatedAt,
		EntityName:  report.Name,
		RiskScore:   report.RiskScore,
		DownloadURL: "/exports/" + filename,
	}, nil
}

// document mirrors the layered report layout consumers expect: metadata,
// echoed input, the headline assessment, then per-section detail.
type document struct {
	Metadata       metadata       `json:"report_metadata"`
	EntityInput    entityInput    `json:"entity_input"`
	RiskAssessment riskAssessment `json:"risk_assessment"`
	Results        map[string]any `json:"analysis_results"`
}

type metadata struct {
	EntityName        string   `json:"entity_name"`
	GeneratedAt       string   `json:"generated_at"`
	AnalysisTimestamp string   `json:"analysis_timestamp"`
	ReportVersion     string   `json:"report_version"`
	ExportFormat      string   `json:"export_format"`
	SectionsIncluded  []string `json:"sections_included"`
}

type entityInput struct {
	Name     string   `json:"name"`
	Address  string   `json:"address,omitempty"`
	EIN      string   `json:"ein,omitempty"`
	Officers []string `json:"officers,omitempty"`
	County   string   `json:"county,omitempty"`
}

type riskAssessment struct {
	OverallRiskScore int      `json:"overall_risk_score"`
	RiskLevel        string   `json:"risk_level"`
	AnomalyCount     int      `json:"anomaly_count"`
	Anomalies        []string `json:"anomalies"`
}

func (s *Service) buildDocument(
	report *analyzer.EntityReport,
	req ExportRequest,
	sections []string,
	generatedAt time.Time,
	timestamp string,
) document {
	doc := document{
		Metadata: metadata{
			EntityName:        report.Name,
			GeneratedAt:       generatedAt.Format(time.RFC3339),
			AnalysisTimestamp: timestamp,
			ReportVersion:     reportVersion,
			ExportFormat:      "json",
			SectionsIncluded:  sections,
		},
		EntityInput: entityInput{
			Name:     req.Entity.Name,
			Address:  req.Entity.Address,
			EIN:      req.Entity.EIN,
			Officers: req.Entity.Officers,
			County:   req.Entity.County,
		},
		RiskAssessment: riskAssessment{
			OverallRiskScore: report.RiskScore,
			RiskLevel:        riskLevel(report.RiskScore),
			AnomalyCount:     len(report.Anomalies),
			Anomalies:        report.Anomalies,
		},
		Results: make(map[string]any),
	}

	for _, section := range sections {
		switch section {
		case SectionEntityInfo:
			doc.Results["entity_classification"] = report.EntityType
		case SectionCourtActivity:
			doc.Results["court_analysis"] = report.CourtData
		case SectionDomainInfo:
			doc.Results["domain_analysis"] = report.DomainData
		case SectionOfficers:
			doc.Results["officer_analysis"] = report.OfficerData
		case SectionGrantsData:
			doc.Results["funding_analysis"] = report.GrantsData
		case SectionMonitoring:
			doc.Results["monitoring_report"] = report.MonitoringData
		case SectionCountyOffices:
			if report.Property != nil {
				doc.Results["property_record"] = report.Property
			}
		case SectionOwnership:
			if report.Ownership != nil {
				doc.Results["ownership_analysis"] = report.Ownership
			}
		}
	}

	return doc
}

// FilePath validates a download filename and resolves it inside the export
// directory. Path components and unexpected extensions are rejected.
func (s *Service) FilePath(filename string) (string, error) {
	if filename == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "filename is required")
	}
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid filename")
	}
	if !strings.HasSuffix(filename, ".json") {
		return "", dErrors.New(dErrors.CodeBadRequest, "file extension not allowed")
	}

	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", dErrors.New(dErrors.CodeNotFound, "export not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "stat export file")
	}
	return path, nil
}

// ListExports returns the available report files, newest first.
func (s *Service) ListExports() ([]ExportFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read export dir")
	}

	exports := []ExportFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		exports = append(exports, ExportFile{
			FileName: entry.Name(),
			Size:     info.Size(),
			Created:  info.ModTime().UTC(),
			Format:   "json",
		})
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Created.After(exports[j].Created)
	})
	return exports, nil
}

// sanitizeFilename reduces an entity name to a safe filename stem.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "entity_report"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	sanitized := b.String()
	if len(sanitized) > maxFilenameStem {
		sanitized = sanitized[:maxFilenameStem]
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_.")
	if sanitized == "" {
		return "entity_report"
	}
	return sanitized
}

func riskLevel(score int) string {
	switch {
	case score < 30:
		return "Low Risk"
	case score < 70:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}
