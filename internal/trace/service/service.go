// Package service orchestrates a full ownership trace: root lookup, graph
// expansion, chain extraction, and risk scoring.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"ledgertrace/internal/platform/config"
	"ledgertrace/internal/report/store"
	"ledgertrace/internal/trace/chain"
	"ledgertrace/internal/trace/graph"
	"ledgertrace/internal/trace/identity"
	"ledgertrace/internal/trace/metrics"
	"ledgertrace/internal/trace/models"
	"ledgertrace/internal/trace/registry"
	"ledgertrace/internal/trace/risk"
	dErrors "ledgertrace/pkg/domain-errors"
)

const maxEntityNameLength = 200

// TraceRequest carries the caller's crawl parameters. Zero values fall back
// to configured defaults.
type TraceRequest struct {
	EntityName       string
	MaxDepth         int
	NameThreshold    float64
	AddressThreshold float64
}

// TraceResult is the outcome of one trace session. Chains are sorted by
// descending risk score.
type TraceResult struct {
	EntityName string
	Network    *graph.Network
	Chains     []models.OwnershipChain
}

// Service runs ownership traces against a registry source. Each call opens
// its own crawl session with a fresh pacer, so concurrent traces pace
// independently.
type Service struct {
	source  registry.Source
	cfg     config.Config
	archive store.Store

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches trace metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock injects the session clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithArchive stores each generated shell company report for later review.
func WithArchive(archive store.Store) Option {
	return func(s *Service) { s.archive = archive }
}

// New constructs the trace service.
func New(source registry.Source, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		source: source,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TraceOwnership crawls the ownership network of the named entity and
// returns its scored chains, highest risk first. A root entity missing from
// the registry yields an empty result, not an error.
func (s *Service) TraceOwnership(ctx context.Context, req TraceRequest) (*TraceResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.trace(ctx, req)
}

// GenerateShellCompanyReport runs a trace at the default depth and folds the
// scored chains into the terminal report.
func (s *Service) GenerateShellCompanyReport(ctx context.Context, entityName string) (models.ShellCompanyReport, error) {
	req, err := s.normalize(TraceRequest{EntityName: entityName})
	if err != nil {
		return models.ShellCompanyReport{}, err
	}

	result, err := s.trace(ctx, req)
	if err != nil {
		return models.ShellCompanyReport{}, err
	}

	scorer := s.scorer(req)
	report := scorer.BuildReport(req.EntityName, result.Network, result.Chains)
	s.archiveReport(ctx, report)
	return report, nil
}

// archiveReport stores a copy of the shell company report. Archive failures
// are logged, not surfaced.
func (s *Service) archiveReport(ctx context.Context, report models.ShellCompanyReport) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode report for archive", "entity", report.EntityName, "error", err)
		return
	}
	record := &store.Record{
		EntityName:     report.EntityName,
		ReportType:     store.TypeShellCompany,
		RiskScore:      report.MaxRiskScore,
		RiskAssessment: string(report.RiskAssessment),
		Payload:        payload,
	}
	if err := s.archive.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "archive report", "entity", report.EntityName, "error", err)
	}
}

// normalize validates the request and fills in configured defaults. All
// validation happens before any network traffic.
func (s *Service) normalize(req TraceRequest) (TraceRequest, error) {
	req.EntityName = strings.TrimSpace(req.EntityName)
	if req.EntityName == "" {
		return req, dErrors.New(dErrors.CodeBadRequest, "entity name is required")
	}
	if len(req.EntityName) > maxEntityNameLength {
		return req, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("entity name exceeds %d characters", maxEntityNameLength))
	}

	if req.MaxDepth == 0 {
		req.MaxDepth = s.cfg.Trace.DefaultMaxDepth
	}
	if req.MaxDepth < 1 || req.MaxDepth > graph.MaxDepth {
		return req, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("max depth must be between 1 and %d", graph.MaxDepth))
	}

	if req.NameThreshold == 0 {
		req.NameThreshold = s.cfg.Trace.NameThreshold
	}
	if req.AddressThreshold == 0 {
		req.AddressThreshold = s.cfg.Trace.AddressThreshold
	}
	if req.NameThreshold <= 0 || req.NameThreshold > 1 {
		return req, dErrors.New(dErrors.CodeBadRequest, "name threshold must be in (0, 1]")
	}
	if req.AddressThreshold <= 0 || req.AddressThreshold > 1 {
		return req, dErrors.New(dErrors.CodeBadRequest, "address threshold must be in (0, 1]")
	}
	return req, nil
}

func (s *Service) trace(ctx context.Context, req TraceRequest) (*TraceResult, error) {
	start := s.now()
	pacer := registry.NewPacer(s.cfg.Registry.RequestDelay)
	matcher := identity.Matcher{
		NameThreshold:    req.NameThreshold,
		AddressThreshold: req.AddressThreshold,
	}

	// Every registry failure category is recoverable: a root lookup that
	// fails for any reason yields a well-formed empty report, the same as
	// an entity the registry has never heard of.
	pacer.Wait(ctx)
	stub, err := s.source.Search(ctx, req.EntityName)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.logger.InfoContext(ctx, "root entity not found", "entity", req.EntityName)
		} else {
			s.logger.WarnContext(ctx, "root search failed", "entity", req.EntityName, "error", err)
		}
		return &TraceResult{EntityName: req.EntityName}, nil
	}

	pacer.Wait(ctx)
	root, err := s.source.FetchDetails(ctx, stub.FilingID)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			s.logger.WarnContext(ctx, "root detail fetch failed", "entity", req.EntityName, "error", err)
		}
		return &TraceResult{EntityName: req.EntityName}, nil
	}

	builder := graph.NewBuilder(s.source, pacer, matcher,
		graph.WithLogger(s.logger),
		graph.WithMetrics(s.metrics),
		graph.WithThrottlePause(s.cfg.Registry.ThrottlePause),
	)
	network := builder.Build(ctx, root, req.MaxDepth)

	chains := chain.NewExtractor().Extract(network)
	scorer := s.scorer(req)
	for i := range chains {
		scorer.Score(&chains[i], network.Resolve(chains[i].EntityIDs))
	}
	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].RiskScore > chains[j].RiskScore
	})

	s.logger.InfoContext(ctx, "ownership trace complete",
		"entity", req.EntityName,
		"entities", network.Size(),
		"chains", len(chains),
		"elapsed", s.now().Sub(start),
	)
	if s.metrics != nil {
		s.metrics.ObserveCrawl(s.now().Sub(start))
		s.metrics.ObserveChainsFound(len(chains))
	}

	return &TraceResult{
		EntityName: req.EntityName,
		Network:    network,
		Chains:     chains,
	}, nil
}

func (s *Service) scorer(req TraceRequest) *risk.Scorer {
	matcher := identity.Matcher{
		NameThreshold:    req.NameThreshold,
		AddressThreshold: req.AddressThreshold,
	}
	return risk.NewScorer(matcher, risk.WithClock(s.now))
}
