package graph

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgertrace/internal/trace/identity"
	"ledgertrace/internal/trace/metrics"
	"ledgertrace/internal/trace/models"
	"ledgertrace/internal/trace/registry"
)

// Officer titles that indicate control of an entity rather than mere
// association.
var ownershipTitles = []string{
	"president", "ceo", "managing member", "manager",
	"sole member", "owner", "principal", "managing director",
}

// MaxDepth bounds caller-supplied expansion depth.
const MaxDepth = 10

// Builder expands the entity network level by level through a registry
// source. One Builder serves one crawl session: it owns the session pacer
// and writes into a single network.
type Builder struct {
	source  registry.Source
	pacer   *registry.Pacer
	matcher identity.Matcher

	throttlePause time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	sleep         func(ctx context.Context, d time.Duration)
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// WithMetrics attaches crawl metrics.
func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

// WithThrottlePause overrides the single pause taken after a throttled
// registry response.
func WithThrottlePause(d time.Duration) BuilderOption {
	return func(b *Builder) { b.throttlePause = d }
}

// NewBuilder constructs a Builder for one crawl session.
func NewBuilder(source registry.Source, pacer *registry.Pacer, matcher identity.Matcher, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:        source,
		pacer:         pacer,
		matcher:       matcher,
		throttlePause: 10 * time.Second,
		logger:        slog.Default(),
		sleep:         sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs a level-synchronous breadth-first expansion from root. Lookups
// within a level run concurrently but every outbound call passes through
// the session pacer; discovered entities merge serially after each level so
// a filing ID enters the network exactly once, at its first depth.
//
// Registry failures never abort the build: the affected branch simply
// contributes no further entities or edges.
func (b *Builder) Build(ctx context.Context, root *models.Entity, maxDepth int) *Network {
	network := NewNetwork(root)
	frontier := []string{root.FilingID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		known := make(map[string]bool, network.Size())
		for id := range network.Entities {
			known[id] = true
		}

		results := make([][]*models.Entity, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range frontier {
			i := i
			entity := network.Entities[id]
			g.Go(func() error {
				results[i] = b.discoverRelated(gctx, entity, known)
				return nil
			})
		}
		_ = g.Wait()

		var next []string
		for i, id := range frontier {
			parent := network.Entities[id]
			for _, found := range results[i] {
				if _, exists := network.Entities[found.FilingID]; exists {
					continue
				}
				found.OwnershipDepth = depth + 1
				network.Entities[found.FilingID] = found
				next = append(next, found.FilingID)

				if b.isOwnership(parent, found) {
					parent.Owns = append(parent.Owns, found.FilingID)
					found.OwnedBy = append(found.OwnedBy, parent.FilingID)
				}
			}
		}
		frontier = next
	}

	b.logger.InfoContext(ctx, "ownership network built",
		"root", root.FilingID,
		"entities", network.Size(),
	)
	if b.metrics != nil {
		b.metrics.ObserveEntitiesDiscovered(network.Size())
	}
	return network
}

// discoverRelated finds entities sharing a similar officer identity with the
// given entity. known is a read-only snapshot of ids already in the network
// when the level started; skipping them saves detail fetches.
func (b *Builder) discoverRelated(ctx context.Context, entity *models.Entity, known map[string]bool) []*models.Entity {
	seen := map[string]bool{entity.FilingID: true}
	var related []*models.Entity

	for _, officer := range entity.Officers {
		if ctx.Err() != nil {
			return related
		}

		b.pacer.Wait(ctx)
		stubs, err := b.source.FindByOfficer(ctx, officer.NormalizedName)
		if err != nil {
			b.recordFailure(ctx, "find_by_officer", entity.FilingID, err)
			continue
		}
		b.recordSuccess("find_by_officer")

		for _, stub := range stubs {
			if seen[stub.FilingID] || known[stub.FilingID] {
				continue
			}
			seen[stub.FilingID] = true

			b.pacer.Wait(ctx)
			detail, err := b.source.FetchDetails(ctx, stub.FilingID)
			if err != nil {
				b.recordFailure(ctx, "fetch_details", stub.FilingID, err)
				continue
			}
			b.recordSuccess("fetch_details")

			if b.hasSharedOfficer(entity, detail) {
				related = append(related, detail)
			}
		}
	}
	return related
}

// hasSharedOfficer reports whether two entities share an officer identity
// under the configured name threshold.
func (b *Builder) hasSharedOfficer(e1, e2 *models.Entity) bool {
	for _, o1 := range e1.Officers {
		for _, o2 := range e2.Officers {
			if b.matcher.SameName(o1.NormalizedName, o2.NormalizedName) {
				return true
			}
		}
	}
	return false
}

// isOwnership reports whether owner controls owned: an officer of owner
// holding an ownership-indicative title must be the same identity as an
// officer of owned.
func (b *Builder) isOwnership(owner, owned *models.Entity) bool {
	for _, officer := range owner.Officers {
		if !hasOwnershipTitle(officer.Title) {
			continue
		}
		for _, other := range owned.Officers {
			if b.matcher.SameName(officer.NormalizedName, other.NormalizedName) {
				return true
			}
		}
	}
	return false
}

func hasOwnershipTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, t := range ownershipTitles {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func (b *Builder) recordFailure(ctx context.Context, operation, filingID string, err error) {
	b.logger.DebugContext(ctx, "registry lookup failed",
		"operation", operation,
		"filing_id", filingID,
		"error", err,
	)
	if b.metrics != nil {
		b.metrics.IncRegistryRequest(operation, metrics.OutcomeFor(err))
	}
	if errors.Is(err, registry.ErrThrottled) {
		b.sleep(ctx, b.throttlePause)
	}
}

func (b *Builder) recordSuccess(operation string) {
	if b.metrics != nil {
		b.metrics.IncRegistryRequest(operation, "ok")
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
