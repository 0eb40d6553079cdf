package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"ledgertrace/internal/trace/models"
	"ledgertrace/pkg/platform/circuit"
)

// While open, one call in probeEvery is allowed through to test whether
// the registry has recovered. The rest fail fast.
const probeEvery = 10

// GuardedSource wraps a Source with a circuit breaker. While the breaker
// is open calls fail fast with ErrTransport instead of hammering a
// registry that is already refusing us; the graph builder treats that the
// same as any other transport failure and prunes the path.
type GuardedSource struct {
	source  Source
	breaker *circuit.Breaker
	logger  *slog.Logger
	probes  atomic.Uint64
}

// Guard decorates src with breaker. A nil logger falls back to
// slog.Default.
func Guard(src Source, breaker *circuit.Breaker, logger *slog.Logger) *GuardedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedSource{source: src, breaker: breaker, logger: logger}
}

// Search implements Source.
func (g *GuardedSource) Search(ctx context.Context, query string) (Stub, error) {
	if g.shortCircuit() {
		return Stub{}, g.openErr()
	}
	stub, err := g.source.Search(ctx, query)
	g.record(ctx, err)
	return stub, err
}

// FetchDetails implements Source.
func (g *GuardedSource) FetchDetails(ctx context.Context, filingID string) (*models.Entity, error) {
	if g.shortCircuit() {
		return nil, g.openErr()
	}
	entity, err := g.source.FetchDetails(ctx, filingID)
	g.record(ctx, err)
	return entity, err
}

// FindByOfficer implements Source.
func (g *GuardedSource) FindByOfficer(ctx context.Context, normalizedName string) ([]Stub, error) {
	if g.shortCircuit() {
		return nil, g.openErr()
	}
	stubs, err := g.source.FindByOfficer(ctx, normalizedName)
	g.record(ctx, err)
	return stubs, err
}

func (g *GuardedSource) shortCircuit() bool {
	if !g.breaker.IsOpen() {
		return false
	}
	return g.probes.Add(1)%probeEvery != 0
}

func (g *GuardedSource) openErr() error {
	return fmt.Errorf("%w: circuit %s open", ErrTransport, g.breaker.Name())
}

// record feeds the call outcome into the breaker. Only transport-level
// failures count against it: ErrNotFound and ErrParse mean the registry
// answered, so they count as successes for availability purposes.
func (g *GuardedSource) record(ctx context.Context, err error) {
	if err != nil && (errors.Is(err, ErrTransport) || errors.Is(err, ErrThrottled)) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "registry circuit opened",
				"circuit", g.breaker.Name(), "error", err)
		}
		return
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "registry circuit closed", "circuit", g.breaker.Name())
	}
}
