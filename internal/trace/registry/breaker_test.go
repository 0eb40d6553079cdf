package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgertrace/internal/trace/models"
	"ledgertrace/pkg/platform/circuit"
)

type flakySource struct {
	err   error
	calls int
}

func (f *flakySource) Search(context.Context, string) (Stub, error) {
	f.calls++
	if f.err != nil {
		return Stub{}, f.err
	}
	return Stub{FilingID: "L21000123456", Name: "SUNSHINE HOLDINGS LLC"}, nil
}

func (f *flakySource) FetchDetails(context.Context, string) (*models.Entity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Entity{Name: "SUNSHINE HOLDINGS LLC"}, nil
}

func (f *flakySource) FindByOfficer(context.Context, string) ([]Stub, error) {
	f.calls++
	return nil, f.err
}

func newGuarded(src Source, opts ...circuit.Option) *GuardedSource {
	return Guard(src, circuit.New("sunbiz", opts...), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGuardedSourcePassesThrough(t *testing.T) {
	src := &flakySource{}
	guarded := newGuarded(src)

	stub, err := guarded.Search(context.Background(), "Sunshine Holdings LLC")
	require.NoError(t, err)
	assert.Equal(t, "L21000123456", stub.FilingID)
	assert.Equal(t, 1, src.calls)
}

func TestGuardedSourceOpensOnTransportFailures(t *testing.T) {
	src := &flakySource{err: fmt.Errorf("%w: connection refused", ErrTransport)}
	guarded := newGuarded(src, circuit.WithFailureThreshold(2))

	ctx := context.Background()
	_, err := guarded.Search(ctx, "Acme LLC")
	require.ErrorIs(t, err, ErrTransport)
	_, err = guarded.Search(ctx, "Acme LLC")
	require.ErrorIs(t, err, ErrTransport)

	// Circuit is now open; the source stops seeing traffic.
	calls := src.calls
	_, err = guarded.FetchDetails(ctx, "L21000123456")
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, calls, src.calls)
}

func TestGuardedSourceNotFoundIsNotAFailure(t *testing.T) {
	src := &flakySource{err: fmt.Errorf("%w: no match", ErrNotFound)}
	guarded := newGuarded(src, circuit.WithFailureThreshold(1))

	for i := 0; i < 5; i++ {
		_, err := guarded.Search(context.Background(), "Ghost Corp")
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 5, src.calls)
}

func TestGuardedSourceProbesWhileOpen(t *testing.T) {
	src := &flakySource{err: fmt.Errorf("%w: connection refused", ErrTransport)}
	guarded := newGuarded(src, circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))

	ctx := context.Background()
	_, err := guarded.Search(ctx, "Acme LLC")
	require.ErrorIs(t, err, ErrTransport)

	// Registry recovers; enough attempts must include a probe that
	// closes the circuit again.
	src.err = nil
	var recovered bool
	for i := 0; i < probeEvery*2; i++ {
		if _, err := guarded.Search(ctx, "Acme LLC"); err == nil {
			recovered = true
			break
		}
	}
	require.True(t, recovered)

	stub, err := guarded.Search(ctx, "Acme LLC")
	require.NoError(t, err)
	assert.Equal(t, "SUNSHINE HOLDINGS LLC", stub.Name)
}
