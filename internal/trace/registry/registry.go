// Package registry abstracts the public business registry an ownership
// trace crawls. Implementations are network-bound and may fail; every
// failure category below is recoverable at the call site: the graph
// builder treats any of them as "no entity found along this path".
package registry

import (
	"context"
	"errors"

	"ledgertrace/internal/trace/models"
)

// Failure taxonomy for registry calls. Wrap with fmt.Errorf("%w: ...", ...)
// so callers can branch with errors.Is.
var (
	// ErrNotFound means the registry answered but had no matching record.
	ErrNotFound = errors.New("registry: not found")
	// ErrTransport covers network and timeout failures.
	ErrTransport = errors.New("registry: transport failure")
	// ErrThrottled is the HTTP 429 equivalent; callers should pause once.
	ErrThrottled = errors.New("registry: throttled")
	// ErrParse means the response arrived but could not be understood.
	ErrParse = errors.New("registry: malformed response")
)

// Stub is a lightweight entity reference returned by searches; callers
// follow up with FetchDetails for the full record.
type Stub struct {
	FilingID string
	Name     string
}

// Source is the external system of record for entity filings and officers.
//
// FindByOfficer is a first-class but optional capability: registries without
// an officer index return ErrNotFound and the crawl simply cannot expand
// along that axis.
type Source interface {
	Search(ctx context.Context, query string) (Stub, error)
	FetchDetails(ctx context.Context, filingID string) (*models.Entity, error)
	FindByOfficer(ctx context.Context, normalizedName string) ([]Stub, error)
}
