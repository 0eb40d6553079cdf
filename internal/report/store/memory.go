package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgertrace/pkg/platform/sentinel"
)

// MemoryStore is an in-memory report archive for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time
}

// NewMemory constructs an empty in-memory archive.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]Record),
		now:     time.Now,
	}
}

// WithClock overrides the archive clock for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Save archives a report.
func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	s.records[record.ID] = *record
	return nil
}

// FindByID returns one archived report.
func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

// List returns archived reports, newest first.
func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	s.mu.RLock()
	all := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		all = append(all, record)
	}
	s.mu.RUnlock()

	sortNewestFirst(all)

	if offset >= len(all) {
		return []Record{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListByEntity returns an entity's archived reports, newest first.
func (s *MemoryStore) ListByEntity(ctx context.Context, entityName string) ([]Record, error) {
	s.mu.RLock()
	matched := []Record{}
	for _, record := range s.records {
		if strings.EqualFold(record.EntityName, entityName) {
			matched = append(matched, record)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	return matched, nil
}

// Count returns the number of archived reports.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Delete removes one archived report.
func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
