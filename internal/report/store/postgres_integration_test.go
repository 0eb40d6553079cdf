//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ledgertrace/internal/report/store"
	"ledgertrace/pkg/platform/sentinel"
	"ledgertrace/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), store.Schema))
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "reports"))
}

func newArchivedReport(entity string, score float64) *store.Record {
	return &store.Record{
		EntityName:     entity,
		ReportType:     store.TypeShellCompany,
		RiskScore:      score,
		RiskAssessment: "HIGH",
		Payload:        json.RawMessage(`{"entity_name": "` + entity + `"}`),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()

	record := newArchivedReport("Sunshine Holdings LLC", 65)
	s.Require().NoError(s.store.Save(ctx, record))
	s.NotEqual(uuid.Nil, record.ID)

	found, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal("Sunshine Holdings LLC", found.EntityName)
	s.Equal(65.0, found.RiskScore)
	s.JSONEq(string(record.Payload), string(found.Payload))
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, uuid.New()), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrdering() {
	ctx := context.Background()

	for _, entity := range []string{"Alpha LLC", "Beta LLC", "Gamma LLC"} {
		s.Require().NoError(s.store.Save(ctx, newArchivedReport(entity, 40)))
	}

	records, err := s.store.List(ctx, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.True(!records[0].CreatedAt.Before(records[1].CreatedAt), "newest first")

	rest, err := s.store.List(ctx, 10, 2)
	s.Require().NoError(err)
	s.Len(rest, 1)
}

func (s *PostgresStoreSuite) TestListByEntityCaseInsensitive() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, newArchivedReport("Sunshine Holdings LLC", 40)))
	s.Require().NoError(s.store.Save(ctx, newArchivedReport("SUNSHINE HOLDINGS LLC", 65)))
	s.Require().NoError(s.store.Save(ctx, newArchivedReport("Other LLC", 10)))

	records, err := s.store.ListByEntity(ctx, "sunshine holdings llc")
	s.Require().NoError(err)
	s.Len(records, 2)
}

func (s *PostgresStoreSuite) TestConcurrentSaves() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var failures atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record := newArchivedReport("Concurrent Entity "+uuid.NewString(), 40)
			if err := s.store.Save(ctx, record); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(goroutines, count)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()

	record := newArchivedReport("Sunshine Holdings LLC", 40)
	s.Require().NoError(s.store.Save(ctx, record))
	s.Require().NoError(s.store.Delete(ctx, record.ID))

	_, err := s.store.FindByID(ctx, record.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
