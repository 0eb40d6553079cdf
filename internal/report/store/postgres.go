package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgertrace/pkg/platform/sentinel"
)

// Schema is the report archive DDL. Deployments apply it via their
// migration tooling; integration tests apply it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
    id              UUID PRIMARY KEY,
    entity_name     TEXT NOT NULL,
    report_type     TEXT NOT NULL,
    risk_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
    risk_assessment TEXT NOT NULL DEFAULT '',
    payload         JSONB NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS reports_entity_name_idx ON reports (lower(entity_name));
CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC);
`

// PostgresStore is the durable report archive.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres constructs a report archive over a connection pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Save archives a report.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (id, entity_name, report_type, risk_score, risk_assessment, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.EntityName, record.ReportType,
		record.RiskScore, record.RiskAssessment, record.Payload, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// FindByID returns one archived report.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, entity_name, report_type, risk_score, risk_assessment, payload, created_at
		FROM reports WHERE id = $1`, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select report: %w", err)
	}
	return record, nil
}

// List returns archived reports, newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_name, report_type, risk_score, risk_assessment, payload, created_at
		FROM reports
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByEntity returns an entity's archived reports, newest first.
func (s *PostgresStore) ListByEntity(ctx context.Context, entityName string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_name, report_type, risk_score, risk_assessment, payload, created_at
		FROM reports
		WHERE lower(entity_name) = lower($1)
		ORDER BY created_at DESC, id`, entityName)
	if err != nil {
		return nil, fmt.Errorf("list reports by entity: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Count returns the number of archived reports.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM reports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

// Delete removes one archived report.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var record Record
	err := row.Scan(
		&record.ID, &record.EntityName, &record.ReportType,
		&record.RiskScore, &record.RiskAssessment, &record.Payload, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return records, nil
}
