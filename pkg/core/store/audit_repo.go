package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"counterparty_analyzer/pkg/core/analysis"

	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the audit table when it is missing.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_audit (
	request_id  TEXT PRIMARY KEY,
	company     TEXT,
	period      TEXT,
	report_json JSONB NOT NULL,
	timing_json JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);
ALTER TABLE analysis_audit ADD COLUMN IF NOT EXISTS correlation_id TEXT;`

// AuditRecord is one completed analysis as it is written to the audit log.
type AuditRecord struct {
	RequestID string
	// CorrelationID is the caller's own request reference, if any. It is
	// not unique.
	CorrelationID string
	Company       string
	Period        string
	Report        *analysis.Report
	CreatedAt     time.Time
}

// NewAuditRecord captures a finished report.
func NewAuditRecord(requestID string, report *analysis.Report) *AuditRecord {
	return &AuditRecord{
		RequestID: requestID,
		Company:   report.CompanyName,
		Period:    report.Period,
		Report:    report,
		CreatedAt: time.Now().UTC(),
	}
}

// Execer is the part of a pgx pool or connection the repository uses.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditRepo writes audit records. It never reads on the request path.
type AuditRepo struct {
	db Execer
}

// NewAuditRepo creates a repository on db. A nil db uses the shared pool.
func NewAuditRepo(db Execer) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) conn() Execer {
	if r.db != nil {
		return r.db
	}
	if p := GetPool(); p != nil {
		return p
	}
	return nil
}

// EnsureSchema creates the audit table.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	db := r.conn()
	if db == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

// Save inserts the record. Rows are never overwritten: a repeated request id
// leaves the first row in place.
func (r *AuditRepo) Save(ctx context.Context, rec *AuditRecord) error {
	db := r.conn()
	if db == nil {
		return fmt.Errorf("database pool not initialized")
	}

	reportJSON, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	timingJSON, err := json.Marshal(rec.Report.Timing)
	if err != nil {
		return fmt.Errorf("failed to marshal timing: %w", err)
	}

	query := `
		INSERT INTO analysis_audit (request_id, company, period, report_json, timing_json, created_at, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		ON CONFLICT (request_id) DO NOTHING;
	`

	_, err = db.Exec(ctx, query, rec.RequestID, rec.Company, rec.Period, reportJSON, timingJSON, rec.CreatedAt, rec.CorrelationID)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}
