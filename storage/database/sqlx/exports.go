package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/report"
)

const exportColumns = "id, tenant, user_id, user_email, kind, format, rows_count, total, emailed_to, created_at"

type exportRepository struct {
	db *sqlx.DB
}

func NewExportRepository(db *sqlx.DB) *exportRepository {
	return &exportRepository{db: db}
}

func (repo exportRepository) CreateExport(ctx context.Context, rec report.ExportRecord) error {
	rec.CreatedAt = rec.CreatedAt.UTC()
	q := `INSERT INTO report_exports (` + exportColumns + `)
		VALUES (:id, :tenant, :user_id, :user_email, :kind, :format, :rows_count, :total, :emailed_to, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, rec); err != nil {
		return errors.Wrap(err, "inserting report export")
	}
	return nil
}

// QueryExports returns the latest exports of tenant, newest first.
func (repo exportRepository) QueryExports(ctx context.Context, tenant string, limit int) ([]report.ExportRecord, error) {
	recs := make([]report.ExportRecord, 0)
	q := repo.db.Rebind(`SELECT ` + exportColumns + ` FROM report_exports
		WHERE tenant = ? ORDER BY created_at DESC LIMIT ?`)
	if err := repo.db.SelectContext(ctx, &recs, q, tenant, limit); err != nil {
		return nil, errors.Wrap(err, "querying report exports")
	}
	return recs, nil
}
