package sqlxrepos

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/report"
	"github.com/faithpod/portal/storage/database"
)

func openTestDB(t *testing.T) *exportRepository {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine: database.EngineSQLite,
		Path:   filepath.Join(t.TempDir(), "portal.db"),
	}}
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "up"))
	return NewExportRepository(db)
}

func TestExportRepository(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	newRecord := func(tenant string, offset time.Duration) report.ExportRecord {
		return report.ExportRecord{
			ID:        uuid.New(),
			Tenant:    tenant,
			UserID:    7,
			UserEmail: "treasurer@karen.org",
			Kind:      report.Contributions,
			Format:    report.XLSX,
			Rows:      3,
			Total:     decimal.RequireFromString("1500.50"),
			CreatedAt: base.Add(offset),
		}
	}

	first := newRecord("karen", 0)
	second := newRecord("karen", time.Hour)
	second.Kind = report.Transactions
	second.Format = report.PDF
	second.EmailedTo = "board@karen.org"
	other := newRecord("kilimani", 2*time.Hour)

	for _, rec := range []report.ExportRecord{first, second, other} {
		require.NoError(t, repo.CreateExport(ctx, rec))
	}

	recs, err := repo.QueryExports(ctx, "karen", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, second.ID, recs[0].ID)
	assert.Equal(t, report.Transactions, recs[0].Kind)
	assert.Equal(t, report.PDF, recs[0].Format)
	assert.Equal(t, "board@karen.org", recs[0].EmailedTo)
	assert.True(t, second.CreatedAt.Equal(recs[0].CreatedAt))

	assert.Equal(t, first.ID, recs[1].ID)
	assert.Equal(t, 7, recs[1].UserID)
	assert.Equal(t, 3, recs[1].Rows)
	assert.True(t, first.Total.Equal(recs[1].Total), recs[1].Total.String())

	recs, err = repo.QueryExports(ctx, "karen", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = repo.QueryExports(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Len(t, recs, 0)
}

func TestExportRepository_DuplicateID(t *testing.T) {
	repo := openTestDB(t)
	rec := report.ExportRecord{ID: uuid.New(), Tenant: "karen", Kind: report.Contributions, Format: report.XLSX, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateExport(context.Background(), rec))
	assert.Error(t, repo.CreateExport(context.Background(), rec))
}
