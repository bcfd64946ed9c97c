package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/core/report"
)

func TestExportRepository(t *testing.T) {
	repo := NewExportRepository()
	ctx := context.Background()
	now := time.Now()

	old := report.ExportRecord{ID: uuid.New(), Tenant: "karen", CreatedAt: now.Add(-time.Hour)}
	recent := report.ExportRecord{ID: uuid.New(), Tenant: "karen", CreatedAt: now}
	other := report.ExportRecord{ID: uuid.New(), Tenant: "kilimani", CreatedAt: now}

	require.NoError(t, repo.CreateExport(ctx, old))
	require.NoError(t, repo.CreateExport(ctx, recent))
	require.NoError(t, repo.CreateExport(ctx, other))
	assert.Error(t, repo.CreateExport(ctx, old))

	recs, err := repo.QueryExports(ctx, "karen", 10)
	require.NoError(t, err)
	assert.Equal(t, []report.ExportRecord{recent, old}, recs)

	recs, err = repo.QueryExports(ctx, "karen", 1)
	require.NoError(t, err)
	assert.Equal(t, []report.ExportRecord{recent}, recs)

	recs, err = repo.QueryExports(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
