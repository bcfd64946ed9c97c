// Package inmemdb keeps the export audit log in memory (tests and single-process demos).
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/report"
)

type exportRepository struct {
	mutex sync.RWMutex
	table map[string][]report.ExportRecord // by tenant
}

func NewExportRepository() *exportRepository {
	return &exportRepository{table: make(map[string][]report.ExportRecord)}
}

func (repo *exportRepository) CreateExport(_ context.Context, rec report.ExportRecord) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, r := range repo.table[rec.Tenant] {
		if r.ID == rec.ID {
			return errors.Errorf("duplicate export %s", rec.ID)
		}
	}
	repo.table[rec.Tenant] = append(repo.table[rec.Tenant], rec)
	return nil
}

func (repo *exportRepository) QueryExports(_ context.Context, tenant string, limit int) ([]report.ExportRecord, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	recs := make([]report.ExportRecord, len(repo.table[tenant]))
	copy(recs, repo.table[tenant])
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
