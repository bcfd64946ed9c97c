package fellowship

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/cache"
)

var errUnknownKind = errors.New("unknown fellowship kind")

type (
	Repository interface {
		QueryAllUnits(ctx context.Context, kind Kind) ([]Unit, error)
		GetUnit(ctx context.Context, kind Kind, id int) (Unit, error)
		CreateUnit(ctx context.Context, kind Kind, nu NewUnit) (Unit, error)
		UpdateUnit(ctx context.Context, kind Kind, id int, nu NewUnit) (Unit, error)
		DeleteUnit(ctx context.Context, kind Kind, id int) error
	}

	Service struct {
		repo  Repository
		cache *cache.Cache
		ttl   time.Duration
	}
)

func NewService(repo Repository, c *cache.Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl}
}

// QueryAll returns the units of kind whose name contains search.
func (svc *Service) QueryAll(ctx context.Context, kind Kind, search string) ([]Unit, error) {
	if !kind.Valid() {
		return nil, errUnknownKind
	}
	units, err := cache.Fetch(ctx, svc.cache, string(kind), svc.ttl, func(ctx context.Context) ([]Unit, error) {
		return svc.repo.QueryAllUnits(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	units = filterUnits(units, search)
	if units == nil {
		units = []Unit{}
	}
	return units, nil
}

func (svc *Service) Get(ctx context.Context, kind Kind, id int) (Unit, error) {
	if !kind.Valid() {
		return Unit{}, errUnknownKind
	}
	key := string(kind) + "_" + strconv.Itoa(id)
	return cache.Fetch(ctx, svc.cache, key, svc.ttl, func(ctx context.Context) (Unit, error) {
		return svc.repo.GetUnit(ctx, kind, id)
	})
}

// Count returns how many units of kind the tenant has.
func (svc *Service) Count(ctx context.Context, kind Kind) (int, error) {
	units, err := svc.QueryAll(ctx, kind, "")
	if err != nil {
		return 0, err
	}
	return len(units), nil
}

func (svc *Service) Create(ctx context.Context, kind Kind, nu NewUnit) (Unit, error) {
	if !kind.Valid() {
		return Unit{}, errUnknownKind
	}
	u, err := svc.repo.CreateUnit(ctx, kind, nu)
	if err != nil {
		return Unit{}, err
	}
	svc.invalidate(ctx, kind)
	return u, nil
}

func (svc *Service) Update(ctx context.Context, kind Kind, id int, nu NewUnit) (Unit, error) {
	if !kind.Valid() {
		return Unit{}, errUnknownKind
	}
	u, err := svc.repo.UpdateUnit(ctx, kind, id, nu)
	if err != nil {
		return Unit{}, err
	}
	svc.invalidate(ctx, kind)
	return u, nil
}

func (svc *Service) Delete(ctx context.Context, kind Kind, id int) error {
	if !kind.Valid() {
		return errUnknownKind
	}
	if err := svc.repo.DeleteUnit(ctx, kind, id); err != nil {
		return err
	}
	svc.invalidate(ctx, kind)
	return nil
}

func (svc *Service) invalidate(ctx context.Context, kind Kind) {
	svc.cache.ClearPattern(ctx, regexp.MustCompile("^"+regexp.QuoteMeta(string(kind))))
}
