package fellowship

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/core/cache"
	"github.com/faithpod/portal/core/tenant"
)

type repoMock struct {
	Repository

	units map[Kind][]Unit
	calls map[Kind]int
}

func newRepoMock() *repoMock {
	return &repoMock{
		units: map[Kind][]Unit{
			Prayercells: {{ID: 1, Name: "Karen North"}, {ID: 2, Name: "Karen South"}, {ID: 3, Name: "Langata"}},
			Groups:      {{ID: 1, Name: "Youth"}},
		},
		calls: make(map[Kind]int),
	}
}

func (r *repoMock) QueryAllUnits(_ context.Context, kind Kind) ([]Unit, error) {
	r.calls[kind]++
	return r.units[kind], nil
}

func (r *repoMock) CreateUnit(_ context.Context, kind Kind, nu NewUnit) (Unit, error) {
	u := Unit{ID: len(r.units[kind]) + 1, Name: nu.Name}
	r.units[kind] = append(r.units[kind], u)
	return u, nil
}

func TestService(t *testing.T) {
	repo := newRepoMock()
	c := cache.New(time.Minute, 0)
	defer c.Close()
	svc := NewService(repo, c, 10*time.Minute)
	ctx := tenant.WithContext(context.Background(), tenant.Context{ID: "karen"})

	t.Run("search", func(t *testing.T) {
		units, err := svc.QueryAll(ctx, Prayercells, " KAREN ")
		require.NoError(t, err)
		assert.Len(t, units, 2)

		units, err = svc.QueryAll(ctx, Prayercells, "kibera")
		require.NoError(t, err)
		assert.NotNil(t, units)
		assert.Empty(t, units)
		assert.Equal(t, 1, repo.calls[Prayercells])
	})

	t.Run("create invalidates its kind only", func(t *testing.T) {
		n, err := svc.Count(ctx, Groups)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = svc.Create(ctx, Prayercells, NewUnit{Name: "Kibera"})
		require.NoError(t, err)

		n, err = svc.Count(ctx, Prayercells)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, 2, repo.calls[Prayercells])

		_, _ = svc.Count(ctx, Groups)
		assert.Equal(t, 1, repo.calls[Groups])
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.QueryAll(ctx, Kind("choirs"), "")
		assert.Equal(t, errUnknownKind, err)
	})
}
