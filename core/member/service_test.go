package member

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

	members     []Member
	listCalls   int
	genderCalls int
}

func (r *repoMock) QueryAllMembers(context.Context) ([]Member, error) {
	r.listCalls++
	return r.members, nil
}

func (r *repoMock) GenderCount(context.Context) (GenderCount, error) {
	r.genderCalls++
	return GenderCount{Male: 1, Female: 2}, nil
}

func (r *repoMock) DeleteMember(_ context.Context, id int) error {
	kept := r.members[:0]
	for _, m := range r.members {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.members = kept
	return nil
}

func TestService(t *testing.T) {
	repo := &repoMock{members: membersFixture()}
	c := cache.New(time.Minute, 0)
	defer c.Close()
	svc := NewService(repo, c, 5*time.Minute, 10*time.Minute)
	ctx := tenant.WithContext(context.Background(), tenant.Context{ID: "karen"})

	page, err := svc.Page(ctx, NewQueryFilter("atieno", "first_name"), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, []int{3}, memberIDs(page.Items))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, repo.listCalls)

	gc, err := svc.GenderCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gc.Female)

	require.NoError(t, svc.Delete(ctx, 2))
	n, _ = svc.Count(ctx)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, repo.listCalls)
	_, _ = svc.GenderCount(ctx)
	assert.Equal(t, 2, repo.genderCalls, "gender count is dropped with members")
}
