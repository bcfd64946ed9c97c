package member

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/cache"
)

// cache keys
const (
	membersKey         = "members"
	genderCountKey     = "gender_count"
	membershipTypesKey = "membership_types"
	membershipCountKey = "membership_count"
)

var membersPattern = regexp.MustCompile(`^members`)

type (
	Repository interface {
		QueryAllMembers(ctx context.Context) ([]Member, error)
		GetMember(ctx context.Context, id int) (Member, error)
		CreateMember(ctx context.Context, nm NewMember) (Member, error)
		UpdateMember(ctx context.Context, id int, um UpdateMember) (Member, error)
		DeleteMember(ctx context.Context, id int) error
		GenderCount(ctx context.Context) (GenderCount, error)

		QueryAllMembershipTypes(ctx context.Context) ([]MembershipType, error)
		GetMembershipType(ctx context.Context, id int) (MembershipType, error)
		MembershipCount(ctx context.Context) (MembershipCount, error)
	}

	Service struct {
		repo   Repository
		cache  *cache.Cache
		ttl    time.Duration
		refTTL time.Duration
	}
)

// NewService caches members for ttl and membership types for refTTL.
func NewService(repo Repository, c *cache.Cache, ttl, refTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl, refTTL: refTTL}
}

func (svc *Service) all(ctx context.Context) ([]Member, error) {
	return cache.Fetch(ctx, svc.cache, membersKey, svc.ttl, svc.repo.QueryAllMembers)
}

// QueryAll returns every member matching filter.
func (svc *Service) QueryAll(ctx context.Context, filter QueryFilter) ([]Member, error) {
	members, err := svc.all(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(members), nil
}

func (svc *Service) Page(ctx context.Context, filter QueryFilter, page, size int) (core.Page[Member], error) {
	members, err := svc.QueryAll(ctx, filter)
	if err != nil {
		return core.Page[Member]{}, err
	}
	return core.Paginate(members, page, size), nil
}

// Count returns the number of members of the tenant.
func (svc *Service) Count(ctx context.Context) (int, error) {
	members, err := svc.all(ctx)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

func (svc *Service) Get(ctx context.Context, id int) (Member, error) {
	return cache.Fetch(ctx, svc.cache, membersKey+"_"+strconv.Itoa(id), svc.ttl, func(ctx context.Context) (Member, error) {
		return svc.repo.GetMember(ctx, id)
	})
}

func (svc *Service) Create(ctx context.Context, nm NewMember) (Member, error) {
	m, err := svc.repo.CreateMember(ctx, nm)
	if err != nil {
		return Member{}, err
	}
	svc.invalidate(ctx)
	return m, nil
}

func (svc *Service) Update(ctx context.Context, id int, um UpdateMember) (Member, error) {
	m, err := svc.repo.UpdateMember(ctx, id, um)
	if err != nil {
		return Member{}, err
	}
	svc.invalidate(ctx)
	return m, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.repo.DeleteMember(ctx, id); err != nil {
		return err
	}
	svc.invalidate(ctx)
	return nil
}

func (svc *Service) invalidate(ctx context.Context) {
	svc.cache.ClearPattern(ctx, membersPattern)
	svc.cache.Clear(ctx, genderCountKey)
}

func (svc *Service) GenderCount(ctx context.Context) (GenderCount, error) {
	return cache.Fetch(ctx, svc.cache, genderCountKey, svc.ttl, svc.repo.GenderCount)
}

func (svc *Service) MembershipTypes(ctx context.Context) ([]MembershipType, error) {
	types, err := cache.Fetch(ctx, svc.cache, membershipTypesKey, svc.refTTL, svc.repo.QueryAllMembershipTypes)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []MembershipType{}
	}
	return types, nil
}

func (svc *Service) MembershipType(ctx context.Context, id int) (MembershipType, error) {
	key := membershipTypesKey + "_" + strconv.Itoa(id)
	return cache.Fetch(ctx, svc.cache, key, svc.refTTL, func(ctx context.Context) (MembershipType, error) {
		return svc.repo.GetMembershipType(ctx, id)
	})
}

func (svc *Service) MembershipCount(ctx context.Context) (MembershipCount, error) {
	return cache.Fetch(ctx, svc.cache, membershipCountKey, svc.refTTL, svc.repo.MembershipCount)
}
