package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/faithpod/portal/core/member"
)

// MemberRepository implements member.Repository.
type MemberRepository struct {
	*Client
}

func NewMemberRepository(c *Client) *MemberRepository {
	return &MemberRepository{Client: c}
}

func (r *MemberRepository) QueryAllMembers(ctx context.Context) ([]member.Member, error) {
	return getList[member.Member](ctx, r.Client, r.apipath(ctx, "users"))
}

func (r *MemberRepository) GetMember(ctx context.Context, id int) (member.Member, error) {
	return getJSON[member.Member](ctx, r.Client, r.apipath(ctx, "users", strconv.Itoa(id)))
}

func (r *MemberRepository) CreateMember(ctx context.Context, nm member.NewMember) (member.Member, error) {
	return sendJSON[member.Member](ctx, r.Client, http.MethodPost, r.apipath(ctx, "users"), nm)
}

func (r *MemberRepository) UpdateMember(ctx context.Context, id int, um member.UpdateMember) (member.Member, error) {
	return sendJSON[member.Member](ctx, r.Client, http.MethodPut, r.apipath(ctx, "users", strconv.Itoa(id)), um)
}

func (r *MemberRepository) DeleteMember(ctx context.Context, id int) error {
	return r.do(ctx, http.MethodDelete, r.apipath(ctx, "users", strconv.Itoa(id)), nil, nil, nil)
}

func (r *MemberRepository) GenderCount(ctx context.Context) (member.GenderCount, error) {
	return getJSON[member.GenderCount](ctx, r.Client, r.apipath(ctx, "gender-count"))
}

func (r *MemberRepository) QueryAllMembershipTypes(ctx context.Context) ([]member.MembershipType, error) {
	return getList[member.MembershipType](ctx, r.Client, r.apipath(ctx, "membershiptype"))
}

func (r *MemberRepository) GetMembershipType(ctx context.Context, id int) (member.MembershipType, error) {
	return getJSON[member.MembershipType](ctx, r.Client, r.apipath(ctx, "membershiptype", strconv.Itoa(id)))
}

func (r *MemberRepository) MembershipCount(ctx context.Context) (member.MembershipCount, error) {
	return getJSON[member.MembershipCount](ctx, r.Client, r.apipath(ctx, "membership-count"))
}
