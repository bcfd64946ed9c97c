package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/fellowship"
)

// FellowshipRepository implements fellowship.Repository.
type FellowshipRepository struct {
	*Client
}

func NewFellowshipRepository(c *Client) *FellowshipRepository {
	return &FellowshipRepository{Client: c}
}

// resource is the API collection serving kind.
func resource(kind fellowship.Kind) (string, error) {
	switch kind {
	case fellowship.Prayercells:
		return "prayercells", nil
	case fellowship.Groups:
		return "groups", nil
	}
	return "", errors.Errorf("unknown fellowship kind %q", kind)
}

func (r *FellowshipRepository) QueryAllUnits(ctx context.Context, kind fellowship.Kind) ([]fellowship.Unit, error) {
	res, err := resource(kind)
	if err != nil {
		return nil, err
	}
	return getList[fellowship.Unit](ctx, r.Client, r.apipath(ctx, res))
}

func (r *FellowshipRepository) GetUnit(ctx context.Context, kind fellowship.Kind, id int) (fellowship.Unit, error) {
	res, err := resource(kind)
	if err != nil {
		return fellowship.Unit{}, err
	}
	return getJSON[fellowship.Unit](ctx, r.Client, r.apipath(ctx, res, strconv.Itoa(id)))
}

func (r *FellowshipRepository) CreateUnit(ctx context.Context, kind fellowship.Kind, nu fellowship.NewUnit) (fellowship.Unit, error) {
	res, err := resource(kind)
	if err != nil {
		return fellowship.Unit{}, err
	}
	return sendJSON[fellowship.Unit](ctx, r.Client, http.MethodPost, r.apipath(ctx, res), nu)
}

func (r *FellowshipRepository) UpdateUnit(ctx context.Context, kind fellowship.Kind, id int, nu fellowship.NewUnit) (fellowship.Unit, error) {
	res, err := resource(kind)
	if err != nil {
		return fellowship.Unit{}, err
	}
	return sendJSON[fellowship.Unit](ctx, r.Client, http.MethodPut, r.apipath(ctx, res, strconv.Itoa(id)), nu)
}

func (r *FellowshipRepository) DeleteUnit(ctx context.Context, kind fellowship.Kind, id int) error {
	res, err := resource(kind)
	if err != nil {
		return err
	}
	return r.do(ctx, http.MethodDelete, r.apipath(ctx, res, strconv.Itoa(id)), nil, nil, nil)
}
