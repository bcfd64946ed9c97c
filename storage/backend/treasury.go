package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/treasury"
)

// paybillEnvelope wraps the answer of /mpesa/transaction.
type paybillEnvelope struct {
	Success bool                          `json:"success"`
	Message string                        `json:"message"`
	Data    []treasury.PaybillTransaction `json:"data"`
}

// TreasuryRepository implements treasury.Repository.
type TreasuryRepository struct {
	*Client
}

func NewTreasuryRepository(c *Client) *TreasuryRepository {
	return &TreasuryRepository{Client: c}
}

func (r *TreasuryRepository) QueryAllCategories(ctx context.Context) ([]treasury.Category, error) {
	return getList[treasury.Category](ctx, r.Client, r.apipath(ctx, "contribution-types"))
}

func (r *TreasuryRepository) GetCategory(ctx context.Context, id int) (treasury.Category, error) {
	return getJSON[treasury.Category](ctx, r.Client, r.apipath(ctx, "contribution-types", strconv.Itoa(id), "contributions"))
}

func (r *TreasuryRepository) CreateCategory(ctx context.Context, nc treasury.NewCategory) (treasury.Category, error) {
	return sendJSON[treasury.Category](ctx, r.Client, http.MethodPost, r.apipath(ctx, "contribution-types"), nc)
}

func (r *TreasuryRepository) UpdateCategory(ctx context.Context, id int, nc treasury.NewCategory) (treasury.Category, error) {
	return sendJSON[treasury.Category](ctx, r.Client, http.MethodPut, r.apipath(ctx, "contribution-types", strconv.Itoa(id)), nc)
}

func (r *TreasuryRepository) DeleteCategory(ctx context.Context, id int) error {
	return r.do(ctx, http.MethodDelete, r.apipath(ctx, "contribution-types", strconv.Itoa(id)), nil, nil, nil)
}

func (r *TreasuryRepository) CategoryChart(ctx context.Context, id int) ([]treasury.Point, error) {
	return getList[treasury.Point](ctx, r.Client, r.apipath(ctx, "contribution-types", strconv.Itoa(id), "chart"))
}

func (r *TreasuryRepository) CategoriesChart(ctx context.Context) ([]treasury.CategoryPoints, error) {
	return getList[treasury.CategoryPoints](ctx, r.Client, r.apipath(ctx, "contribution-types-chart"))
}

func (r *TreasuryRepository) QueryAllCollections(ctx context.Context) ([]treasury.Collection, error) {
	return getList[treasury.Collection](ctx, r.Client, r.apipath(ctx, "contributions"))
}

func (r *TreasuryRepository) GetCollection(ctx context.Context, date string) (treasury.Collection, error) {
	return getJSON[treasury.Collection](ctx, r.Client, r.apipath(ctx, "contributions", date))
}

func (r *TreasuryRepository) QueryAllContributions(ctx context.Context) ([]treasury.Contribution, error) {
	return getList[treasury.Contribution](ctx, r.Client, r.apipath(ctx, "all-contributions"))
}

func (r *TreasuryRepository) ContributionChart(ctx context.Context) ([]treasury.Point, error) {
	return getList[treasury.Point](ctx, r.Client, r.apipath(ctx, "contribution-chart"))
}

func (r *TreasuryRepository) CollectionTotal(ctx context.Context) (treasury.CollectionTotal, error) {
	return getJSON[treasury.CollectionTotal](ctx, r.Client, r.apipath(ctx, "contribution-amount"))
}

func (r *TreasuryRepository) AddContributions(ctx context.Context, cb treasury.ContributionBatch) error {
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "add-user-contributions"), cb, nil, nil)
}

func (r *TreasuryRepository) AddMpesaContributions(ctx context.Context, cb treasury.ContributionBatch) error {
	return r.do(ctx, http.MethodPost, r.apipath(ctx, "add-mpesa-contributions"), cb, nil, nil)
}

func (r *TreasuryRepository) DeleteCollection(ctx context.Context, id int) error {
	return r.do(ctx, http.MethodDelete, r.apipath(ctx, "destroy-contributions", strconv.Itoa(id)), nil, nil, nil)
}

func (r *TreasuryRepository) MailCollection(ctx context.Context, id int) error {
	return r.do(ctx, http.MethodGet, r.apipath(ctx, "sendGmail", strconv.Itoa(id)), nil, nil, nil)
}

func (r *TreasuryRepository) TransactionStatus(ctx context.Context) (treasury.TransactionStatus, error) {
	return getJSON[treasury.TransactionStatus](ctx, r.Client, r.apipath(ctx, "transactions"))
}

func (r *TreasuryRepository) QueryAllPaybillTransactions(ctx context.Context) ([]treasury.PaybillTransaction, error) {
	env, err := getJSON[paybillEnvelope](ctx, r.Client, r.apipath(ctx, "mpesa", "transaction"))
	if err != nil {
		return nil, err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "paybill transactions are unavailable"
		}
		return nil, errors.New(msg)
	}
	if env.Data == nil {
		return []treasury.PaybillTransaction{}, nil
	}
	return env.Data, nil
}
