// Package treasury covers contribution categories, collections, member contributions
// and Mpesa paybill transactions.
package treasury

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
)

// Transaction statuses reported by the church API once Mpesa settles.
const (
	StatusCompleted    = "completed"
	StatusNotCompleted = "not completed"
)

type (
	Category struct {
		ID                 int             `json:"id"`
		Name               string          `json:"name"`
		Description        string          `json:"description,omitempty"`
		Archived           bool            `json:"archived"`
		TotalContributions decimal.Decimal `json:"total_contributions"`
		Contributions      []Contribution  `json:"contributions,omitempty"`
	}

	NewCategory struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
		Archived    bool   `json:"archived"`
	}

	// Collection groups the contributions of one date.
	Collection struct {
		ID               int             `json:"id"`
		ContributionDate string          `json:"contribution_date"`
		TotalAmount      decimal.Decimal `json:"total_amount"`
		Status           core.FlexInt    `json:"status"`
		Contributions    []Contribution  `json:"contributions,omitempty"`
	}

	CollectionTotal struct {
		TotalAmountCollected decimal.Decimal `json:"total_amount_collected"`
	}

	Contribution struct {
		ID                 int             `json:"id"`
		ContributionAmount decimal.Decimal `json:"contribution_amount"`
		ContributionDate   string          `json:"contribution_date"`
		Status             core.FlexInt    `json:"status"`
		User               access.User     `json:"user"`
		ContributionType   *Category       `json:"contribution_type,omitempty"`
	}

	ContributionInput struct {
		UserID             int             `json:"user_id" validate:"required,gt=0"`
		ContributionTypeID int             `json:"contributiontype_id" validate:"required,gt=0"`
		ContributionAmount decimal.Decimal `json:"contribution_amount" validate:"gt=0"`
		ContributionDate   string          `json:"contribution_date" validate:"required,date"`
		Status             core.FlexInt    `json:"status"`
	}

	ContributionBatch struct {
		Contributions []ContributionInput `json:"contributions" validate:"required,min=1,dive"`
	}

	TransactionStatus struct {
		Status string `json:"status"`
	}

	PaybillTransaction struct {
		ID              int             `json:"id"`
		TransactionType string          `json:"transaction_type"`
		TransID         string          `json:"trans_id"`
		TransTime       string          `json:"trans_time"`
		Amount          decimal.Decimal `json:"amount"`
		PhoneNumber     string          `json:"phone_number"`
		FirstName       string          `json:"first_name"`
		MiddleName      string          `json:"middle_name"`
		LastName        string          `json:"last_name"`
		Account         string          `json:"account"`
		CreatedAt       string          `json:"created_at"`
		UpdatedAt       string          `json:"updated_at"`
	}

	// CategoryPoints holds the chart points of one category.
	CategoryPoints struct {
		ID            int     `json:"id"`
		Name          string  `json:"name"`
		Contributions []Point `json:"contributions"`
	}

	CategorySeries struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Series Series `json:"series"`
	}
)

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanName(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

func (cb *ContributionBatch) Validate(validate *validator.Validate) error {
	for i := range cb.Contributions {
		cb.Contributions[i].ContributionDate = core.CleanString(cb.Contributions[i].ContributionDate)
	}
	return validate.Struct(cb)
}

// ForUser returns a copy of cb where every contribution belongs to userID.
func (cb ContributionBatch) ForUser(userID int) ContributionBatch {
	contribs := make([]ContributionInput, len(cb.Contributions))
	for i, c := range cb.Contributions {
		c.UserID = userID
		contribs[i] = c
	}
	return ContributionBatch{Contributions: contribs}
}

// Normalized returns the status trimmed and lower cased.
func (ts TransactionStatus) Normalized() string {
	return core.CleanString(ts.Status, true /* lower */)
}

// Settled reports whether Mpesa gave a final answer.
func (ts TransactionStatus) Settled() bool {
	s := ts.Normalized()
	return s == StatusCompleted || s == StatusNotCompleted
}

func (ts TransactionStatus) Completed() bool {
	return ts.Normalized() == StatusCompleted
}

// FullName of the paying customer as Mpesa reported it.
func (pt PaybillTransaction) FullName() string {
	return core.CleanName(pt.FirstName + " " + pt.MiddleName + " " + pt.LastName)
}
