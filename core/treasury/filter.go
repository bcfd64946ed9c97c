package treasury

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/faithpod/portal/core"
)

const day = 24 * time.Hour

// Filter narrows contributions and paybill transactions.
// From and To are YYYY-MM-DD; To is inclusive.
type Filter struct {
	Search string `query:"search"`
	From   string `query:"from" validate:"omitempty,date"`
	To     string `query:"to" validate:"omitempty,date"`
}

func (f Filter) inRange(date string) bool {
	if f.From == "" && f.To == "" {
		return true
	}
	t, ok := ParseDate(date)
	if !ok {
		return false
	}
	if from, ok := ParseDate(f.From); ok && t.Before(from) {
		return false
	}
	if to, ok := ParseDate(f.To); ok && !t.Before(to.Add(day)) {
		return false
	}
	return true
}

func (f Filter) term() string {
	return core.CleanString(f.Search, true /* lower */)
}

// FilterContributions returns the contributions matching f, newest first, with their total.
// Search matches first name, last name, phone, date or category name.
func FilterContributions(contribs []Contribution, f Filter) ([]Contribution, decimal.Decimal) {
	term := f.term()
	filtered := make([]Contribution, 0, len(contribs))
	total := decimal.Zero
	for _, c := range contribs {
		if !f.inRange(c.ContributionDate) {
			continue
		}
		if term != "" {
			var category string
			if c.ContributionType != nil {
				category = c.ContributionType.Name
			}
			if !containsAny(term, c.User.FirstName, c.User.LastName, c.User.PhoneNumber, c.ContributionDate, category) {
				continue
			}
		}
		filtered = append(filtered, c)
		total = total.Add(c.ContributionAmount)
	}
	sortNewestFirst(filtered, func(c Contribution) string { return c.ContributionDate })
	return filtered, total
}

// FilterPaybill returns the transactions matching f, newest first, with their total.
// Search matches trans id, names, phone and account run together.
func FilterPaybill(txns []PaybillTransaction, f Filter) ([]PaybillTransaction, decimal.Decimal) {
	term := f.term()
	filtered := make([]PaybillTransaction, 0, len(txns))
	total := decimal.Zero
	for _, t := range txns {
		if !f.inRange(t.CreatedAt) {
			continue
		}
		if term != "" && !containsAny(term, t.TransID+t.FirstName+t.LastName+t.PhoneNumber+t.Account) {
			continue
		}
		filtered = append(filtered, t)
		total = total.Add(t.Amount)
	}
	sortNewestFirst(filtered, func(t PaybillTransaction) string { return t.CreatedAt })
	return filtered, total
}

func containsAny(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// sortNewestFirst orders items by descending date; undated items go last.
func sortNewestFirst[T any](items []T, date func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, oki := ParseDate(date(items[i]))
		tj, okj := ParseDate(date(items[j]))
		if oki != okj {
			return oki
		}
		return ti.After(tj)
	})
}
