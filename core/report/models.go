// Package report builds the contribution and paybill reports members of the
// finance team export or email, and keeps an audit trail of every export.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/faithpod/portal/core/treasury"
)

type (
	Kind   string
	Format string
)

const (
	Contributions Kind = "contributions"
	Transactions  Kind = "transactions"

	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

var (
	ErrEmptyReport   = errors.New("no transaction to export")
	ErrUnknownKind   = errors.New("report must be one of contributions or transactions")
	ErrUnknownFormat = errors.New("format must be one of xlsx or pdf")
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Contributions, Transactions:
		return k, nil
	}
	return "", ErrUnknownKind
}

// ParseFormat reads s; an empty s means XLSX.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return XLSX, nil
	case XLSX, PDF:
		return f, nil
	}
	return "", ErrUnknownFormat
}

func (f Format) ContentType() string {
	if f == PDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Report is a tabular export. Sheet rows keep typed cells (numbers stay numbers);
// PDF rows are preformatted text.
type Report struct {
	Kind         Kind
	Title        string
	Sheet        string
	Columns      []string
	Rows         [][]interface{}
	PDFColumns   []string
	PDFRows      [][]string
	Total        decimal.Decimal
	Currency     string
	Organization string
	GeneratedAt  time.Time
	RequestedBy  string
}

// Meta is what a report needs to know besides its rows.
type Meta struct {
	Organization string
	Currency     string
	RequestedBy  string
	GeneratedAt  time.Time
}

// FileName returns "YYYY_MM_DD_<KIND>_REPORT".
func FileName(kind Kind, t time.Time) string {
	return t.Format("2006_01_02") + "_" + strings.ToUpper(string(kind)) + "_REPORT"
}

func (r Report) FileName(format Format) string {
	return FileName(r.Kind, r.GeneratedAt) + "." + string(format)
}

func (r Report) Len() int {
	return len(r.PDFRows)
}

// TotalLabel is the label of the total row: "Total Amount: Ksh.".
func (r Report) TotalLabel() string {
	return "Total Amount: " + r.Currency
}

// FromContributions builds the contributions report.
func FromContributions(contribs []treasury.Contribution, total decimal.Decimal, meta Meta) (Report, error) {
	if len(contribs) == 0 {
		return Report{}, ErrEmptyReport
	}
	r := newReport(Contributions, "Church Contributions Report", "Contributions", total, meta)
	r.Columns = []string{"No", "First Name", "Last Name", "Contribution Category", "Amount", "Date"}
	r.PDFColumns = []string{"#", "First Name", "Last Name", "Phone Number", "Category Type", "Amount", "Date"}
	for i, c := range contribs {
		var category string
		if c.ContributionType != nil {
			category = c.ContributionType.Name
		}
		r.Rows = append(r.Rows, []interface{}{
			i + 1, c.User.FirstName, c.User.LastName, category, c.ContributionAmount.InexactFloat64(), c.ContributionDate,
		})
		r.PDFRows = append(r.PDFRows, []string{
			strconv.Itoa(i + 1), c.User.FirstName, c.User.LastName, c.User.PhoneNumber, category,
			c.ContributionAmount.StringFixed(2), formatDateTime(c.ContributionDate),
		})
	}
	return r, nil
}

// FromPaybill builds the paybill transactions report.
func FromPaybill(txns []treasury.PaybillTransaction, total decimal.Decimal, meta Meta) (Report, error) {
	if len(txns) == 0 {
		return Report{}, ErrEmptyReport
	}
	r := newReport(Transactions, "Paybill Transactions Report", "Transactions", total, meta)
	r.Columns = []string{"Transaction ID", "First Name", "Phone", "Account", "Amount", "Date"}
	r.PDFColumns = []string{"#", "Trans ID", "First Name", "Phone", "Account", "Amount", "Date"}
	for i, t := range txns {
		date := formatDateTime(t.CreatedAt)
		r.Rows = append(r.Rows, []interface{}{
			t.TransID, t.FirstName, t.PhoneNumber, t.Account, t.Amount.InexactFloat64(), date,
		})
		r.PDFRows = append(r.PDFRows, []string{
			strconv.Itoa(i + 1), t.TransID, t.FirstName, t.PhoneNumber, t.Account, t.Amount.StringFixed(2), date,
		})
	}
	return r, nil
}

func newReport(kind Kind, title, sheet string, total decimal.Decimal, meta Meta) Report {
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}
	return Report{
		Kind:         kind,
		Title:        title,
		Sheet:        sheet,
		Total:        total,
		Currency:     meta.Currency,
		Organization: meta.Organization,
		GeneratedAt:  meta.GeneratedAt,
		RequestedBy:  meta.RequestedBy,
	}
}

// formatDateTime renders "2024-03-02 : 14:05:00"; unknown formats are kept as is.
func formatDateTime(s string) string {
	t, ok := treasury.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("2006-01-02 : 15:04:05")
}

// ExportRecord is one line of the export audit log.
type ExportRecord struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Tenant    string          `db:"tenant" json:"tenant"`
	UserID    int             `db:"user_id" json:"user_id"`
	UserEmail string          `db:"user_email" json:"user_email"`
	Kind      Kind            `db:"kind" json:"kind"`
	Format    Format          `db:"format" json:"format"`
	Rows      int             `db:"rows_count" json:"rows"`
	Total     decimal.Decimal `db:"total" json:"total"`
	EmailedTo string          `db:"emailed_to" json:"emailed_to,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
