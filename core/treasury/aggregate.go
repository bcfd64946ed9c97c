package treasury

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

var ErrInvalidPeriod = errors.New("period must be one of weekly, monthly or yearly")

// ParsePeriod reads s; an empty s means Weekly.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Weekly, nil
	case Weekly, Monthly, Yearly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Key returns the bucket t falls in: the ISO week's Monday, the month or the year.
func (p Period) Key(t time.Time) string {
	switch p {
	case Monthly:
		return t.Format("2006-01")
	case Yearly:
		return t.Format("2006")
	default:
		offset := (int(t.Weekday()) + 6) % 7 // days since monday
		return t.AddDate(0, 0, -offset).Format("2006-01-02")
	}
}

// Point is one dated amount of a chart.
type Point struct {
	Date   string          `json:"contribution_date"`
	Amount decimal.Decimal `json:"total_amount"`
}

// Series is chart data: Values[i] is the amount for Labels[i].
type Series struct {
	Labels []string
	Values []decimal.Decimal
}

// MarshalJSON emits values as plain numbers, ready for charting.
func (s Series) MarshalJSON() ([]byte, error) {
	values := make([]json.Number, len(s.Values))
	for i, v := range s.Values {
		values[i] = json.Number(v.String())
	}
	labels := s.Labels
	if labels == nil {
		labels = []string{}
	}
	return json.Marshal(struct {
		Labels []string      `json:"labels"`
		Values []json.Number `json:"values"`
	}{labels, values})
}

// Aggregate sums points per period bucket. Labels are sorted ascending;
// points with unparseable dates are skipped.
func Aggregate(points []Point, period Period) Series {
	grouped := make(map[string]decimal.Decimal)
	for _, p := range points {
		t, ok := ParseDate(p.Date)
		if !ok {
			continue
		}
		key := period.Key(t)
		grouped[key] = grouped[key].Add(p.Amount)
	}

	s := Series{Labels: make([]string, 0, len(grouped)), Values: make([]decimal.Decimal, 0, len(grouped))}
	for key := range grouped {
		s.Labels = append(s.Labels, key)
	}
	sort.Strings(s.Labels)
	for _, key := range s.Labels {
		s.Values = append(s.Values, grouped[key])
	}
	return s
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate reads the date formats the church API emits.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
