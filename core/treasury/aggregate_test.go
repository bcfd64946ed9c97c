package treasury

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr error
	}{
		{in: "", want: Weekly},
		{in: " Monthly ", want: Monthly},
		{in: "yearly", want: Yearly},
		{in: "daily", wantErr: ErrInvalidPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePeriod(tt.in)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPeriod_Key(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	newYearsEve := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) // a tuesday

	assert.Equal(t, "2024-03-04", Weekly.Key(sunday))
	assert.Equal(t, "2024-03-11", Weekly.Key(monday))
	assert.Equal(t, "2024-12-30", Weekly.Key(newYearsEve))
	assert.Equal(t, "2024-03", Monthly.Key(sunday))
	assert.Equal(t, "2024", Yearly.Key(sunday))
}

func TestAggregate(t *testing.T) {
	points := []Point{
		{Date: "2024-03-12", Amount: amt("100.50")},
		{Date: "2024-03-11T08:00:00.000000Z", Amount: amt("200")},
		{Date: "2024-02-29 17:30:00", Amount: amt("50")},
		{Date: "2023-12-31", Amount: amt("10")},
		{Date: "not a date", Amount: amt("999")},
	}

	tests := []struct {
		period     Period
		wantLabels []string
		wantValues []string
	}{
		{
			period:     Weekly,
			wantLabels: []string{"2023-12-25", "2024-02-26", "2024-03-11"},
			wantValues: []string{"10", "50", "300.5"},
		},
		{
			period:     Monthly,
			wantLabels: []string{"2023-12", "2024-02", "2024-03"},
			wantValues: []string{"10", "50", "300.5"},
		},
		{
			period:     Yearly,
			wantLabels: []string{"2023", "2024"},
			wantValues: []string{"10", "350.5"},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			s := Aggregate(points, tt.period)
			assert.Equal(t, tt.wantLabels, s.Labels)
			values := make([]string, len(s.Values))
			for i, v := range s.Values {
				values[i] = v.String()
			}
			assert.Equal(t, tt.wantValues, values)
		})
	}
}

func TestSeries_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Aggregate([]Point{{Date: "2024-01-05", Amount: amt("12.50")}}, Yearly))
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels": ["2024"], "values": [12.5]}`, string(b))

	b, err = json.Marshal(Series{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels": [], "values": []}`, string(b))
}
