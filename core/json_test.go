package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		raw  string
		want FlexString
	}{
		{raw: `"KSDA-001"`, want: "KSDA-001"},
		{raw: `17`, want: "17"},
		{raw: `null`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var fs FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &fs))
			assert.Equal(t, tt.want, fs)
		})
	}

	var fs FlexString
	assert.Error(t, json.Unmarshal([]byte(`{}`), &fs))
}

func TestFlexInt(t *testing.T) {
	var counts struct {
		Male   FlexInt `json:"male"`
		Female FlexInt `json:"female"`
		Other  FlexInt `json:"other"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"male": "12", "female": 30, "other": ""}`), &counts))
	assert.EqualValues(t, 12, counts.Male)
	assert.EqualValues(t, 30, counts.Female)
	assert.EqualValues(t, 0, counts.Other)

	var fi FlexInt
	assert.Error(t, json.Unmarshal([]byte(`"twelve"`), &fi))
}
