package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFalsyJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`null`, true},
		{`false`, true},
		{`0`, true},
		{`0.0`, true},
		{`""`, true},
		{`[]`, true},
		{`{}`, true},
		{`true`, false},
		{`-1`, false},
		{`" "`, false},
		{`[0]`, false},
		{`{"a":null}`, false},
		{`{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFalsyJSON(json.RawMessage(tt.raw)))
		})
	}
}

func TestParseSearchRequest(t *testing.T) {
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{
		"property_type": "Urban",
		"party_type": "address",
		"reg_year": 2021,
		"rectangle": 12.50,
		"verified": true,
		"address": "B-12",
		"tags": ["x"],
		"extra": null
	}`), &body))

	req := ParseSearchRequest(body)

	assert.True(t, req.IsUrban())
	assert.True(t, req.ByAddress())
	assert.Equal(t, map[string]string{
		"reg_year":  "2021",
		"rectangle": "12.50",
		"verified":  "true",
		"address":   "B-12",
	}, req.Fields)
}

func TestParseSearchRequest_PropertyType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"rural"`, "rural"},
		{`3`, "3"},
		{`true`, "true"},
		{`0`, ""},
		{`false`, ""},
		{`""`, ""},
		{`null`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := ParseSearchRequest(map[string]json.RawMessage{"property_type": json.RawMessage(tt.raw)})
			assert.Equal(t, tt.want, req.PropertyType)
		})
	}
}
