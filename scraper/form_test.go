package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOption(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		desired string
		want    int
		matched bool
	}{
		{"exact match", []string{"2020", "2021", "2022"}, "2021", 1, true},
		{"substring fallback", []string{"2020", "2021", "2022"}, "21", 1, true},
		{"first substring match wins", []string{"Select", "Sub Registrar II", "Sub Registrar III"}, "registrar", 1, true},
		{"exact beats earlier substring", []string{"Sub Registrar III", "Sub Registrar I"}, "Sub Registrar I", 1, true},
		{"exact ignores surrounding space", []string{"--Select--", "  Kashmere Gate  "}, "Kashmere Gate", 1, true},
		{"case-insensitive fallback", []string{"North West", "south west"}, "SOUTH", 1, true},
		{"no match keeps default", []string{"2020", "2021"}, "1999", -1, false},
		{"empty dropdown", nil, "2021", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dd := newDropdown(tt.options...)

			matched, err := SelectOption(context.Background(), dd, tt.desired)

			require.NoError(t, err)
			assert.Equal(t, tt.matched, matched)
			assert.Equal(t, tt.want, dd.selected)
		})
	}
}

func TestSelectOption_DriverError(t *testing.T) {
	dd := newDropdown()
	dd.optionsErr = errBoom

	matched, err := SelectOption(context.Background(), dd, "x")

	assert.False(t, matched)
	assert.ErrorIs(t, err, errBoom)
}

func TestFillText_Verbatim(t *testing.T) {
	field := &fakeElement{}

	require.NoError(t, FillText(context.Background(), field, "  Ram Kumar 21/B "))

	assert.Equal(t, []string{"  Ram Kumar 21/B "}, field.typed)
}

func TestSubmit_Clicks(t *testing.T) {
	btn := &fakeElement{}

	require.NoError(t, Submit(context.Background(), btn))

	assert.Equal(t, 1, btn.clicks)
}
