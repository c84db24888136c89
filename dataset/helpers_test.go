package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func firstParties(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	require.True(t, gjson.ValidBytes(raw))
	var names []string
	for _, r := range gjson.GetBytes(raw, "#.First Party Name").Array() {
		names = append(names, r.String())
	}
	return names
}
