package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func firstText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestPropertySearchTool_Table(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/property-search", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"success":true,"data":{"table_data":[["Reg No","Party"],["1","Ram"]],"image":null}}`))
	}))
	defer srv.Close()

	res := callTool(t, handlePropertySearch(newAPIClient(srv.URL, "k")), map[string]any{
		"property_type": "urban",
		"party_name":    "Ram",
		"khasra":        "",
	})

	assert.False(t, res.IsError)
	assert.Equal(t, "Reg No | Party\n1 | Ram\n", firstText(t, res))
	assert.Equal(t, map[string]string{"property_type": "urban", "party_name": "Ram"}, got)
}

func TestPropertySearchTool_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Timeout waiting for results"}`))
	}))
	defer srv.Close()

	res := callTool(t, handlePropertySearch(newAPIClient(srv.URL, "")), map[string]any{"property_type": "rural"})

	assert.True(t, res.IsError)
	assert.Equal(t, "Timeout waiting for results", firstText(t, res))
}

func TestPropertySearchTool_RequiresType(t *testing.T) {
	res := callTool(t, handlePropertySearch(newAPIClient("http://unused", "")), map[string]any{})

	assert.True(t, res.IsError)
}

func TestListUrbanTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/urban", r.URL.Path)
		assert.Equal(t, "2021", r.URL.Query().Get("year"))
		_, _ = w.Write([]byte(`[{"SRO":"Janakpuri"}]`))
	}))
	defer srv.Close()

	res := callTool(t, handleListUrban(newAPIClient(srv.URL, "")), map[string]any{"year": float64(2021)})

	assert.False(t, res.IsError)
	assert.JSONEq(t, `[{"SRO":"Janakpuri"}]`, firstText(t, res))
}

func TestGetPropertyTool_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "P-1", r.URL.Query().Get("property_id"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Property ID not found"}`))
	}))
	defer srv.Close()

	res := callTool(t, handleGetProperty(newAPIClient(srv.URL, "")), map[string]any{"property_id": "P-1"})

	assert.True(t, res.IsError)
	assert.Equal(t, "[404] Property ID not found", firstText(t, res))
}

func TestFormatTable(t *testing.T) {
	assert.Equal(t, "(empty results table)", formatTable(nil))
	assert.Equal(t, "a | b\n", formatTable([][]string{{"a", "b"}}))
}
