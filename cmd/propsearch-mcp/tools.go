package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchResponse mirrors the POST /property-search response.
type searchResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		TableData [][]string `json:"table_data"`
		Text      *string    `json:"text"`
		Image     *string    `json:"image"`
		Message   string     `json:"message"`
	} `json:"data"`
	Error string `json:"error"`
}

// searchFields are forwarded to /property-search when set.
var searchFields = []string{
	"party_type", "sro", "party_name", "address", "reg_year",
	"district", "division", "village", "rectangle", "khasra",
}

func handlePropertySearch(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		propertyType, err := request.RequireString("property_type")
		if err != nil {
			return mcp.NewToolResultError("property_type is required"), nil
		}

		payload := map[string]string{"property_type": propertyType}
		for _, f := range searchFields {
			if v := request.GetString(f, ""); v != "" {
				payload[f] = v
			}
		}

		_, body, err := c.post(ctx, "/property-search", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Data == nil {
			msg := resp.Error
			if msg == "" {
				msg = "search failed"
			}
			return mcp.NewToolResultError(msg), nil
		}

		d := resp.Data
		var text string
		switch {
		case d.Message != "":
			return mcp.NewToolResultText(d.Message), nil
		case d.Text != nil:
			text = *d.Text
		default:
			text = formatTable(d.TableData)
		}
		if d.Image != nil && *d.Image != "" {
			return mcp.NewToolResultImage(text, *d.Image, "image/png"), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func handleGetProperty(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("property_id")
		if err != nil {
			return mcp.NewToolResultError("property_id is required"), nil
		}
		return datasetResult(c.get(ctx, "/datalink", map[string]string{"property_id": id}))
	}
}

func handleListRural(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return datasetResult(c.get(ctx, "/rural", map[string]string{
			"district": request.GetString("district", ""),
		}))
	}
}

func handleListUrban(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return datasetResult(c.get(ctx, "/urban", map[string]string{
			"year": yearArg(request, "year"),
		}))
	}
}

func handleSearchUrbanRecords(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return datasetResult(c.get(ctx, "/search/urban", map[string]string{
			"sro":        request.GetString("sro", ""),
			"reg_year":   yearArg(request, "reg_year"),
			"party_name": request.GetString("party_name", ""),
		}))
	}
}

// datasetResult turns a dataset route response into a tool result.
func datasetResult(status int, body []byte, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if status != http.StatusOK {
		var e struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		msg := e.Detail
		if msg == "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return mcp.NewToolResultError(fmt.Sprintf("[%d] %s", status, msg)), nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return mcp.NewToolResultText(string(body)), nil
	}
	return mcp.NewToolResultText(pretty.String()), nil
}

func yearArg(request mcp.CallToolRequest, name string) string {
	if y := int(request.GetFloat(name, 0)); y > 0 {
		return strconv.Itoa(y)
	}
	return ""
}

// formatTable renders rows as pipe-separated lines.
func formatTable(rows [][]string) string {
	if len(rows) == 0 {
		return "(empty results table)"
	}
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteByte('\n')
	}
	return sb.String()
}
