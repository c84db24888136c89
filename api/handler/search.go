package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propsearch/api/middleware"
	"github.com/use-agent/propsearch/models"
	"github.com/use-agent/propsearch/scraper"
)

// maxSearchBody caps the request body; a search form is a handful of fields.
const maxSearchBody = 64 << 10

// Searcher runs one site search. *scraper.Runner implements it.
type Searcher interface {
	Search(ctx context.Context, site *scraper.Site, fields map[string]string) *models.ExtractionResult
}

// PropertySearch returns a handler for POST /property-search.
//
// Orchestration flow:
//  1. Parse & validate the JSON body. Rejections never start a browser.
//  2. Route on property_type / party_type to a site adapter.
//  3. Run the search; 200 on success, 500 with the adapter's error otherwise.
func PropertySearch(s Searcher, sites *scraper.Sites) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		req, msg := parseSearchRequest(c)
		if msg != "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
			return
		}

		// ── 2. Route ────────────────────────────────────────────────
		site, msg := routeSearch(req, sites)
		if msg != "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
			return
		}

		// ── 3. Search ───────────────────────────────────────────────
		requestID := c.GetString(middleware.ContextKeyRequestID)
		slog.Info("property search", "site", site.Name, "request_id", requestID)

		ctx := scraper.WithRequestID(c.Request.Context(), requestID)
		result := s.Search(ctx, site, req.Fields)

		status := http.StatusOK
		if !result.Success {
			status = http.StatusInternalServerError
		}
		c.JSON(status, result)
	}
}

// parseSearchRequest decodes the body. The returned message is non-empty
// when the request must be rejected.
func parseSearchRequest(c *gin.Context) (*models.SearchRequest, string) {
	if !isJSONContentType(c.ContentType()) {
		return nil, models.MsgNotJSON
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSearchBody))
	if err != nil {
		return nil, models.MsgNotJSON
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || models.IsFalsyJSON(json.RawMessage(trimmed)) {
		return nil, models.MsgNoFormData
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &body); err != nil {
		return nil, models.MsgNotJSON
	}

	req := models.ParseSearchRequest(body)
	if req.PropertyType == "" {
		return nil, models.MsgPropertyTypeRequired
	}
	return req, ""
}

// routeSearch picks the adapter for req.
func routeSearch(req *models.SearchRequest, sites *scraper.Sites) (*scraper.Site, string) {
	switch {
	case req.IsUrban() && req.ByAddress():
		return sites.UrbanByAddress, ""
	case req.IsUrban():
		return sites.UrbanByName, ""
	case req.IsRural():
		return sites.Rural, ""
	default:
		return nil, fmt.Sprintf("Invalid property type: %s", req.PropertyType)
	}
}

func isJSONContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}
