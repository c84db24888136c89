package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propsearch/dataset"
	"github.com/use-agent/propsearch/models"
	"github.com/use-agent/propsearch/probe"
)

// Version is reported by /health.
const Version = "0.1.0"

// SessionCounter reports browser sessions in use.
type SessionCounter interface {
	ActiveSessions() int
}

// SiteProber checks upstream portals. *probe.Prober implements it.
type SiteProber interface {
	CheckAll(ctx context.Context, targets []probe.Target) []models.SiteStatus
}

// Health returns a handler for GET /health.
//
// With ?probe=true every portal in targets is probed and the status
// degrades when any of them is unreachable.
func Health(sessions SessionCounter, ds *dataset.Store, prober SiteProber, targets []probe.Target, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:         "healthy",
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			Version:        Version,
			ActiveSessions: sessions.ActiveSessions(),
			DatasetLoaded:  ds != nil,
		}

		if c.Query("probe") == "true" && prober != nil {
			resp.Sites = prober.CheckAll(c.Request.Context(), targets)
			for _, st := range resp.Sites {
				if !st.Reachable {
					resp.Status = "degraded"
				}
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}
