package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propsearch/api/handler"
	"github.com/use-agent/propsearch/api/middleware"
	"github.com/use-agent/propsearch/config"
	"github.com/use-agent/propsearch/dataset"
	"github.com/use-agent/propsearch/probe"
	"github.com/use-agent/propsearch/scraper"
)

// Deps are the collaborators the routes need. Dataset may be nil.
type Deps struct {
	Runner  *scraper.Runner
	Sites   *scraper.Sites
	Dataset *dataset.Store
	Prober  *probe.Prober
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	Search:  Auth (if enabled) → RateLimit (if RPS > 0)
//
// Health and the read-only dataset routes stay outside auth. ctx bounds the
// rate limiter's housekeeping.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	targets := make([]probe.Target, 0, 3)
	for _, s := range deps.Sites.All() {
		targets = append(targets, probe.Target{Name: s.Name, URL: s.URL})
	}
	var prober handler.SiteProber
	if deps.Prober != nil {
		prober = deps.Prober
	}
	r.GET("/health", handler.Health(deps.Runner, deps.Dataset, prober, targets, startTime))

	// Dataset
	r.GET("/", handler.DatasetRoot())
	r.GET("/property/:id", handler.GetProperty(deps.Dataset))
	r.GET("/rural", handler.ListRural(deps.Dataset))
	r.GET("/urban", handler.ListUrban(deps.Dataset))
	r.GET("/input", handler.GetInput(deps.Dataset))
	r.GET("/output", handler.GetOutput(deps.Dataset))
	r.GET("/datalink", handler.GetDatalink(deps.Dataset))
	r.GET("/search/urban", handler.SearchUrbanRecords(deps.Dataset))

	// Search. Each request holds a browser.
	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))
	protected.POST("/property-search", handler.PropertySearch(deps.Runner, deps.Sites))

	return r
}
