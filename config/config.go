package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Timing    TimingConfig
	Sites     SitesConfig
	Dataset   DatasetConfig
	Probe     ProbeConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"

	// ShutdownGrace is how long in-flight searches get to finish on SIGTERM.
	ShutdownGrace time.Duration // default: 30s
}

// BrowserConfig controls the per-search browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy routes all browser traffic through the given proxy URL.
	Proxy string

	// WindowWidth and WindowHeight fix the viewport for screenshots.
	WindowWidth  int // default: 1920
	WindowHeight int // default: 1080

	// Stealth injects anti-automation-detection JS before navigation.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types to block.
	// Images and stylesheets are needed for the screenshot, so they
	// are not blocked by default.
	BlockedResourceTypes []string // default: ["Font", "Media"]

	// BlockAds blocks requests to well-known ad/tracking domains.
	BlockAds bool // default: true

	// AcceptLanguage is sent on every request the browser makes.
	AcceptLanguage string // default: "en-IN,en;q=0.9"
}

// TimingConfig holds the waits and settle intervals of a search.
// The external portals never signal completion, so these are fixed.
type TimingConfig struct {
	// ReadyTimeout bounds the wait for the form's anchor control.
	ReadyTimeout time.Duration // default: 10s

	// SubmitSettle is the pause after clicking search before polling.
	SubmitSettle time.Duration // default: 3s

	// ResultTimeout bounds the wait for the results container.
	ResultTimeout time.Duration // default: 10s

	// DependentSettle is the pause after a dropdown that repopulates
	// the next one.
	DependentSettle time.Duration // default: 1s

	// CaptureSettle is the pause between scrolling and the screenshot.
	CaptureSettle time.Duration // default: 1s

	// SearchTimeout caps a whole search, including browser launch.
	SearchTimeout time.Duration // default: 90s
}

// SitesConfig overrides the external portal URLs.
type SitesConfig struct {
	UrbanByNameURL    string
	UrbanByAddressURL string
	RuralURL          string
}

// DatasetConfig controls the pre-scraped dataset API.
type DatasetConfig struct {
	// Path is the JSON dataset file. Missing file disables the dataset routes.
	Path string // default: "cleaned_uddan_dataset.json"
}

// ProbeConfig controls the upstream reachability check of /health.
type ProbeConfig struct {
	// Timeout bounds one portal check.
	Timeout time.Duration // default: 10s

	// CacheTTL reuses a portal's last status for this long. 0 disables.
	CacheTTL time.Duration // default: 30s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity. <= 0 disables.
	RequestsPerSecond float64 // default: 0

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File, when set, receives a rotated copy of the log stream.
	File       string
	MaxSizeMB  int // default: 50
	MaxBackups int // default: 5
	MaxAgeDays int // default: 14
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first; variables already
// present in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: failed to read .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:          envOr("PROPSEARCH_HOST", "0.0.0.0"),
			Port:          envIntOr("PROPSEARCH_PORT", 5000),
			Mode:          envOr("PROPSEARCH_MODE", "release"),
			ShutdownGrace: envDurationOr("PROPSEARCH_SHUTDOWN_GRACE", 30*time.Second),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("PROPSEARCH_HEADLESS", true),
			NoSandbox:    envBoolOr("PROPSEARCH_NO_SANDBOX", true),
			BrowserBin:   os.Getenv("PROPSEARCH_BROWSER_BIN"),
			Proxy:        os.Getenv("PROPSEARCH_PROXY"),
			WindowWidth:  envIntOr("PROPSEARCH_WINDOW_WIDTH", 1920),
			WindowHeight: envIntOr("PROPSEARCH_WINDOW_HEIGHT", 1080),
			Stealth:      envBoolOr("PROPSEARCH_STEALTH", false),
			BlockedResourceTypes: envSliceOr("PROPSEARCH_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			BlockAds:       envBoolOr("PROPSEARCH_BLOCK_ADS", true),
			AcceptLanguage: envOr("PROPSEARCH_ACCEPT_LANGUAGE", "en-IN,en;q=0.9"),
		},
		Timing: TimingConfig{
			ReadyTimeout:    envDurationOr("PROPSEARCH_READY_TIMEOUT", 10*time.Second),
			SubmitSettle:    envDurationOr("PROPSEARCH_SUBMIT_SETTLE", 3*time.Second),
			ResultTimeout:   envDurationOr("PROPSEARCH_RESULT_TIMEOUT", 10*time.Second),
			DependentSettle: envDurationOr("PROPSEARCH_DEPENDENT_SETTLE", 1*time.Second),
			CaptureSettle:   envDurationOr("PROPSEARCH_CAPTURE_SETTLE", 1*time.Second),
			SearchTimeout:   envDurationOr("PROPSEARCH_SEARCH_TIMEOUT", 90*time.Second),
		},
		Sites: SitesConfig{
			UrbanByNameURL:    os.Getenv("PROPSEARCH_URBAN_NAME_URL"),
			UrbanByAddressURL: os.Getenv("PROPSEARCH_URBAN_ADDRESS_URL"),
			RuralURL:          os.Getenv("PROPSEARCH_RURAL_URL"),
		},
		Dataset: DatasetConfig{
			Path: envOr("PROPSEARCH_DATASET", "cleaned_uddan_dataset.json"),
		},
		Probe: ProbeConfig{
			Timeout:  envDurationOr("PROPSEARCH_PROBE_TIMEOUT", 10*time.Second),
			CacheTTL: envDurationOr("PROPSEARCH_PROBE_CACHE_TTL", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PROPSEARCH_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PROPSEARCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PROPSEARCH_RATE_RPS", 0),
			Burst:             envIntOr("PROPSEARCH_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:      envOr("PROPSEARCH_LOG_LEVEL", "info"),
			Format:     envOr("PROPSEARCH_LOG_FORMAT", "json"),
			File:       os.Getenv("PROPSEARCH_LOG_FILE"),
			MaxSizeMB:  envIntOr("PROPSEARCH_LOG_MAX_SIZE_MB", 50),
			MaxBackups: envIntOr("PROPSEARCH_LOG_MAX_BACKUPS", 5),
			MaxAgeDays: envIntOr("PROPSEARCH_LOG_MAX_AGE_DAYS", 14),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
