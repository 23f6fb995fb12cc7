package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the decoder service configuration. Environment variables are
// parsed from the LEASELENS_ prefix, e.g. LEASELENS_HTTP_PORT.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	HTTPPort    int         `envconfig:"HTTP_PORT" default:"8080"`

	// Key-value backend: sqlite (default) or postgres.
	KVDriver    string `envconfig:"KV_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/leaselens.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Structured-data listing provider.
	ListingAPIBaseURL string `envconfig:"LISTING_API_BASE_URL" default:"https://realty-api.p.rapidapi.com"`
	ListingAPIKey     string `envconfig:"LISTING_API_KEY" default:""`

	// Generation service (OpenAI-compatible chat completions).
	GenerationBaseURL string `envconfig:"GENERATION_BASE_URL" default:"https://api.openai.com/v1"`
	GenerationAPIKey  string `envconfig:"GENERATION_API_KEY" default:""`
	GenerationModel   string `envconfig:"GENERATION_MODEL" default:"gpt-4o-mini"`

	// Geocoding: keyed primary falls back to the free provider when the key
	// is absent or the call fails.
	GeocodeAPIKey      string `envconfig:"GEOCODE_API_KEY" default:""`
	GeocodeBaseURL     string `envconfig:"GEOCODE_BASE_URL" default:"https://maps.googleapis.com/maps/api/geocode/json"`
	FreeGeocodeBaseURL string `envconfig:"FREE_GEOCODE_BASE_URL" default:"https://nominatim.openstreetmap.org"`

	// Places / hazard / registry data sources.
	PlacesAPIKey    string `envconfig:"PLACES_API_KEY" default:""`
	PlacesBaseURL   string `envconfig:"PLACES_BASE_URL" default:"https://places.googleapis.com/v1"`
	HazardAPIKey    string `envconfig:"HAZARD_API_KEY" default:""`
	HazardBaseURL   string `envconfig:"HAZARD_BASE_URL" default:"https://api.nationalrisk.example.com"`
	RegistryAPIKey  string `envconfig:"REGISTRY_API_KEY" default:""`
	RegistryBaseURL string `envconfig:"REGISTRY_BASE_URL" default:"https://api.offenderregistry.example.com"`

	// Feature flags.
	ScrapeFallbackEnabled bool `envconfig:"SCRAPE_FALLBACK_ENABLED" default:"false"`

	// Rate limiting: fixed window, separate ceilings for authenticated and
	// anonymous callers.
	RateLimitWindowSeconds int `envconfig:"RATE_LIMIT_WINDOW_SECONDS" default:"3600"`
	RateLimitAuthenticated int `envconfig:"RATE_LIMIT_AUTHENTICATED" default:"30"`
	RateLimitAnonymous     int `envconfig:"RATE_LIMIT_ANONYMOUS" default:"10"`

	// Quota plans, parsed as name:limit pairs.
	PlanLimits map[string]int `envconfig:"PLAN_LIMITS" default:"free:0,basic:10,pro:50"`

	// Outbound call timeout in seconds, applied to every external client.
	UpstreamTimeoutSeconds int `envconfig:"UPSTREAM_TIMEOUT_SECONDS" default:"10"`
}

// ResolveDefaults validates driver selection and derived settings.
func (c *Config) ResolveDefaults() error {
	switch c.KVDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("LEASELENS_SQLITE_PATH required for sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("LEASELENS_POSTGRES_DSN required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported KV_DRIVER: %s", c.KVDriver)
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

// New creates a Config from environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LEASELENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("kv_driver", cfg.KVDriver).
		Bool("scrape_fallback", cfg.ScrapeFallbackEnabled).
		Bool("listing_key_present", cfg.ListingAPIKey != "").
		Bool("generation_key_present", cfg.GenerationAPIKey != "").
		Bool("geocode_key_present", cfg.GeocodeAPIKey != "").
		Bool("places_key_present", cfg.PlacesAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// IsTesting returns true when the environment is testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true when the environment is production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }
