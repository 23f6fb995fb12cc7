// Package decoderservice assembles and runs the decoder HTTP service.
package decoderservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/api"
	"github.com/leaselens/leaselens/internal/augment"
	"github.com/leaselens/leaselens/internal/cache"
	"github.com/leaselens/leaselens/internal/config"
	"github.com/leaselens/leaselens/internal/decode"
	"github.com/leaselens/leaselens/internal/health"
	"github.com/leaselens/leaselens/internal/kv"
	kvpostgres "github.com/leaselens/leaselens/internal/kv/postgres"
	kvsqlite "github.com/leaselens/leaselens/internal/kv/sqlite"
	"github.com/leaselens/leaselens/internal/listing"
	"github.com/leaselens/leaselens/internal/logger"
	"github.com/leaselens/leaselens/internal/report"
	"github.com/leaselens/leaselens/internal/reportstore"
	"github.com/leaselens/leaselens/internal/scrape"
	"github.com/leaselens/leaselens/internal/usage"
)

// Run starts the decoder service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("decoder-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("kv_driver", cfg.KVDriver).
		Int("http_port", cfg.HTTPPort).
		Bool("scrape_fallback", cfg.ScrapeFallbackEnabled).
		Msg("Decoder service starting")

	ctx, stop := newServerContext()
	defer stop()

	backend, err := newKVStore(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("KV backend unavailable")
		return err
	}
	defer func() { _ = backend.Close() }()

	if err := backend.HealthCheck(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	monitor := health.NewMonitor(backend.HealthCheck, 5*time.Second, log)
	go monitor.Start(ctx, 30*time.Second)

	router := buildRouter(cfg, backend, monitor, log)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newKVStore(cfg *config.Config) (kv.Store, error) {
	switch cfg.KVDriver {
	case "postgres":
		return kvpostgres.New(cfg.PostgresDSN)
	default:
		return kvsqlite.New(cfg.SQLitePath)
	}
}

// buildRouter wires every pipeline component and mounts the HTTP routes.
func buildRouter(cfg *config.Config, backend kv.Store, monitor *health.Monitor, log zerolog.Logger) http.Handler {
	timeout := time.Duration(cfg.UpstreamTimeoutSeconds) * time.Second
	shared := cache.New(backend)

	scrapeSvc := scrape.NewService(backend, cfg.ScrapeFallbackEnabled, log)
	provider := listing.NewHTTPProvider(cfg.ListingAPIBaseURL, cfg.ListingAPIKey, timeout)
	resolver := listing.NewResolver(provider, scrapeSvc, shared, cfg.ScrapeFallbackEnabled, log)

	geocoders := newGeocoderChain(cfg, timeout)
	var hazards augment.HazardSource
	if cfg.HazardAPIKey != "" {
		hazards = augment.NewHTTPHazardSource(cfg.HazardBaseURL, cfg.HazardAPIKey, timeout)
	}
	var registry augment.RegistryClient
	if cfg.RegistryAPIKey != "" {
		registry = augment.NewHTTPRegistryClient(cfg.RegistryBaseURL, cfg.RegistryAPIKey, timeout)
	}
	var places augment.PlacesClient
	if cfg.PlacesAPIKey != "" {
		places = augment.NewHTTPPlacesClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, timeout)
	}
	engine := augment.NewEngine(geocoders, hazards, registry, places, shared, log)

	gen := report.NewOpenAIClient(cfg.GenerationBaseURL, cfg.GenerationAPIKey, cfg.GenerationModel, timeout)
	reports := report.NewService(gen, shared, log)

	store := reportstore.New(backend)
	orch := decode.NewOrchestrator(resolver, engine, reports, store, decode.NewSVGRenderer(store), log)

	governor := usage.NewGovernor(backend, usage.StaticPlans{Default: "free"}, cfg.PlanLimits, log)
	limiter := usage.NewLimiter(backend, usage.LimiterConfig{
		Window:        time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		Authenticated: cfg.RateLimitAuthenticated,
		Anonymous:     cfg.RateLimitAnonymous,
	}, log)

	return api.NewRouter(api.Deps{
		Decode:  api.NewDecodeHandler(orch, governor, log),
		Report:  api.NewReportHandler(store),
		Scrape:  api.NewScrapeHandler(scrapeSvc),
		Limiter: limiter,
		Health:  monitor.Check,
	})
}

// newGeocoderChain prefers the keyed provider; the free one always anchors
// the chain so geocoding works out of the box.
func newGeocoderChain(cfg *config.Config, timeout time.Duration) *augment.Chain {
	var geocoders []augment.Geocoder
	if cfg.GeocodeAPIKey != "" {
		geocoders = append(geocoders, augment.NewGoogleGeocoder(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey, timeout))
	}
	geocoders = append(geocoders, augment.NewNominatimGeocoder(cfg.FreeGeocodeBaseURL, timeout))
	return augment.NewChain(geocoders...)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second, // decode runs hold the connection
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}
