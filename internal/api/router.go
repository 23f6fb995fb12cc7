package api

import (
	"context"

	"github.com/gorilla/mux"

	"github.com/leaselens/leaselens/internal/api/recovery"
	"github.com/leaselens/leaselens/internal/usage"
)

// Deps carries the wired handlers the router mounts.
type Deps struct {
	Decode  *DecodeHandler
	Report  *ReportHandler
	Scrape  *ScrapeHandler
	Limiter *usage.Limiter
	Health  func(ctx context.Context) error
}

// NewRouter mounts all API routes. Rate limiting guards the mutating
// endpoints only; report reads and health stay cheap and unthrottled.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(d.Health)
	router.HandleFunc("/api/health", healthHandler.Check).Methods("GET")

	router.HandleFunc("/api/report/{id}", d.Report.Get).Methods("GET")
	router.HandleFunc("/api/report/{id}/image", d.Report.Image).Methods("GET")

	limited := router.NewRoute().Subrouter()
	limited.Use(RateLimit(d.Limiter))
	limited.HandleFunc("/api/decode", d.Decode.Decode).Methods("POST")
	limited.HandleFunc("/api/scrape", d.Scrape.Ingest).Methods("POST")

	return router
}
