// Package api exposes the decode pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/api/respond"
	"github.com/leaselens/leaselens/internal/decode"
	"github.com/leaselens/leaselens/internal/model"
	"github.com/leaselens/leaselens/internal/reportstore"
	"github.com/leaselens/leaselens/internal/scrape"
	"github.com/leaselens/leaselens/internal/usage"
)

const maxBodyBytes = 2 << 20 // scrape payloads carry page HTML

// DecodeHandler runs decode requests behind the usage governor.
type DecodeHandler struct {
	orch     *decode.Orchestrator
	governor *usage.Governor
	log      zerolog.Logger
}

func NewDecodeHandler(orch *decode.Orchestrator, governor *usage.Governor, log zerolog.Logger) *DecodeHandler {
	return &DecodeHandler{orch: orch, governor: governor, log: log.With().Str("component", "api").Logger()}
}

type decodeResponse struct {
	ID        string               `json:"id"`
	Slug      string               `json:"slug"`
	Path      string               `json:"path"`
	Trial     bool                 `json:"trial,omitempty"`
	Remaining int                  `json:"remaining"`
	Report    *model.DecoderReport `json:"report"`
}

// Decode handles POST /api/decode.
func (h *DecodeHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req decode.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.URL == "" && req.Address == "" {
		respond.WriteBadRequest(w, "either url or address is required")
		return
	}

	caller := callerFor(r)
	decision, err := h.governor.CanDecode(r.Context(), caller.Identity)
	if err != nil {
		h.log.Error().Err(err).Msg("usage check failed")
		respond.WriteError(w, err)
		return
	}
	if !decision.Allowed {
		respond.WriteError(w, model.NewRateLimited("decode quota exhausted", map[string]interface{}{
			"plan":  decision.Plan,
			"limit": decision.Limit,
		}))
		return
	}

	sink := progressLogger(h.log)
	result, err := h.orch.Run(r.Context(), req, sink)
	if err != nil {
		h.log.Warn().Err(err).Str("identity", caller.Identity).Msg("decode failed")
		respond.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, decodeResponse{
		ID:        result.ID,
		Slug:      result.Slug,
		Path:      result.Path,
		Trial:     decision.Trial,
		Remaining: decision.Remaining,
		Report:    &result.Mapping.Report,
	})
}

// progressLogger adapts the run's progress events onto structured logs.
func progressLogger(log zerolog.Logger) decode.Sink {
	return func(e decode.Event) {
		evt := log.Debug().Str("run_id", e.RunID).Str("stage", string(e.Stage)).Float64("progress", e.Progress)
		if e.Warning != "" {
			evt = log.Warn().Str("run_id", e.RunID).Str("stage", string(e.Stage)).Str("warning", e.Warning)
		}
		evt.Msg("decode progress")
	}
}

// ReportHandler serves published reports.
type ReportHandler struct {
	store *reportstore.Store
}

func NewReportHandler(store *reportstore.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

// Get handles GET /api/report/{id}.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	mapping, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, mapping)
}

// Image handles GET /api/report/{id}/image.
func (h *ReportHandler) Image(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	svg, err := h.store.Image(r.Context(), id)
	if err != nil {
		respond.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// ScrapeHandler accepts page content from external collaborators.
type ScrapeHandler struct {
	svc *scrape.Service
}

func NewScrapeHandler(svc *scrape.Service) *ScrapeHandler {
	return &ScrapeHandler{svc: svc}
}

// Ingest handles POST /api/scrape.
func (h *ScrapeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req scrape.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	listing, err := h.svc.Ingest(r.Context(), req)
	if err != nil {
		respond.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"listing":      listing,
		"coreComplete": listing.CoreComplete(),
	})
}

// HealthHandler reports service and backend health.
type HealthHandler struct {
	check func(ctx context.Context) error
}

func NewHealthHandler(check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{check: check}
}

// Check handles GET /api/health. Always 200; the body reports status.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := h.check(r.Context()); err != nil {
		status = "unhealthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
