// Package decode sequences a full decode run: normalize the input, resolve
// the listing, augment it, generate the report, and publish the result under
// a shareable id.
package decode

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/model"
	"github.com/leaselens/leaselens/internal/normalize"
	"github.com/leaselens/leaselens/internal/reportstore"
)

// ListingResolver resolves a normalized input to a structured listing.
type ListingResolver interface {
	Resolve(ctx context.Context, in model.NormalizedInput) (*model.Listing, error)
}

// Augmenter derives location signals. It degrades instead of failing.
type Augmenter interface {
	Augment(ctx context.Context, l *model.Listing, prefs model.Preferences) *model.Augmentation
}

// ReportGenerator turns a listing plus signals into a decoder report.
type ReportGenerator interface {
	Generate(ctx context.Context, l *model.Listing, a *model.Augmentation, prefs model.Preferences) (*model.DecoderReport, error)
}

// Request is one decode invocation.
type Request struct {
	URL         string            `json:"url,omitempty"`
	Address     string            `json:"address,omitempty"`
	Preferences model.Preferences `json:"preferences"`
}

// Result is the published outcome of a successful run.
type Result struct {
	RunID   string               `json:"runId"`
	ID      string               `json:"id"`
	Slug    string               `json:"slug"`
	Path    string               `json:"path"`
	Mapping *model.ReportMapping `json:"-"`
}

// Orchestrator runs decode requests. Each run is stateless; all shared state
// lives behind the kv backend.
type Orchestrator struct {
	resolver ListingResolver
	augment  Augmenter
	reports  ReportGenerator
	store    *reportstore.Store
	renderer ShareImageRenderer
	log      zerolog.Logger
	now      func() time.Time
}

func NewOrchestrator(resolver ListingResolver, augment Augmenter, reports ReportGenerator, store *reportstore.Store, renderer ShareImageRenderer, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		augment:  augment,
		reports:  reports,
		store:    store,
		renderer: renderer,
		log:      log.With().Str("component", "decode").Logger(),
		now:      time.Now,
	}
}

// Run executes the pipeline. Any failure before the report stage aborts the
// run; a share-image failure is downgraded to a warning event.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) (*Result, error) {
	runID := uuid.NewString()
	log := o.log.With().Str("run_id", runID).Logger()
	emit := func(stage Stage, warning string) {
		sink.emit(Event{RunID: runID, Stage: stage, Progress: stageProgress[stage], Warning: warning})
	}

	in, err := normalize.Normalize(normalize.Input{URL: req.URL, Address: req.Address})
	if err != nil {
		return nil, err
	}
	emit(StageNormalize, "")

	listing, err := o.resolver.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, model.NewNotFound("no listing found for the given address")
	}
	emit(StageProperty, "")

	aug := o.augment.Augment(ctx, listing, req.Preferences)
	emit(StageAugment, "")

	rep, err := o.reports.Generate(ctx, listing, aug, req.Preferences)
	if err != nil {
		return nil, err
	}
	emit(StageReport, "")

	id, err := reportstore.NewID()
	if err != nil {
		return nil, err
	}
	mapping := &model.ReportMapping{
		ID:           id,
		Slug:         slugFor(listing, rep),
		Listing:      *listing,
		Report:       *rep,
		Augmentation: aug,
		CreatedAt:    o.now().UTC(),
	}

	if o.renderer != nil {
		if err := o.renderer.Render(ctx, mapping); err != nil {
			log.Warn().Err(err).Msg("share image rendering failed")
			emit(StageShareImage, "share image unavailable")
		} else {
			emit(StageShareImage, "")
		}
	}

	if err := o.store.Save(ctx, mapping); err != nil {
		return nil, err
	}
	emit(StagePublish, "")
	emit(StageComplete, "")
	log.Info().Str("report_id", id).Str("slug", mapping.Slug).Int("score", rep.Scorecard.Total).Msg("decode complete")

	return &Result{
		RunID:   runID,
		ID:      id,
		Slug:    mapping.Slug,
		Path:    "/report/" + id,
		Mapping: mapping,
	}, nil
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugFor builds a human-readable slug from city, street, and score. The id,
// not the slug, is what makes report URLs unique.
func slugFor(l *model.Listing, rep *model.DecoderReport) string {
	street := l.Fields.Address
	if i := strings.IndexAny(street, ","); i >= 0 {
		street = street[:i]
	}
	raw := strings.ToLower(l.Fields.City + " " + street + " " + strconv.Itoa(rep.Scorecard.Total))
	slug := strings.Trim(nonSlugRe.ReplaceAllString(raw, "-"), "-")
	if slug == "" {
		return "listing"
	}
	return slug
}
