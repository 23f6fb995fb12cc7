package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/cache"
	"github.com/leaselens/leaselens/internal/hash"
	"github.com/leaselens/leaselens/internal/kv"
	"github.com/leaselens/leaselens/internal/model"
)

// TTL reflects scrape volatility: listing pages change often.
const TTL = 6 * time.Hour

const keyPrefix = "scrape"

// IngestRequest is the external-collaborator payload.
type IngestRequest struct {
	URL      string            `json:"url"`
	HTML     string            `json:"html,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Service parses and caches scrape-derived listings. Fresh ingestion is
// feature-gated; cached reads are always permitted.
type Service struct {
	store   kv.Store
	enabled bool
	log     zerolog.Logger
}

// NewService returns a scrape Service. enabled gates fresh ingestion only.
func NewService(store kv.Store, enabled bool, log zerolog.Logger) *Service {
	return &Service{store: store, enabled: enabled, log: log}
}

// Ingest parses the submitted page and caches the best-effort listing by URL
// hash. Returns the parsed listing for the caller's inspection.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*model.Listing, error) {
	if !s.enabled {
		return nil, model.NewValidation("scrape ingestion is not enabled")
	}
	if req.URL == "" {
		return nil, model.NewValidation("url is required")
	}
	if req.HTML == "" && len(req.Metadata) == 0 {
		return nil, model.NewValidation("html or metadata is required")
	}

	var listing *model.Listing
	var err error
	if req.HTML != "" {
		listing, err = Parse(req.URL, req.HTML)
		if err != nil {
			return nil, model.NewParse("could not parse page content", err)
		}
	} else {
		listing = &model.Listing{Source: model.ListingSource{
			URL:       req.URL,
			FetchedAt: time.Now().UTC(),
			Provider:  model.ProviderScrape,
			Version:   model.ListingVersion,
		}}
	}
	applyMetadata(req.Metadata, listing)

	c := cache.New(s.store)
	key := cache.Key(keyPrefix, hash.Address(req.URL), model.ListingVersion)
	stored, err := cache.GetOrCompute(ctx, c, key, TTL, func(context.Context) (*model.Listing, error) {
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	// GetOrCompute keeps an existing fresh entry; prefer the newest parse so
	// re-submitted pages refresh the cache.
	if stored.Source.FetchedAt.Before(listing.Source.FetchedAt) {
		if raw, merr := marshal(listing); merr == nil {
			if serr := s.store.Set(ctx, key, raw, TTL); serr != nil {
				s.log.Warn().Err(serr).Str("url", req.URL).Msg("scrape cache refresh failed")
			}
		}
	}

	s.log.Info().Str("url", req.URL).
		Bool("core_complete", listing.CoreComplete()).
		Msg("scrape ingested")
	return listing, nil
}

// Lookup returns the cached scrape-derived listing for url, or nil when none
// is cached. Never requires the feature flag.
func (s *Service) Lookup(ctx context.Context, url string) (*model.Listing, error) {
	key := cache.Key(keyPrefix, hash.Address(url), model.ListingVersion)
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		// Cache outage degrades to "no scrape available".
		s.log.Warn().Err(err).Str("url", url).Msg("scrape cache read failed")
		return nil, nil
	}
	return unmarshal(raw)
}

// applyMetadata overlays browser-extension-provided fields onto gaps the HTML
// parse left open.
func applyMetadata(md map[string]string, l *model.Listing) {
	if len(md) == 0 {
		return
	}
	f := &l.Fields
	setIfEmpty(&f.Address, md["address"])
	setIfEmpty(&f.City, md["city"])
	setIfEmpty(&f.State, md["state"])
	setIfEmpty(&f.Zip, md["zip"])
	setIfEmpty(&f.DescriptionRaw, md["description"])
	if f.Price == nil {
		if v, ok := parseFloat(md["price"]); ok {
			f.Price = &v
		}
	}
	if f.Beds == nil {
		if v, ok := parseFloat(md["beds"]); ok {
			f.Beds = &v
		}
	}
	if f.Baths == nil {
		if v, ok := parseFloat(md["baths"]); ok {
			f.Baths = &v
		}
	}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil && v > 0
}

func marshal(l *model.Listing) ([]byte, error) { return json.Marshal(l) }

func unmarshal(raw []byte) (*model.Listing, error) {
	var l model.Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
