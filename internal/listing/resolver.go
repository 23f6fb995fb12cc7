// Package listing resolves a normalized input to a structured Listing,
// querying the primary provider and falling back to scrape-derived data.
package listing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/cache"
	"github.com/leaselens/leaselens/internal/hash"
	"github.com/leaselens/leaselens/internal/model"
	"github.com/leaselens/leaselens/internal/normalize"
)

// ProviderTTL reflects structured-data volatility; scrape data lives in the
// scrape package with its own shorter TTL.
const ProviderTTL = 7 * 24 * time.Hour

const providerKeyPrefix = "listing"

// ScrapeSource returns a cached scrape-derived listing for a URL, or nil.
type ScrapeSource interface {
	Lookup(ctx context.Context, url string) (*model.Listing, error)
}

// Resolver sequences primary lookup, scrape fallback, and merge.
type Resolver struct {
	provider      Provider
	scrape        ScrapeSource
	cache         *cache.Cache
	scrapeEnabled bool
	log           zerolog.Logger
}

// NewResolver wires a Resolver. scrape may be nil when fallback is disabled.
func NewResolver(provider Provider, scrape ScrapeSource, c *cache.Cache, scrapeEnabled bool, log zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, scrape: scrape, cache: c, scrapeEnabled: scrapeEnabled, log: log}
}

// providerResult wraps the provider response so a no-match outcome is
// cacheable too.
type providerResult struct {
	Found   bool           `json:"found"`
	Listing *model.Listing `json:"listing,omitempty"`
}

// Resolve returns a core-complete Listing, or nil when no source had a
// match. A listing that stays core-incomplete after every fallback is a
// DataQualityError.
func (r *Resolver) Resolve(ctx context.Context, in model.NormalizedInput) (*model.Listing, error) {
	var primary *model.Listing

	if in.Address != "" {
		res, err := r.fetchPrimary(ctx, in.Address)
		if err != nil {
			return nil, err
		}
		if res.Found {
			primary = res.Listing
		}
	}

	merged := primary
	if r.shouldScrape(primary, in) {
		scraped, err := r.scrape.Lookup(ctx, in.Source.URL)
		if err != nil {
			// Scrape is best-effort; a lookup failure only loses the fallback.
			r.log.Warn().Err(err).Str("url", in.Source.URL).Msg("scrape lookup failed")
		} else if scraped != nil {
			merged = Merge(primary, scraped)
		}
	}

	if merged == nil {
		return nil, nil
	}
	if !merged.CoreComplete() {
		return nil, model.NewDataQuality("listing is missing required fields", map[string]interface{}{
			"missing":  merged.MissingCoreFields(),
			"received": merged.Fields,
		})
	}
	return merged, nil
}

func (r *Resolver) fetchPrimary(ctx context.Context, address string) (providerResult, error) {
	key := cache.Key(providerKeyPrefix, hash.Address(address), model.ListingVersion)
	return cache.GetOrCompute(ctx, r.cache, key, ProviderTTL, func(ctx context.Context) (providerResult, error) {
		l, err := r.provider.FetchByAddress(ctx, address)
		if err != nil {
			return providerResult{}, err
		}
		return providerResult{Found: l != nil, Listing: l}, nil
	})
}

// shouldScrape decides whether the scrape fallback is worth attempting: the
// primary result is absent or core-incomplete, a source URL exists, and the
// feature is enabled. A URL-derived partial address (bare city/state) is the
// canonical case where the primary lookup cannot succeed but a scrape can.
func (r *Resolver) shouldScrape(primary *model.Listing, in model.NormalizedInput) bool {
	if r.scrape == nil || !r.scrapeEnabled || in.Source.URL == "" {
		return false
	}
	if primary != nil {
		return !primary.CoreComplete()
	}
	// No primary match at all: a scrape is only worth attempting when the
	// address never identified a single property — it was empty, or it was a
	// URL-derived bare city/state fragment. A true full address with no
	// provider match stays a no-match.
	if in.Address == "" {
		return true
	}
	return in.Source.ParsedFromURL && !normalize.IsFullAddress(in.Address)
}
