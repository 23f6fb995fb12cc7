// Package augment derives location signals for a listing: geocode, noise,
// hazards, commute, and location insights. The engine never fails a decode;
// any sub-computation that errors degrades to an absent field.
package augment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/cache"
	"github.com/leaselens/leaselens/internal/hash"
	"github.com/leaselens/leaselens/internal/model"
)

// Sub-step cache TTLs. Geography moves slowly; registry/places data less so.
const (
	geocodeTTL  = 30 * 24 * time.Hour
	hazardTTL   = 30 * 24 * time.Hour
	registryTTL = 7 * 24 * time.Hour
	placesTTL   = 7 * 24 * time.Hour
)

// registryRadiiMi are the registry lookup radii, each cached independently.
var registryRadiiMi = []float64{1, 2}

// Engine computes augmentations. Any client may be nil; the corresponding
// signal is skipped silently (e.g. no places credential configured).
type Engine struct {
	geocoders *Chain
	hazards   HazardSource
	registry  RegistryClient
	places    PlacesClient
	cache     *cache.Cache
	log       zerolog.Logger
}

// NewEngine wires an Engine.
func NewEngine(geocoders *Chain, hazards HazardSource, registry RegistryClient, places PlacesClient, c *cache.Cache, log zerolog.Logger) *Engine {
	return &Engine{geocoders: geocoders, hazards: hazards, registry: registry, places: places, cache: c, log: log}
}

// Augment derives signals for a core-complete listing. Never returns an
// error; partial augmentation is valid output.
func (e *Engine) Augment(ctx context.Context, l *model.Listing, prefs model.Preferences) *model.Augmentation {
	out := &model.Augmentation{
		ComputedAt: time.Now().UTC(),
		Version:    model.AugmentationVersion,
	}
	addr := fullAddress(l)
	addrHash := hash.Address(addr)

	out.Geocode = e.geocodeListing(ctx, l, addr, addrHash)
	out.Noise = assessNoise(out.Geocode)
	out.Hazards = e.lookupHazards(ctx, out.Geocode, addrHash)
	out.Commute = e.estimateWorkCommute(ctx, out.Geocode, prefs)
	out.LocationInsights = e.locationInsights(ctx, l, out.Geocode, addrHash)

	return out
}

func fullAddress(l *model.Listing) string {
	addr := fmt.Sprintf("%s, %s, %s", l.Fields.Address, l.Fields.City, l.Fields.State)
	if l.Fields.Zip != "" {
		addr += " " + l.Fields.Zip
	}
	return addr
}

// geocodeListing prefers listing coordinates and otherwise walks the
// provider chain, caching whichever answer it got.
func (e *Engine) geocodeListing(ctx context.Context, l *model.Listing, addr, addrHash string) *model.Geocode {
	if l.Fields.Lat != nil && l.Fields.Lon != nil {
		return &model.Geocode{Lat: *l.Fields.Lat, Lon: *l.Fields.Lon, Provider: "listing"}
	}
	return e.geocodeAddress(ctx, addr, addrHash)
}

func (e *Engine) geocodeAddress(ctx context.Context, addr, addrHash string) *model.Geocode {
	if e.geocoders == nil || addr == "" {
		return nil
	}
	key := cache.Key("geocode", addrHash, model.AugmentationVersion)
	got, err := cache.GetOrCompute(ctx, e.cache, key, geocodeTTL, func(ctx context.Context) (*model.Geocode, error) {
		return e.geocoders.Geocode(ctx, addr), nil
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("geocode failed")
		return nil
	}
	return got
}

func (e *Engine) lookupHazards(ctx context.Context, geo *model.Geocode, addrHash string) *model.Hazards {
	if geo == nil {
		return nil
	}
	if e.hazards == nil {
		// No hazard source configured: unknown, never fabricated.
		return &model.Hazards{Flood: "unknown", Wildfire: "unknown"}
	}
	key := cache.Key("hazard", addrHash, model.AugmentationVersion)
	got, err := cache.GetOrCompute(ctx, e.cache, key, hazardTTL, func(ctx context.Context) (*model.Hazards, error) {
		return e.hazards.Lookup(ctx, geo.Lat, geo.Lon)
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("hazard lookup failed")
		return &model.Hazards{Flood: "unknown", Wildfire: "unknown"}
	}
	return got
}

func (e *Engine) estimateWorkCommute(ctx context.Context, home *model.Geocode, prefs model.Preferences) *model.Commute {
	if prefs.WorkAddress == "" || home == nil {
		return nil
	}
	work := e.geocodeAddress(ctx, prefs.WorkAddress, hash.Address(prefs.WorkAddress))
	return estimateCommute(home, work)
}

func (e *Engine) locationInsights(ctx context.Context, l *model.Listing, geo *model.Geocode, addrHash string) *model.LocationInsights {
	if geo == nil {
		return nil
	}
	out := &model.LocationInsights{}

	if e.registry != nil {
		reg := &model.RegistryInsight{RegistryURL: registryLinkForState(l.Fields.State)}
		ok := true
		for i, radius := range registryRadiiMi {
			key := cache.Key("registry", fmt.Sprintf("%s:r%.0f", addrHash, radius), model.AugmentationVersion)
			count, err := cache.GetOrCompute(ctx, e.cache, key, registryTTL, func(ctx context.Context) (int, error) {
				return e.registry.CountNearby(ctx, geo.Lat, geo.Lon, radius)
			})
			if err != nil {
				e.log.Warn().Err(err).Float64("radius_mi", radius).Msg("registry lookup failed")
				ok = false
				break
			}
			if i == 0 {
				reg.CountWithin1Mi = count
			} else {
				reg.CountWithin2Mi = count
			}
		}
		if ok {
			out.Registry = reg
		}
	}

	if e.places != nil {
		amenities := make(map[string]int, len(amenityCategories))
		for _, category := range amenityCategories {
			key := cache.Key("places", addrHash+":"+category, model.AugmentationVersion)
			count, err := cache.GetOrCompute(ctx, e.cache, key, placesTTL, func(ctx context.Context) (int, error) {
				return e.places.CountNearby(ctx, geo.Lat, geo.Lon, category, amenityRadiusMeters)
			})
			if err != nil {
				// One failed category does not lose the rest.
				e.log.Warn().Err(err).Str("category", category).Msg("places lookup failed")
				continue
			}
			amenities[category] = count
		}
		if len(amenities) > 0 {
			out.Amenities = amenities
		}
	}

	if out.Registry == nil && out.Amenities == nil {
		return nil
	}
	return out
}
