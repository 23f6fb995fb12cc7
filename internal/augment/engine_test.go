package augment

import (
	"context"
	"errors"
	"testing"

	"github.com/leaselens/leaselens/internal/cache"
	"github.com/leaselens/leaselens/internal/kv/kvtest"
	"github.com/leaselens/leaselens/internal/logger"
	"github.com/leaselens/leaselens/internal/model"
)

type fakeGeocoder struct {
	name  string
	geo   *model.Geocode
	err   error
	calls int
}

func (f *fakeGeocoder) Name() string { return f.name }
func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (*model.Geocode, error) {
	f.calls++
	return f.geo, f.err
}

type fakeRegistry struct {
	counts map[float64]int
	err    error
	calls  int
}

func (f *fakeRegistry) CountNearby(ctx context.Context, lat, lon, radiusMi float64) (int, error) {
	f.calls++
	return f.counts[radiusMi], f.err
}

type fakePlaces struct {
	count int
	err   error
	calls int
}

func (f *fakePlaces) CountNearby(ctx context.Context, lat, lon float64, category string, radiusMeters int) (int, error) {
	f.calls++
	return f.count, f.err
}

type fakeHazards struct {
	h   *model.Hazards
	err error
}

func (f *fakeHazards) Lookup(ctx context.Context, lat, lon float64) (*model.Hazards, error) {
	return f.h, f.err
}

func laListing() *model.Listing {
	lat, lon, price := 34.0522, -118.2437, 2400.0
	return &model.Listing{Fields: model.ListingFields{
		Address: "123 main street", City: "los angeles", State: "ca",
		Lat: &lat, Lon: &lon, Price: &price,
	}}
}

func TestChain_FallsBackInOrder(t *testing.T) {
	primary := &fakeGeocoder{name: "google", err: errors.New("quota exceeded")}
	secondary := &fakeGeocoder{name: "nominatim", geo: &model.Geocode{Lat: 1, Lon: 2}}
	chain := NewChain(primary, secondary)

	got := chain.Geocode(context.Background(), "123 main street")
	if got == nil || got.Provider != "nominatim" {
		t.Fatalf("chain result: %+v", got)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("calls: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestAugment_UsesListingCoordinates(t *testing.T) {
	gc := &fakeGeocoder{name: "google", geo: &model.Geocode{Lat: 9, Lon: 9}}
	e := NewEngine(NewChain(gc), nil, nil, nil, cache.New(kvtest.NewMemoryStore()), logger.New("test"))

	a := e.Augment(context.Background(), laListing(), model.Preferences{})
	if a.Geocode == nil || a.Geocode.Provider != "listing" {
		t.Fatalf("geocode: %+v", a.Geocode)
	}
	if gc.calls != 0 {
		t.Fatalf("geocoder should not be called when listing has coordinates")
	}
}

func TestAugment_NeverFails(t *testing.T) {
	// Every external source errors; the augmentation still comes back with
	// degraded fields rather than an error.
	gc := &fakeGeocoder{name: "google", err: errors.New("down")}
	e := NewEngine(
		NewChain(gc),
		&fakeHazards{err: errors.New("down")},
		&fakeRegistry{err: errors.New("down")},
		&fakePlaces{err: errors.New("down")},
		cache.New(kvtest.NewMemoryStore()),
		logger.New("test"),
	)

	l := laListing()
	l.Fields.Lat, l.Fields.Lon = nil, nil
	a := e.Augment(context.Background(), l, model.Preferences{WorkAddress: "1 Work Way, Los Angeles, CA"})
	if a == nil {
		t.Fatalf("augmentation must never be nil")
	}
	if a.Geocode != nil || a.Commute != nil || a.LocationInsights != nil {
		t.Fatalf("expected absent fields, got %+v", a)
	}
	if a.Version != model.AugmentationVersion || a.ComputedAt.IsZero() {
		t.Fatalf("metadata: %+v", a)
	}
}

func TestAugment_HazardsUnknownWithoutSource(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil, cache.New(kvtest.NewMemoryStore()), logger.New("test"))
	a := e.Augment(context.Background(), laListing(), model.Preferences{})
	if a.Hazards == nil || a.Hazards.Flood != "unknown" || a.Hazards.Wildfire != "unknown" {
		t.Fatalf("hazards: %+v", a.Hazards)
	}
}

func TestAugment_CommuteRequiresWorkAddress(t *testing.T) {
	work := &fakeGeocoder{name: "google", geo: &model.Geocode{Lat: 34.10, Lon: -118.30}}
	e := NewEngine(NewChain(work), nil, nil, nil, cache.New(kvtest.NewMemoryStore()), logger.New("test"))

	a := e.Augment(context.Background(), laListing(), model.Preferences{})
	if a.Commute != nil {
		t.Fatalf("no work address, commute should be absent")
	}

	a = e.Augment(context.Background(), laListing(), model.Preferences{WorkAddress: "1 Work Way, Los Angeles, CA"})
	if a.Commute == nil {
		t.Fatalf("commute absent despite work address")
	}
	if a.Commute.Method != "straight_line_estimate" {
		t.Fatalf("commute must stay a labeled estimate: %+v", a.Commute)
	}
	if a.Commute.DrivingTimeMin < 1 || a.Commute.DrivingTimeMax < a.Commute.DrivingTimeMin {
		t.Fatalf("bad range: %+v", a.Commute)
	}
}

func TestAugment_RegistryAndPlacesCachedPerKey(t *testing.T) {
	reg := &fakeRegistry{counts: map[float64]int{1: 2, 2: 5}}
	pl := &fakePlaces{count: 3}
	e := NewEngine(nil, nil, reg, pl, cache.New(kvtest.NewMemoryStore()), logger.New("test"))

	for i := 0; i < 2; i++ {
		a := e.Augment(context.Background(), laListing(), model.Preferences{})
		li := a.LocationInsights
		if li == nil || li.Registry == nil {
			t.Fatalf("insights: %+v", a.LocationInsights)
		}
		if li.Registry.CountWithin1Mi != 2 || li.Registry.CountWithin2Mi != 5 {
			t.Fatalf("registry counts: %+v", li.Registry)
		}
		if li.Registry.RegistryURL == "" {
			t.Fatalf("registry link missing")
		}
		if len(li.Amenities) != 5 {
			t.Fatalf("amenities: %+v", li.Amenities)
		}
	}
	// Second augmentation is fully served from cache.
	if reg.calls != 2 || pl.calls != 5 {
		t.Fatalf("calls: registry=%d places=%d, want 2 and 5", reg.calls, pl.calls)
	}
}

func TestNoiseTiers(t *testing.T) {
	nearLAX := &model.Geocode{Lat: 33.95, Lon: -118.40}
	if n := assessNoise(nearLAX); n == nil || n.Tier != "high" {
		t.Fatalf("near LAX should be high, got %+v", n)
	}
	ruralMT := &model.Geocode{Lat: 46.87, Lon: -110.36}
	if n := assessNoise(ruralMT); n == nil || n.Tier != "low" || len(n.Reasons) != 0 {
		t.Fatalf("rural should be low, got %+v", n)
	}
	if assessNoise(nil) != nil {
		t.Fatalf("nil geocode should yield nil noise")
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// LAX to SFO is ~337 miles.
	d := haversineMi(33.9416, -118.4085, 37.6213, -122.3790)
	if d < 330 || d > 345 {
		t.Fatalf("LAX-SFO distance = %.1f mi", d)
	}
}
