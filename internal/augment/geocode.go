package augment

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leaselens/leaselens/internal/model"
)

// Geocoder resolves an address to coordinates. Implementations return
// (nil, nil) when the address has no match; errors mean the provider itself
// failed and the chain should try the next one.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, address string) (*model.Geocode, error)
}

// Chain tries geocoders in order and returns the first result. It is the
// uniform fallback model: no nested conditionals, just an ordered list.
type Chain struct {
	geocoders []Geocoder
}

// NewChain builds a Chain. Order matters: keyed primary first, free fallback
// last.
func NewChain(geocoders ...Geocoder) *Chain { return &Chain{geocoders: geocoders} }

// Geocode returns the first successful result, annotated with the provider
// that resolved it, or nil when every provider missed or failed.
func (c *Chain) Geocode(ctx context.Context, address string) *model.Geocode {
	for _, g := range c.geocoders {
		got, err := g.Geocode(ctx, address)
		if err != nil || got == nil {
			continue
		}
		got.Provider = g.Name()
		return got
	}
	return nil
}

// GoogleGeocoder is the keyed primary provider.
type GoogleGeocoder struct {
	client *resty.Client
	key    string
}

// NewGoogleGeocoder builds the client; the chain should omit it entirely
// when key is empty.
func NewGoogleGeocoder(baseURL, key string, timeout time.Duration) *GoogleGeocoder {
	return &GoogleGeocoder{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		key:    key,
	}
}

func (g *GoogleGeocoder) Name() string { return "google" }

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*model.Geocode, error) {
	var out struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("address", address).
		SetQueryParam("key", g.key).
		SetResult(&out).
		Get("")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.NewAPI("geocoder failed", resp.StatusCode(), nil)
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		return nil, nil
	}
	loc := out.Results[0].Geometry.Location
	return &model.Geocode{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// NominatimGeocoder is the free/secondary provider; no credential required.
type NominatimGeocoder struct {
	client *resty.Client
}

// NewNominatimGeocoder builds the client. Nominatim's usage policy requires
// an identifying User-Agent.
func NewNominatimGeocoder(baseURL string, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", "leaselens-decoder/1.0").
			SetTimeout(timeout),
	}
}

func (n *NominatimGeocoder) Name() string { return "nominatim" }

func (n *NominatimGeocoder) Geocode(ctx context.Context, address string) (*model.Geocode, error) {
	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParam("q", address).
		SetQueryParam("format", "json").
		SetQueryParam("limit", "1").
		SetResult(&out).
		Get("/search")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.NewAPI("geocoder failed", resp.StatusCode(), nil)
	}
	if len(out) == 0 {
		return nil, nil
	}
	lat, errA := strconv.ParseFloat(out[0].Lat, 64)
	lon, errB := strconv.ParseFloat(out[0].Lon, 64)
	if errA != nil || errB != nil {
		return nil, nil
	}
	return &model.Geocode{Lat: lat, Lon: lon}, nil
}
