package listing

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leaselens/leaselens/internal/model"
)

// Provider is the primary structured-data source. FetchByAddress returns
// (nil, nil) when the provider has no match for the address.
type Provider interface {
	FetchByAddress(ctx context.Context, address string) (*model.Listing, error)
}

// providerProperty is the explicit response-shape contract for the realty
// API. Instability in the upstream payload stays isolated here.
type providerProperty struct {
	AddressLine   string   `json:"addressLine1"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	ZipCode       string   `json:"zipCode"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Price         *float64 `json:"price"`
	PriceType     string   `json:"priceType"`
	Bedrooms      *float64 `json:"bedrooms"`
	Bathrooms     *float64 `json:"bathrooms"`
	SquareFootage *int     `json:"squareFootage"`
	YearBuilt     *int     `json:"yearBuilt"`
	Features      []string `json:"features"`
	Description   string   `json:"description"`
	ListingURL    string   `json:"listingUrl"`
}

type providerResponse struct {
	Properties []providerProperty `json:"properties"`
}

// HTTPProvider talks to the listing API over resty with the standard retry
// policy: up to 2 retries with exponential wait on 429/5xx, honoring
// Retry-After when the upstream supplies one.
type HTTPProvider struct {
	client *resty.Client
}

// NewHTTPProvider builds the client. timeout bounds every request.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-API-Key", apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		}).
		SetRetryAfter(retryAfterHeader)
	return &HTTPProvider{client: c}
}

// retryAfterHeader honors an upstream Retry-After (seconds) when present,
// else defers to resty's default backoff.
func retryAfterHeader(c *resty.Client, r *resty.Response) (time.Duration, error) {
	if r != nil {
		if s := r.Header().Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second, nil
			}
		}
	}
	return 0, nil
}

func (p *HTTPProvider) FetchByAddress(ctx context.Context, address string) (*model.Listing, error) {
	var out providerResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("address", address).
		SetResult(&out).
		Get("/properties")
	if err != nil {
		return nil, model.NewAPI("listing provider unreachable", 0, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode() == http.StatusTooManyRequests:
		return nil, model.NewRateLimited("listing provider throttled", map[string]interface{}{
			"upstreamStatus": resp.StatusCode(),
		})
	case resp.StatusCode() >= 500:
		return nil, model.NewAPI("listing provider failed", resp.StatusCode(), nil)
	case resp.StatusCode() >= 400:
		return nil, model.NewAPI("listing provider rejected request", resp.StatusCode(), nil)
	}

	if len(out.Properties) == 0 {
		return nil, nil
	}
	return normalizeProperty(out.Properties[0]), nil
}

// normalizeProperty maps the provider contract onto the canonical Listing.
func normalizeProperty(p providerProperty) *model.Listing {
	priceType := p.PriceType
	if p.Price != nil && priceType == "" {
		priceType = "monthly"
	}
	return &model.Listing{
		Source: model.ListingSource{
			URL:       p.ListingURL,
			FetchedAt: time.Now().UTC(),
			Provider:  model.ProviderPrimary,
			Version:   model.ListingVersion,
		},
		Fields: model.ListingFields{
			Address:        p.AddressLine,
			City:           p.City,
			State:          p.State,
			Zip:            p.ZipCode,
			Lat:            p.Latitude,
			Lon:            p.Longitude,
			Price:          p.Price,
			PriceType:      priceType,
			Beds:           p.Bedrooms,
			Baths:          p.Bathrooms,
			Sqft:           p.SquareFootage,
			YearBuilt:      p.YearBuilt,
			Features:       p.Features,
			DescriptionRaw: p.Description,
		},
	}
}
