package augment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leaselens/leaselens/internal/model"
)

// HazardSource reports flood/wildfire tiers for a coordinate.
type HazardSource interface {
	Lookup(ctx context.Context, lat, lon float64) (*model.Hazards, error)
}

// HTTPHazardSource queries the external hazard data API.
type HTTPHazardSource struct {
	client *resty.Client
}

// NewHTTPHazardSource builds the client.
func NewHTTPHazardSource(baseURL, key string, timeout time.Duration) *HTTPHazardSource {
	return &HTTPHazardSource{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("X-API-Key", key).
			SetTimeout(timeout),
	}
}

func (h *HTTPHazardSource) Lookup(ctx context.Context, lat, lon float64) (*model.Hazards, error) {
	var out struct {
		FloodRisk    string `json:"floodRisk"`
		WildfireRisk string `json:"wildfireRisk"`
	}
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("lat", fmt.Sprintf("%f", lat)).
		SetQueryParam("lon", fmt.Sprintf("%f", lon)).
		SetResult(&out).
		Get("/risk")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, model.NewAPI("hazard source failed", resp.StatusCode(), nil)
	}
	return &model.Hazards{
		Flood:    tierOrUnknown(out.FloodRisk),
		Wildfire: tierOrUnknown(out.WildfireRisk),
	}, nil
}

// tierOrUnknown keeps only recognized tiers; anything else is "unknown",
// never fabricated.
func tierOrUnknown(s string) string {
	switch s {
	case "low", "medium", "high":
		return s
	default:
		return "unknown"
	}
}
