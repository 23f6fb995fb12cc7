package augment

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leaselens/leaselens/internal/model"
)

// RegistryClient counts safety-registry entries near a coordinate.
type RegistryClient interface {
	CountNearby(ctx context.Context, lat, lon, radiusMi float64) (int, error)
}

// PlacesClient counts nearby amenities of a category.
type PlacesClient interface {
	CountNearby(ctx context.Context, lat, lon float64, category string, radiusMeters int) (int, error)
}

// amenityCategories are the fixed location-insight categories.
var amenityCategories = []string{"grocery", "restaurant", "park", "school", "transit"}

const amenityRadiusMeters = 1600 // ~1 mile

// stateRegistryLinks maps a state code to its official registry search page.
var stateRegistryLinks = map[string]string{
	"al": "https://app.alea.gov/Community/wfSexOffenderSearch.aspx",
	"az": "https://www.azdps.gov/services/public/offender",
	"ca": "https://www.meganslaw.ca.gov/",
	"co": "https://apps.colorado.gov/apps/dps/sor/",
	"fl": "https://offender.fdle.state.fl.us/offender/sops/home.jsf",
	"ga": "https://gbi.georgia.gov/services/georgia-sex-offender-registry",
	"il": "https://isp.illinois.gov/Sor",
	"ma": "https://www.mass.gov/orgs/sex-offender-registry-board",
	"ny": "https://www.criminaljustice.ny.gov/SomsSUBDirectory/search_index.jsp",
	"oh": "https://www.icrimewatch.net/index.php?AgencyID=55149",
	"or": "https://sexoffenders.oregon.gov/",
	"pa": "https://www.pameganslaw.state.pa.us/",
	"tx": "https://publicsite.dps.texas.gov/SexOffenderRegistry",
	"wa": "https://www.waspc.org/sex-offender-information",
}

// registryLinkForState returns the official registry URL for a state code,
// or the national search site when the state is not mapped.
func registryLinkForState(state string) string {
	if link, ok := stateRegistryLinks[strings.ToLower(strings.TrimSpace(state))]; ok {
		return link
	}
	return "https://www.nsopw.gov/"
}

// HTTPRegistryClient queries the registry data source.
type HTTPRegistryClient struct {
	client *resty.Client
}

// NewHTTPRegistryClient builds the client.
func NewHTTPRegistryClient(baseURL, key string, timeout time.Duration) *HTTPRegistryClient {
	return &HTTPRegistryClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("X-API-Key", key).
			SetTimeout(timeout),
	}
}

func (c *HTTPRegistryClient) CountNearby(ctx context.Context, lat, lon, radiusMi float64) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("lat", fmt.Sprintf("%f", lat)).
		SetQueryParam("lon", fmt.Sprintf("%f", lon)).
		SetQueryParam("radius", fmt.Sprintf("%.1f", radiusMi)).
		SetResult(&out).
		Get("/offenders/count")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, model.NewAPI("registry source failed", resp.StatusCode(), nil)
	}
	return out.Count, nil
}

// HTTPPlacesClient queries the places API for nearby amenity counts.
type HTTPPlacesClient struct {
	client *resty.Client
}

// NewHTTPPlacesClient builds the client.
func NewHTTPPlacesClient(baseURL, key string, timeout time.Duration) *HTTPPlacesClient {
	return &HTTPPlacesClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("X-Goog-Api-Key", key).
			SetTimeout(timeout),
	}
}

// placeTypeFor maps our categories to the places API's type names.
var placeTypeFor = map[string]string{
	"grocery":    "grocery_store",
	"restaurant": "restaurant",
	"park":       "park",
	"school":     "school",
	"transit":    "transit_station",
}

func (c *HTTPPlacesClient) CountNearby(ctx context.Context, lat, lon float64, category string, radiusMeters int) (int, error) {
	var out struct {
		Places []struct {
			ID string `json:"id"`
		} `json:"places"`
	}
	body := map[string]interface{}{
		"includedTypes": []string{placeTypeFor[category]},
		"locationRestriction": map[string]interface{}{
			"circle": map[string]interface{}{
				"center": map[string]float64{"latitude": lat, "longitude": lon},
				"radius": float64(radiusMeters),
			},
		},
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Goog-FieldMask", "places.id").
		SetBody(body).
		SetResult(&out).
		Post("/places:searchNearby")
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, model.NewAPI("places source failed", resp.StatusCode(), nil)
	}
	return len(out.Places), nil
}
