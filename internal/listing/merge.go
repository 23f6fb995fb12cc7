package listing

import (
	"time"

	"github.com/leaselens/leaselens/internal/model"
)

// Merge combines a primary-source listing with a scrape-derived one.
// Primary non-null fields always win; scrape fills only the gaps; feature
// arrays are unioned and de-duplicated. Merge never inverts precedence.
func Merge(primary, scrape *model.Listing) *model.Listing {
	if primary == nil {
		return scrape
	}
	if scrape == nil {
		return primary
	}

	out := *primary
	out.Source = model.ListingSource{
		URL:       firstNonEmpty(primary.Source.URL, scrape.Source.URL),
		FetchedAt: time.Now().UTC(),
		Provider:  model.ProviderMerged,
		Version:   model.ListingVersion,
	}

	f := &out.Fields
	s := scrape.Fields
	f.Address = firstNonEmpty(f.Address, s.Address)
	f.City = firstNonEmpty(f.City, s.City)
	f.State = firstNonEmpty(f.State, s.State)
	f.Zip = firstNonEmpty(f.Zip, s.Zip)
	f.PriceType = firstNonEmpty(f.PriceType, s.PriceType)
	f.DescriptionRaw = firstNonEmpty(f.DescriptionRaw, s.DescriptionRaw)
	if f.Lat == nil {
		f.Lat = s.Lat
	}
	if f.Lon == nil {
		f.Lon = s.Lon
	}
	if f.Price == nil {
		f.Price = s.Price
	}
	if f.Beds == nil {
		f.Beds = s.Beds
	}
	if f.Baths == nil {
		f.Baths = s.Baths
	}
	if f.Sqft == nil {
		f.Sqft = s.Sqft
	}
	if f.YearBuilt == nil {
		f.YearBuilt = s.YearBuilt
	}
	f.Features = unionFeatures(primary.Fields.Features, s.Features)

	return &out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func unionFeatures(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, f := range list {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
