// Package scrape turns collaborator-submitted page content (raw HTML or
// browser-extension metadata) into a best-effort scrape-derived Listing the
// resolver can merge with primary-source data.
package scrape

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/leaselens/leaselens/internal/model"
)

// jsonLD mirrors the schema.org shapes listing sites embed. Only the fields
// we extract are declared; everything else is ignored.
type jsonLD struct {
	Type    interface{} `json:"@type"`
	Name    string      `json:"name"`
	Address *struct {
		StreetAddress   string `json:"streetAddress"`
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
		PostalCode      string `json:"postalCode"`
	} `json:"address"`
	Geo *struct {
		Latitude  json.Number `json:"latitude"`
		Longitude json.Number `json:"longitude"`
	} `json:"geo"`
	Offers *struct {
		Price json.Number `json:"price"`
	} `json:"offers"`
	NumberOfBedrooms       json.Number `json:"numberOfBedrooms"`
	NumberOfBathroomsTotal json.Number `json:"numberOfBathroomsTotal"`
	FloorSize              *struct {
		Value json.Number `json:"value"`
	} `json:"floorSize"`
	YearBuilt       json.Number `json:"yearBuilt"`
	AmenityFeature  []struct {
		Name string `json:"name"`
	} `json:"amenityFeature"`
}

var (
	priceRe   = regexp.MustCompile(`\$\s?([\d,]+)(?:\s*/\s*mo)?`)
	bedsRe    = regexp.MustCompile(`(\d+(?:\.\d)?)\s*(?:bd|bed|beds|bedroom)`)
	bathsRe   = regexp.MustCompile(`(\d+(?:\.\d)?)\s*(?:ba|bath|baths|bathroom)`)
	sqftRe    = regexp.MustCompile(`([\d,]+)\s*(?:sq\s?ft|sqft)`)
	addressRe = regexp.MustCompile(`(\d+[\w\s.]*?),\s*([A-Za-z .]+),\s*([A-Z]{2})(?:\s+(\d{5}))?`)
)

// Parse builds a scrape-provenance Listing from page HTML. It never fails on
// missing fields; the result may be core-incomplete.
func Parse(pageURL, html string) (*model.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	l := &model.Listing{
		Source: model.ListingSource{
			URL:       pageURL,
			FetchedAt: time.Now().UTC(),
			Provider:  model.ProviderScrape,
			Version:   model.ListingVersion,
		},
	}

	applyJSONLD(doc, l)
	applyMetaTags(doc, l)
	applyTextHeuristics(doc, l)
	applyReadability(pageURL, html, l)

	return l, nil
}

// applyJSONLD walks every ld+json block and keeps the first value seen per
// field; listing pages commonly embed several blocks.
func applyJSONLD(doc *goquery.Document, l *model.Listing) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		var blocks []jsonLD
		// A block may be a single object or an array.
		if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
			var one jsonLD
			if err := json.Unmarshal([]byte(raw), &one); err != nil {
				return
			}
			blocks = []jsonLD{one}
		}
		for _, b := range blocks {
			mergeJSONLD(&b, l)
		}
	})
}

func mergeJSONLD(b *jsonLD, l *model.Listing) {
	f := &l.Fields
	if b.Address != nil {
		setIfEmpty(&f.Address, b.Address.StreetAddress)
		setIfEmpty(&f.City, b.Address.AddressLocality)
		setIfEmpty(&f.State, b.Address.AddressRegion)
		setIfEmpty(&f.Zip, b.Address.PostalCode)
	}
	if b.Geo != nil {
		if v, err := b.Geo.Latitude.Float64(); err == nil && f.Lat == nil {
			f.Lat = &v
		}
		if v, err := b.Geo.Longitude.Float64(); err == nil && f.Lon == nil {
			f.Lon = &v
		}
	}
	if b.Offers != nil && f.Price == nil {
		if v, err := b.Offers.Price.Float64(); err == nil && v > 0 {
			f.Price = &v
			f.PriceType = "monthly"
		}
	}
	if f.Beds == nil {
		if v, err := b.NumberOfBedrooms.Float64(); err == nil && v > 0 {
			f.Beds = &v
		}
	}
	if f.Baths == nil {
		if v, err := b.NumberOfBathroomsTotal.Float64(); err == nil && v > 0 {
			f.Baths = &v
		}
	}
	if b.FloorSize != nil && f.Sqft == nil {
		if v, err := b.FloorSize.Value.Int64(); err == nil && v > 0 {
			n := int(v)
			f.Sqft = &n
		}
	}
	if f.YearBuilt == nil {
		if v, err := b.YearBuilt.Int64(); err == nil && v > 1800 {
			n := int(v)
			f.YearBuilt = &n
		}
	}
	for _, a := range b.AmenityFeature {
		if a.Name != "" {
			f.Features = append(f.Features, a.Name)
		}
	}
}

func applyMetaTags(doc *goquery.Document, l *model.Listing) {
	f := &l.Fields
	if f.Address == "" {
		if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
			if m := addressRe.FindStringSubmatch(title); m != nil {
				f.Address, f.City, f.State = strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), m[3]
				setIfEmpty(&f.Zip, m[4])
			}
		}
	}
	if pos, ok := doc.Find(`meta[name="geo.position"]`).Attr("content"); ok && f.Lat == nil {
		parts := strings.SplitN(pos, ";", 2)
		if len(parts) == 2 {
			lat, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lon, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if errA == nil && errB == nil {
				f.Lat, f.Lon = &lat, &lon
			}
		}
	}
}

// applyTextHeuristics regex-scans the page text for price/beds/baths/sqft and
// an address fragment when structured data left gaps.
func applyTextHeuristics(doc *goquery.Document, l *model.Listing) {
	f := &l.Fields
	text := strings.ToLower(doc.Find("body").Text())

	if f.Price == nil {
		if m := priceRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v > 0 {
				f.Price = &v
				f.PriceType = "monthly"
			}
		}
	}
	if f.Beds == nil {
		if m := bedsRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				f.Beds = &v
			}
		}
	}
	if f.Baths == nil {
		if m := bathsRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				f.Baths = &v
			}
		}
	}
	if f.Sqft == nil {
		if m := sqftRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil && v > 0 {
				f.Sqft = &v
			}
		}
	}
	if f.Address == "" {
		if m := addressRe.FindStringSubmatch(doc.Find("body").Text()); m != nil {
			f.Address, f.City, f.State = strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), m[3]
			setIfEmpty(&f.Zip, m[4])
		}
	}
}

// applyReadability distills the page's main content into descriptionRaw.
func applyReadability(pageURL, html string, l *model.Listing) {
	if l.Fields.DescriptionRaw != "" {
		return
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) > 4000 {
		text = text[:4000]
	}
	l.Fields.DescriptionRaw = text
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
