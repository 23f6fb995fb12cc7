package scrape

import (
	"context"
	"testing"

	"github.com/leaselens/leaselens/internal/kv/kvtest"
	"github.com/leaselens/leaselens/internal/logger"
	"github.com/leaselens/leaselens/internal/model"
)

const jsonLDPage = `<!DOCTYPE html><html><head>
<script type="application/ld+json">
{
  "@type": "Apartment",
  "name": "Sunny 2BR",
  "address": {
    "streetAddress": "123 Main St",
    "addressLocality": "Los Angeles",
    "addressRegion": "CA",
    "postalCode": "90001"
  },
  "geo": {"latitude": 34.05, "longitude": -118.25},
  "offers": {"price": 2450},
  "numberOfBedrooms": 2,
  "numberOfBathroomsTotal": 1,
  "floorSize": {"value": 950},
  "amenityFeature": [{"name": "dishwasher"}, {"name": "parking"}]
}
</script></head>
<body><p>Sunny 2BR in a great neighborhood near the park.</p></body></html>`

const plainTextPage = `<!DOCTYPE html><html><head>
<meta property="og:title" content="456 Oak Ave, Austin, TX 78701 | For Rent">
</head><body>
<h1>Great rental</h1>
<p>Asking $1,850 /mo. 3 bd, 2 ba, 1,400 sqft. Won't last!</p>
</body></html>`

func TestParse_JSONLD(t *testing.T) {
	l, err := Parse("https://example.com/listing/1", jsonLDPage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := l.Fields
	if f.Address != "123 Main St" || f.City != "Los Angeles" || f.State != "CA" || f.Zip != "90001" {
		t.Fatalf("address fields: %+v", f)
	}
	if f.Price == nil || *f.Price != 2450 {
		t.Fatalf("price: %+v", f.Price)
	}
	if f.Beds == nil || *f.Beds != 2 || f.Baths == nil || *f.Baths != 1 {
		t.Fatalf("beds/baths: %+v %+v", f.Beds, f.Baths)
	}
	if f.Sqft == nil || *f.Sqft != 950 {
		t.Fatalf("sqft: %+v", f.Sqft)
	}
	if f.Lat == nil || *f.Lat != 34.05 {
		t.Fatalf("lat: %+v", f.Lat)
	}
	if len(f.Features) != 2 {
		t.Fatalf("features: %v", f.Features)
	}
	if l.Source.Provider != model.ProviderScrape {
		t.Fatalf("provider = %s", l.Source.Provider)
	}
	if !l.CoreComplete() {
		t.Fatalf("expected core-complete listing, missing %v", l.MissingCoreFields())
	}
}

func TestParse_TextHeuristics(t *testing.T) {
	l, err := Parse("https://example.com/listing/2", plainTextPage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := l.Fields
	if f.Address != "456 Oak Ave" || f.City != "Austin" || f.State != "TX" {
		t.Fatalf("og:title address: %+v", f)
	}
	if f.Price == nil || *f.Price != 1850 {
		t.Fatalf("price: %+v", f.Price)
	}
	if f.Beds == nil || *f.Beds != 3 || f.Baths == nil || *f.Baths != 2 {
		t.Fatalf("beds/baths: %+v %+v", f.Beds, f.Baths)
	}
	if f.Sqft == nil || *f.Sqft != 1400 {
		t.Fatalf("sqft: %+v", f.Sqft)
	}
}

func TestParse_EmptyPageIsIncompleteNotError(t *testing.T) {
	l, err := Parse("https://example.com/x", "<html><body>nothing here</body></html>")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.CoreComplete() {
		t.Fatalf("empty page should be core-incomplete")
	}
}

func TestService_IngestAndLookup(t *testing.T) {
	ctx := context.Background()
	store := kvtest.NewMemoryStore()
	svc := NewService(store, true, logger.New("test"))

	got, err := svc.Ingest(ctx, IngestRequest{URL: "https://example.com/listing/1", HTML: jsonLDPage})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if got.Fields.City != "Los Angeles" {
		t.Fatalf("ingest parse: %+v", got.Fields)
	}

	cached, err := svc.Lookup(ctx, "https://example.com/listing/1")
	if err != nil || cached == nil {
		t.Fatalf("Lookup: %+v err=%v", cached, err)
	}
	if cached.Fields.Address != "123 Main St" {
		t.Fatalf("cached fields: %+v", cached.Fields)
	}

	miss, err := svc.Lookup(ctx, "https://example.com/unknown")
	if err != nil || miss != nil {
		t.Fatalf("expected nil on miss, got %+v err=%v", miss, err)
	}
}

func TestService_IngestRequiresFlag(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), false, logger.New("test"))
	_, err := svc.Ingest(context.Background(), IngestRequest{URL: "https://x", HTML: "<html></html>"})
	if e, ok := model.AsError(err); !ok || e.Code != model.CodeValidation {
		t.Fatalf("expected validation error when flag disabled, got %v", err)
	}
}

func TestService_MetadataOnlyIngest(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), true, logger.New("test"))
	got, err := svc.Ingest(context.Background(), IngestRequest{
		URL:      "https://example.com/ext",
		Metadata: map[string]string{"address": "9 Pine Ct", "city": "Boise", "state": "ID", "price": "1200"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !got.CoreComplete() {
		t.Fatalf("metadata listing incomplete: %v", got.MissingCoreFields())
	}
}
