package model

import "time"

// InputType records which kind of raw input started a decode.
type InputType string

const (
	InputURL     InputType = "url"
	InputAddress InputType = "address"
)

// SourceMeta carries provenance for a normalized input.
type SourceMeta struct {
	URL           string    `json:"url,omitempty"`
	InputType     InputType `json:"inputType"`
	ParsedFromURL bool      `json:"parsedFromUrl"`
}

// NormalizedInput is the canonical form of a decode request's url/address.
// Address may be empty when extraction failed; downstream resolvers may still
// recover via scrape-derived data.
type NormalizedInput struct {
	Address string     `json:"address"`
	Source  SourceMeta `json:"sourceMeta"`
}

// ListingProvider identifies where a listing's field values came from.
type ListingProvider string

const (
	ProviderPrimary ListingProvider = "primary"
	ProviderScrape  ListingProvider = "scrape"
	ProviderMerged  ListingProvider = "merged"
)

// ListingVersion is bumped when the Listing shape changes so stale cache
// entries are bypassed rather than deleted.
const ListingVersion = 1

// ListingSource records the provenance of a Listing.
type ListingSource struct {
	URL       string          `json:"url,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Provider  ListingProvider `json:"provider"`
	Version   int             `json:"version"`
}

// ListingFields holds the normalized property attributes. Pointer fields are
// absent-able; a nil pointer means the source never supplied the value.
type ListingFields struct {
	Address        string   `json:"address"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Zip            string   `json:"zip,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	PriceType      string   `json:"priceType,omitempty"`
	Beds           *float64 `json:"beds,omitempty"`
	Baths          *float64 `json:"baths,omitempty"`
	Sqft           *int     `json:"sqft,omitempty"`
	YearBuilt      *int     `json:"yearBuilt,omitempty"`
	Features       []string `json:"features,omitempty"`
	DescriptionRaw string   `json:"descriptionRaw,omitempty"`
}

// Listing is the canonical structured property record.
type Listing struct {
	Source ListingSource `json:"source"`
	Fields ListingFields `json:"fields"`
}

// CoreComplete reports whether the listing satisfies the minimum
// field-presence invariant: address, city, state present and at least one of
// price, beds, baths.
func (l *Listing) CoreComplete() bool {
	return len(l.MissingCoreFields()) == 0
}

// MissingCoreFields returns the names of the core fields the listing lacks.
func (l *Listing) MissingCoreFields() []string {
	var missing []string
	if l.Fields.Address == "" {
		missing = append(missing, "address")
	}
	if l.Fields.City == "" {
		missing = append(missing, "city")
	}
	if l.Fields.State == "" {
		missing = append(missing, "state")
	}
	if l.Fields.Price == nil && l.Fields.Beds == nil && l.Fields.Baths == nil {
		missing = append(missing, "price|beds|baths")
	}
	return missing
}

// Preferences are the caller-supplied decode preferences.
type Preferences struct {
	WorkAddress string `json:"workAddress,omitempty"`
}

// Geocode is a resolved coordinate pair plus the provider that resolved it.
type Geocode struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Provider string  `json:"provider"`
}

// Noise is a distance-heuristic noise assessment.
type Noise struct {
	Tier    string   `json:"tier"` // high | medium | low
	Reasons []string `json:"reasons,omitempty"`
}

// Hazards carries flood/wildfire tiers. "unknown" means the upstream source
// was unavailable; tiers are never fabricated.
type Hazards struct {
	Flood    string `json:"flood"`
	Wildfire string `json:"wildfire"`
}

// Commute is a straight-line driving estimate, not a routed calculation.
type Commute struct {
	DistanceMi     float64 `json:"distanceMi"`
	DrivingTimeMin int     `json:"drivingTimeMin"`
	DrivingTimeMax int     `json:"drivingTimeMax"`
	Method         string  `json:"method"`
}

// RegistryInsight summarizes safety-registry lookups around the property.
type RegistryInsight struct {
	CountWithin1Mi int    `json:"countWithin1Mi"`
	CountWithin2Mi int    `json:"countWithin2Mi"`
	RegistryURL    string `json:"registryUrl,omitempty"`
}

// LocationInsights aggregates registry and nearby-amenity signals.
type LocationInsights struct {
	Registry  *RegistryInsight `json:"registry,omitempty"`
	Amenities map[string]int   `json:"amenities,omitempty"`
}

// AugmentationVersion invalidates cached augmentations on shape changes.
const AugmentationVersion = 1

// Augmentation holds derived location signals. Every field is optional;
// partial augmentation is valid and never blocks report generation.
type Augmentation struct {
	Geocode          *Geocode          `json:"geocode,omitempty"`
	Noise            *Noise            `json:"noise,omitempty"`
	Hazards          *Hazards          `json:"hazards,omitempty"`
	Commute          *Commute          `json:"commute,omitempty"`
	LocationInsights *LocationInsights `json:"locationInsights,omitempty"`
	ComputedAt       time.Time         `json:"computedAt"`
	Version          int               `json:"version"`
}

// Report shape caps. Arrays are truncated to these, never padded.
const (
	MaxRedFlags   = 6
	MaxPositives  = 4
	MaxFollowUps  = 6
	MaxCaptionLen = 120
	ReportVersion = 1
	MaxScore      = 10
	MaxTotalScore = 100
)

// ScoreEntry is one scorecard category, clamped to [0,10].
type ScoreEntry struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale,omitempty"`
}

// Scorecard is the report's numeric assessment.
type Scorecard struct {
	Value        ScoreEntry `json:"value"`
	Livability   ScoreEntry `json:"livability"`
	NoiseLight   ScoreEntry `json:"noiseLight"`
	Hazards      ScoreEntry `json:"hazards"`
	Transparency ScoreEntry `json:"transparency"`
	Total        int        `json:"total"`
}

// DecoderReport is the generated narrative + scorecard for a listing.
type DecoderReport struct {
	Summary           string    `json:"summary"`
	RedFlags          []string  `json:"redFlags"`
	Positives         []string  `json:"positives"`
	Scorecard         Scorecard `json:"scorecard"`
	FollowUpQuestions []string  `json:"followUpQuestions"`
	Caption           string    `json:"caption"`
	GeneratedAt       time.Time `json:"generatedAt"`
	Version           int       `json:"version"`
}

// ReportMapping is the persisted decode result, keyed by a non-guessable id.
type ReportMapping struct {
	ID           string        `json:"id"`
	Slug         string        `json:"slug,omitempty"`
	Listing      Listing       `json:"listing"`
	Report       DecoderReport `json:"report"`
	Augmentation *Augmentation `json:"augmentation,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}
