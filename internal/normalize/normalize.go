// Package normalize turns a raw decode input (listing URL or free-text
// address) into a canonical address string with provenance metadata. The
// canonical form backs content-addressed cache keys, so it must be stable:
// Canonical is idempotent.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/leaselens/leaselens/internal/model"
)

// Input is the raw caller-supplied pair. At least one field must be set.
type Input struct {
	URL     string
	Address string
}

// streetTypes maps common street-type abbreviations to their expansions.
// Already-expanded forms map to themselves so expansion is idempotent.
var streetTypes = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"cir":  "circle",
	"pl":   "place",
	"pkwy": "parkway",
	"hwy":  "highway",
	"ter":  "terrace",
	"sq":   "square",
	"trl":  "trail",
	"way":  "way",

	"street": "street", "avenue": "avenue", "boulevard": "boulevard",
	"road": "road", "drive": "drive", "lane": "lane", "court": "court",
	"circle": "circle", "place": "place", "parkway": "parkway",
	"highway": "highway", "terrace": "terrace", "square": "square",
	"trail": "trail",
}

// unitTokens start a unit designator that is dropped (together with its
// value token) for stable hashing.
var unitTokens = map[string]bool{
	"unit": true, "apt": true, "apartment": true, "ste": true,
	"suite": true, "floor": true, "room": true,
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	stateZipRe   = regexp.MustCompile(`^([a-z]{2})(?:\s+(\d{5}(?:-\d{4})?))?$`)
	houseNumRe   = regexp.MustCompile(`^\d+[a-z]?$`)
	zipRe        = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
)

// Normalize resolves the input to a NormalizedInput. Absence of both fields
// is a caller error; an unusable URL with no explicit address yields an empty
// canonical address without error, because scrape-derived data may still
// recover the address downstream.
func Normalize(in Input) (model.NormalizedInput, error) {
	if in.URL == "" && in.Address == "" {
		return model.NormalizedInput{}, model.NewValidation("url or address is required")
	}

	if in.URL != "" {
		if addr := extractFromURL(in.URL); addr != "" {
			return model.NormalizedInput{
				Address: Canonical(addr),
				Source:  model.SourceMeta{URL: in.URL, InputType: model.InputURL, ParsedFromURL: true},
			}, nil
		}
		// URL extraction failed; fall back to an explicit address when given.
		if in.Address != "" {
			return model.NormalizedInput{
				Address: Canonical(in.Address),
				Source:  model.SourceMeta{URL: in.URL, InputType: model.InputURL, ParsedFromURL: false},
			}, nil
		}
		return model.NormalizedInput{
			Source: model.SourceMeta{URL: in.URL, InputType: model.InputURL, ParsedFromURL: false},
		}, nil
	}

	return model.NormalizedInput{
		Address: Canonical(in.Address),
		Source:  model.SourceMeta{InputType: model.InputAddress},
	}, nil
}

// Canonical lower-cases, collapses whitespace, expands street-type
// abbreviations, and strips unit designators. Idempotent.
func Canonical(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = strings.ReplaceAll(addr, "#", " # ")

	var parts []string
	for _, part := range strings.Split(addr, ",") {
		tokens := whitespaceRe.Split(strings.TrimSpace(part), -1)
		var kept []string
		skipNext := false
		for _, tok := range tokens {
			tok = strings.Trim(tok, ".")
			if tok == "" {
				continue
			}
			if skipNext {
				skipNext = false
				continue
			}
			if tok == "#" || unitTokens[tok] {
				skipNext = true
				continue
			}
			if exp, ok := streetTypes[tok]; ok {
				kept = append(kept, exp)
				continue
			}
			kept = append(kept, tok)
		}
		if len(kept) > 0 {
			parts = append(parts, strings.Join(kept, " "))
		}
	}
	return strings.Join(parts, ", ")
}

// IsFullAddress reports whether addr has a street-level component, as opposed
// to a bare "city, state" fragment. A street-level component leads with a
// house number or contains a street-type token.
func IsFullAddress(addr string) bool {
	addr = Canonical(addr)
	if addr == "" {
		return false
	}
	first := strings.Split(addr, ",")[0]
	tokens := strings.Fields(first)
	if len(tokens) == 0 {
		return false
	}
	if houseNumRe.MatchString(tokens[0]) && len(tokens) > 1 {
		return true
	}
	for _, tok := range tokens {
		if _, ok := streetTypes[tok]; ok {
			return true
		}
	}
	return false
}

// addressQueryParams are checked, in order, for an explicit address value.
var addressQueryParams = []string{"address", "addr", "q", "query", "location"}

// extractFromURL attempts pattern-based address extraction from known
// listing-site URL shapes. Returns "" when nothing street-like is found.
func extractFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	for _, p := range addressQueryParams {
		if v := u.Query().Get(p); v != "" && looksLikeAddress(v) {
			return v
		}
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	// Prefer the segment that de-hyphenates into a house-number-led slug,
	// e.g. zillow's /homedetails/123-Main-St-Los-Angeles-CA-90001/....
	for _, seg := range segments {
		seg, err := url.PathUnescape(seg)
		if err != nil {
			continue
		}
		if addr := parseAddressSlug(seg); addr != "" {
			return addr
		}
	}
	// Fall back to a bare city-state slug such as /for_rent/los-angeles-ca/.
	for _, seg := range segments {
		seg, err := url.PathUnescape(seg)
		if err != nil {
			continue
		}
		if cs := parseCityStateSlug(seg); cs != "" {
			return cs
		}
	}
	return ""
}

// parseAddressSlug de-hyphenates a slug and reassembles it into
// "street, city, state zip" when it leads with a house number and trails
// with a recognizable state (and optional zip).
func parseAddressSlug(seg string) string {
	tokens := strings.Split(strings.ToLower(seg), "-")
	if len(tokens) < 4 || !houseNumRe.MatchString(tokens[0]) {
		return ""
	}
	// Strip a trailing listing id fragment (purely numeric beyond zip length).
	last := len(tokens)
	zip := ""
	if zipRe.MatchString(tokens[last-1]) {
		zip = tokens[last-1]
		last--
	}
	if last < 3 {
		return ""
	}
	state := tokens[last-1]
	if !stateZipRe.MatchString(state) {
		return ""
	}
	last--

	// Heuristic split between street and city: the street part ends at the
	// last street-type token; the remainder is the city.
	streetEnd := -1
	for i := 1; i < last; i++ {
		if _, ok := streetTypes[tokens[i]]; ok {
			streetEnd = i
		}
	}
	if streetEnd < 0 || streetEnd == last-1 {
		// No street type or no room left for a city; take everything but the
		// final token as street and the final token as city.
		streetEnd = last - 2
	}
	street := strings.Join(tokens[:streetEnd+1], " ")
	city := strings.Join(tokens[streetEnd+1:last], " ")
	if city == "" {
		return ""
	}
	out := street + ", " + city + ", " + state
	if zip != "" {
		out += " " + zip
	}
	return out
}

// parseCityStateSlug recognizes "los-angeles-ca" style fragments.
func parseCityStateSlug(seg string) string {
	tokens := strings.Split(strings.ToLower(seg), "-")
	if len(tokens) < 2 || len(tokens) > 5 {
		return ""
	}
	state := tokens[len(tokens)-1]
	if len(state) != 2 || !stateZipRe.MatchString(state) {
		return ""
	}
	for _, tok := range tokens[:len(tokens)-1] {
		if tok == "" || strings.IndexFunc(tok, func(r rune) bool { return r < 'a' || r > 'z' }) >= 0 {
			return ""
		}
	}
	return strings.Join(tokens[:len(tokens)-1], " ") + ", " + state
}

// looksLikeAddress is a light filter for query-parameter values.
func looksLikeAddress(v string) bool {
	v = strings.TrimSpace(v)
	if len(v) < 5 || !strings.ContainsAny(v, "0123456789") {
		return false
	}
	return strings.Contains(v, " ") || strings.Contains(v, ",") || strings.Contains(v, "+")
}
