package normalize

import (
	"testing"

	"github.com/leaselens/leaselens/internal/model"
)

func TestCanonicalIdempotent(t *testing.T) {
	inputs := []string{
		"123 Main St, Los Angeles, CA 90001",
		"456 N Oak Ave Unit 4B, Austin, TX",
		"789 Elm Street Apt 2, Miami, FL 33101",
		"1 Infinite Loop, Cupertino, CA",
		"22 Baker   Rd,  Portland, OR",
	}
	for _, in := range inputs {
		once := Canonical(in)
		twice := Canonical(once)
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCanonicalExpansion(t *testing.T) {
	cases := []struct{ in, want string }{
		{"123 Main St, Los Angeles, CA 90001", "123 main street, los angeles, ca 90001"},
		{"456 Oak Ave Unit 4B, Austin, TX", "456 oak avenue, austin, tx"},
		{"789 Pine Blvd Apt 12, Denver, CO", "789 pine boulevard, denver, co"},
		{"10 Elm Dr #3, Boise, ID", "10 elm drive, boise, id"},
		{"5 Lake  Rd.,   Salem, OR", "5 lake road, salem, or"},
	}
	for _, c := range cases {
		if got := Canonical(c.in); got != c.want {
			t.Fatalf("Canonical(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalKeepsStateAbbreviations(t *testing.T) {
	// "fl" is Florida here, not a floor designator.
	got := Canonical("200 Ocean Dr, Miami, FL 33101")
	if got != "200 ocean drive, miami, fl 33101" {
		t.Fatalf("got %q", got)
	}
}

func TestIsFullAddress(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"123 Main St, Los Angeles, CA", true},
		{"Ocean Avenue, Santa Monica, CA", true},
		{"Los Angeles, CA", false},
		{"los-angeles", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsFullAddress(c.in); got != c.want {
			t.Fatalf("IsFullAddress(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalize_RequiresInput(t *testing.T) {
	_, err := Normalize(Input{})
	e, ok := model.AsError(err)
	if !ok || e.Code != model.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalize_AddressOnly(t *testing.T) {
	out, err := Normalize(Input{Address: "123 Main St, Los Angeles, CA 90001"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out.Address != "123 main street, los angeles, ca 90001" {
		t.Fatalf("address = %q", out.Address)
	}
	if out.Source.InputType != model.InputAddress || out.Source.ParsedFromURL {
		t.Fatalf("source meta = %+v", out.Source)
	}
}

func TestNormalize_ZillowStyleURL(t *testing.T) {
	out, err := Normalize(Input{URL: "https://www.zillow.com/homedetails/123-Main-St-Los-Angeles-CA-90001/20765203_zpid/"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out.Address != "123 main street, los angeles, ca 90001" {
		t.Fatalf("address = %q", out.Address)
	}
	if !out.Source.ParsedFromURL || out.Source.InputType != model.InputURL {
		t.Fatalf("source meta = %+v", out.Source)
	}
}

func TestNormalize_QueryParamAddress(t *testing.T) {
	out, err := Normalize(Input{URL: "https://maps.example.com/listing?address=456+Oak+Ave%2C+Austin%2C+TX"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out.Address != "456 oak avenue, austin, tx" {
		t.Fatalf("address = %q", out.Address)
	}
}

func TestNormalize_CityStateSlugOnly(t *testing.T) {
	out, err := Normalize(Input{URL: "https://www.apartments.com/for_rent/los-angeles-ca/"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out.Address != "los angeles, ca" {
		t.Fatalf("address = %q", out.Address)
	}
	if IsFullAddress(out.Address) {
		t.Fatalf("city-state fragment must not count as full address")
	}
}

func TestNormalize_UnusableURLFallsBackToAddress(t *testing.T) {
	out, err := Normalize(Input{
		URL:     "https://example.com/some/opaque/path",
		Address: "22 Baker Rd, Portland, OR",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out.Address != "22 baker road, portland, or" {
		t.Fatalf("address = %q", out.Address)
	}
	if out.Source.ParsedFromURL {
		t.Fatalf("parsedFromUrl should be false on fallback")
	}
}

func TestNormalize_UnusableURLYieldsEmptyAddressWithoutError(t *testing.T) {
	out, err := Normalize(Input{URL: "https://example.com/some/opaque/path"})
	if err != nil {
		t.Fatalf("must not error; scrape fallback may still recover: %v", err)
	}
	if out.Address != "" || out.Source.ParsedFromURL {
		t.Fatalf("out = %+v", out)
	}
}
