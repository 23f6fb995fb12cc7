package hash

import (
	"testing"

	"github.com/leaselens/leaselens/internal/model"
)

func TestAddressStableAndCaseInsensitive(t *testing.T) {
	a := Address("123 Main Street, Los Angeles, CA")
	b := Address("  123 MAIN STREET, los angeles, ca ")
	if a != b {
		t.Fatalf("address hash not canonical: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("hash length = %d, want 32", len(a))
	}
	if Address("456 Oak Ave") == a {
		t.Fatalf("distinct addresses should not collide")
	}
}

func TestPrefsZeroValueStable(t *testing.T) {
	if Prefs(model.Preferences{}) != Prefs(model.Preferences{WorkAddress: ""}) {
		t.Fatalf("zero-value prefs should hash identically")
	}
	if Prefs(model.Preferences{}) == Prefs(model.Preferences{WorkAddress: "1 Work Way"}) {
		t.Fatalf("work address must change the fingerprint")
	}
}

func TestReportKeyVersionSensitive(t *testing.T) {
	a := Address("123 Main St")
	p := Prefs(model.Preferences{})
	if ReportKey(a, p, 1) == ReportKey(a, p, 2) {
		t.Fatalf("version bump must change the report key")
	}
}
