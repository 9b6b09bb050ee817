package fingerprint

import (
	"reflect"
	"testing"
)

func TestVersionIgnoresInputOrderAndCase(t *testing.T) {
	f := New()
	a := f.Version(Filters{City: " NY ", Categories: []string{"b", "a"}}, "created_at_desc")
	b := f.Version(Filters{City: "ny", Categories: []string{"a", "b"}}, "created_at_desc")
	if a != b {
		t.Fatalf("equivalent contexts fingerprinted differently: %s vs %s", a, b)
	}
}

func TestVersionSensitivity(t *testing.T) {
	f := New()
	base := f.Version(Filters{City: "ny", Search: "pizza"}, "created_at_desc")
	cases := map[string]string{
		"city":   f.Version(Filters{City: "nj", Search: "pizza"}, "created_at_desc"),
		"search": f.Version(Filters{City: "ny", Search: "sushi"}, "created_at_desc"),
		"rating": f.Version(Filters{City: "ny", Search: "pizza", MinRating: 4}, "created_at_desc"),
		"sort":   f.Version(Filters{City: "ny", Search: "pizza"}, "created_at_asc"),
	}
	for name, got := range cases {
		if got == base {
			t.Fatalf("changing %s did not change the fingerprint", name)
		}
	}
}

func TestVersionStableAndFixedLength(t *testing.T) {
	f := New()
	a := f.Version(Filters{}, "created_at_desc")
	b := f.Version(Filters{}, "created_at_desc")
	if a != b {
		t.Fatalf("empty context not stable: %s vs %s", a, b)
	}
	if len(a) != DefaultLength {
		t.Fatalf("len = %d, want %d", len(a), DefaultLength)
	}
}

func TestVersionLengthOption(t *testing.T) {
	f := New(WithLength(8))
	if got := f.Version(Filters{City: "ny"}, "created_at_desc"); len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	f := New()
	in := Filters{
		Search:     "  Pizza Place ",
		City:       " New York ",
		Region:     "ny",
		Categories: []string{"Food", "food", " BARS ", ""},
		MinRating:  3.5,
		RadiusKm:   2,
		Center:     &Geo{Lat: 40.712841234, Lng: -74.005912345},
	}
	once := f.Normalize(in)
	twice := f.Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if !reflect.DeepEqual(once.Categories, []string{"bars", "food"}) {
		t.Fatalf("categories = %v, want [bars food]", once.Categories)
	}
	if once.Region != "NY" || once.City != "new york" || once.Search != "pizza place" {
		t.Fatalf("unexpected normalization: %+v", once)
	}
}

func TestGeoJitterToleratedWithinPrecision(t *testing.T) {
	f := New()
	a := f.Version(Filters{Center: &Geo{Lat: 40.71280001, Lng: -74.00590002}, RadiusKm: 5}, "created_at_desc")
	b := f.Version(Filters{Center: &Geo{Lat: 40.71280004, Lng: -74.00590001}, RadiusKm: 5}, "created_at_desc")
	if a != b {
		t.Fatalf("sub-precision jitter changed fingerprint: %s vs %s", a, b)
	}
	c := f.Version(Filters{Center: &Geo{Lat: 40.7138, Lng: -74.0059}, RadiusKm: 5}, "created_at_desc")
	if a == c {
		t.Fatalf("materially different center produced the same fingerprint")
	}
}

func TestGeoAbsentVersusPresent(t *testing.T) {
	f := New()
	without := f.Version(Filters{City: "ny"}, "created_at_desc")
	with := f.Version(Filters{City: "ny", Center: &Geo{Lat: 0, Lng: 0}}, "created_at_desc")
	if without == with {
		t.Fatalf("nil center and zero center fingerprinted the same")
	}
}

func TestValidate(t *testing.T) {
	f := New()
	v := f.Version(Filters{City: "ny"}, "created_at_desc")
	if !f.Validate(v, v) {
		t.Fatalf("matching versions rejected")
	}
	if f.Validate("", v) {
		t.Fatalf("empty token version accepted")
	}
	if f.Validate("deadbeefdeadbeef", v) {
		t.Fatalf("mismatched version accepted")
	}
}
