package scanner

import "testing"

func TestCanonicalizeEncodings(t *testing.T) {
	tests := []struct {
		name   string
		native string
		want   string
	}{
		{"YYMMDD", "BTC-240927-19000-C", "BTC-2024-09-27-19000-C"},
		{"DDMMMYY", "BTC-27SEP24-19000-C", "BTC-2024-09-27-19000-C"},
		{"already canonical", "BTC-2024-09-27-19000-C", "BTC-2024-09-27-19000-C"},
		{"lowercase ddmmmyy", "btc-27sep24-19000-c", "BTC-2024-09-27-19000-C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonicalize(tt.native)
			if !ok {
				t.Fatalf("Canonicalize(%q) not recognized", tt.native)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.native, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeUnrecognized(t *testing.T) {
	if _, ok := Canonicalize("not-an-option"); ok {
		t.Error("expected unrecognized id to return ok=false")
	}
}

func TestCanonicalizeRoundTrip(t *testing.T) {
	natives := []string{"BTC-240927-19000-C", "BTC-27SEP24-19000-C", "ETH-260101-3000-P"}
	for _, n := range natives {
		first, ok := Canonicalize(n)
		if !ok {
			t.Fatalf("Canonicalize(%q) not recognized", n)
		}
		second, ok := Canonicalize(first)
		if !ok {
			t.Fatalf("Canonicalize(%q) (second pass) not recognized", first)
		}
		if first != second {
			t.Errorf("round-trip unstable: %q != %q", first, second)
		}
	}
}

func TestIntersectOptionUniverse(t *testing.T) {
	a := []string{"BTC-240927-19000-C", "ETH-240101-3000-P"}
	b := []string{"BTC-27SEP24-19000-C", "SOL-240927-19000-C"}

	entries := IntersectOptionUniverse(a, b)
	if len(entries) != 1 {
		t.Fatalf("expected 1 intersecting entry, got %d", len(entries))
	}
	if entries[0].Canonical != "BTC-2024-09-27-19000-C" {
		t.Errorf("unexpected canonical id: %s", entries[0].Canonical)
	}
	if entries[0].NativeA != "BTC-240927-19000-C" || entries[0].NativeB != "BTC-27SEP24-19000-C" {
		t.Errorf("unexpected native mapping: %+v", entries[0])
	}
}
