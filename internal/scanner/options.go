package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// canonicalID is the universe key used once an option's native id has
// been normalized: BASE-YYYY-MM-DD-STRIKE-[C|P].
type canonicalID = string

var (
	// BTC-240927-19000-C — YYMMDD
	yymmddRe = regexp.MustCompile(`^([A-Z]+)-(\d{2})(\d{2})(\d{2})-(\d+)-([CP])$`)
	// BTC-27SEP24-19000-C — DDMMMYY
	ddmmmyyRe = regexp.MustCompile(`^([A-Z]+)-(\d{2})([A-Za-z]{3})(\d{2})-(\d+)-([CP])$`)
	// BTC-2024-09-27-19000-C — already canonical
	isoRe = regexp.MustCompile(`^([A-Z]+)-(\d{4})-(\d{2})-(\d{2})-(\d+)-([CP])$`)
)

var monthAbbrev = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

// Canonicalize rewrites a native option id into BASE-YYYY-MM-DD-STRIKE-[C|P].
// Unrecognized ids yield ("", false) so callers can skip them from the
// universe rather than admit garbage.
func Canonicalize(native string) (id canonicalID, ok bool) {
	native = strings.ToUpper(strings.TrimSpace(native))

	if m := isoRe.FindStringSubmatch(native); m != nil {
		return buildCanonical(m[1], m[2], m[3], m[4], m[5], m[6])
	}

	if m := yymmddRe.FindStringSubmatch(native); m != nil {
		year := "20" + m[2]
		return buildCanonical(m[1], year, m[3], m[4], m[5], m[6])
	}

	if m := ddmmmyyRe.FindStringSubmatch(native); m != nil {
		day := m[2]
		month, known := monthAbbrev[strings.ToUpper(m[3])]
		if !known {
			return "", false
		}
		year := "20" + m[4]
		return buildCanonical(m[1], year, fmt.Sprintf("%02d", month), day, m[5], m[6])
	}

	return "", false
}

func buildCanonical(base, year, month, day, strike, cp string) (canonicalID, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", y, mo, d)); err != nil {
		return "", false
	}
	return fmt.Sprintf("%s-%04d-%02d-%02d-%s-%s", base, y, mo, d, strike, cp), true
}

// UniverseEntry is one canonical id present on both venues, with a
// mapping back to each side's native id so the scanner can read quotes
// under the key each adapter actually writes.
type UniverseEntry struct {
	Canonical string
	NativeA   string
	NativeB   string
}

// IntersectOptionUniverse canonicalizes both native symbol lists and
// returns the entries present, under any recognized encoding, on both
// sides.
func IntersectOptionUniverse(nativeA, nativeB []string) []UniverseEntry {
	byCanonicalA := make(map[string]string, len(nativeA))
	for _, n := range nativeA {
		if c, ok := Canonicalize(n); ok {
			byCanonicalA[c] = n
		}
	}

	var out []UniverseEntry
	seen := make(map[string]bool, len(nativeB))
	for _, n := range nativeB {
		c, ok := Canonicalize(n)
		if !ok || seen[c] {
			continue
		}
		if a, present := byCanonicalA[c]; present {
			out = append(out, UniverseEntry{Canonical: c, NativeA: a, NativeB: n})
			seen[c] = true
		}
	}
	return out
}
