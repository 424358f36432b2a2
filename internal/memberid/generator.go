// Package memberid derives deterministic membership numbers from member
// attributes. Generate is a pure function: same inputs, same output.
package memberid

import (
	"fmt"
	"strings"
	"time"
)

// LegacyPrefix marks membership numbers issued under the old scheme. Values
// carrying it (or empty values) are eligible for backfill.
const LegacyPrefix = "MBR-"

// Field widths. Every field before the trailing user id is fixed width, so
// the composite string parses unambiguously left to right:
//
//	CC NNN MM YYYY BB G <id>
//
// country code (2) + name prefix (3) + registration month (2) +
// registration year (4) + birth year (2) + gender code (1) + decimal id.
const (
	countryWidth = 2
	nameWidth    = 3
	padRune      = 'X'
)

// Generate derives the membership number for a member.
func Generate(userID uint, firstName, country string, dateOfBirth time.Time, gender string, registeredAt time.Time) string {
	return fmt.Sprintf("%s%s%02d%04d%02d%s%d",
		fixedUpper(country, countryWidth),
		fixedUpper(firstName, nameWidth),
		int(registeredAt.Month()),
		registeredAt.Year(),
		dateOfBirth.Year()%100,
		genderCode(gender),
		userID,
	)
}

// IsLegacy reports whether a stored membership number needs backfilling:
// either missing outright or issued under the old prefixed scheme.
func IsLegacy(number string) bool {
	return number == "" || strings.HasPrefix(number, LegacyPrefix)
}

// fixedUpper uppercases s and forces it to exactly width runes, truncating or
// padding as needed.
func fixedUpper(s string, width int) string {
	runes := []rune(strings.ToUpper(s))
	if len(runes) > width {
		runes = runes[:width]
	}
	for len(runes) < width {
		runes = append(runes, padRune)
	}
	return string(runes)
}

// genderCode is the first letter of the gender value, uppercased, or "U"
// when unspecified.
func genderCode(gender string) string {
	runes := []rune(strings.ToUpper(gender))
	if len(runes) == 0 {
		return "U"
	}
	return string(runes[0])
}
