// Package encode turns a synthesized training session into the external
// workout representations used for calendar sync: a textual structured
// description and a flat step sequence with numeric targets suitable for a
// binary workout file.
//
// Parsing of free-text fragments is total: anything unrecognized degrades to
// an open (untargeted) step instead of failing the encode.
package encode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/myrjola/paceapp/internal/pace"
)

// QuantityKind tags the result of parsing a free-text duration fragment.
type QuantityKind int

// Quantity kinds.
const (
	QuantityUnrecognized QuantityKind = iota
	QuantityDistance
	QuantityTime
)

// Quantity is the canonical form of a free-text duration fragment: either a
// distance in meters or a time in seconds. Callers must handle the
// Unrecognized kind explicitly.
type Quantity struct {
	Kind    QuantityKind
	Meters  float64
	Seconds int
}

// The cascade order is load-bearing: the kilometer pattern must run before
// the minutes pattern so that the trailing "m" of "km" is never read as
// minutes, and the seconds pattern before minutes for the same reason with
// "s" suffixed forms.
var (
	kmPattern      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*km\b`)
	secondsPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:s|sec|secs|seconds?)\b`)
	minutesPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:m|min|mins|minutes?)\b`)
)

// ParseQuantity parses a fragment such as "2km", "90s", or "10m" into its
// canonical quantity. Unmatched text yields the Unrecognized kind.
func ParseQuantity(text string) Quantity {
	text = strings.TrimSpace(text)
	if text == "" {
		return Quantity{Kind: QuantityUnrecognized}
	}

	if m := kmPattern.FindStringSubmatch(text); m != nil {
		km, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil && km > 0 {
			return Quantity{Kind: QuantityDistance, Meters: km * 1000}
		}
	}
	if m := secondsPattern.FindStringSubmatch(text); m != nil {
		secs, err := strconv.Atoi(m[1])
		if err == nil && secs > 0 {
			return Quantity{Kind: QuantityTime, Seconds: secs}
		}
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		minutes, err := strconv.Atoi(m[1])
		if err == nil && minutes > 0 {
			return Quantity{Kind: QuantityTime, Seconds: minutes * 60}
		}
	}

	return Quantity{Kind: QuantityUnrecognized}
}

// SpeedRange is an encoded speed band in meters per second. Low is always
// the slower bound.
type SpeedRange struct {
	LowMps  float64
	HighMps float64
}

var paceRangePattern = regexp.MustCompile(`(\d+:\d{1,2})\s*-\s*(\d+:\d{1,2})\s*/\s*km`)

// ParsePaceRange parses a pace band such as "4:10-4:20/km" into a speed
// range. The faster pace (fewer seconds) becomes the higher speed bound
// regardless of the textual order of the bounds.
func ParsePaceRange(text string) (SpeedRange, bool) {
	m := paceRangePattern.FindStringSubmatch(text)
	if m == nil {
		return SpeedRange{}, false
	}

	first := pace.ToSpeed(float64(pace.ParseClock(m[1])))
	second := pace.ToSpeed(float64(pace.ParseClock(m[2])))
	if first == 0 || second == 0 {
		return SpeedRange{}, false
	}

	low, high := first, second
	if low > high {
		low, high = high, low
	}
	return SpeedRange{LowMps: low, HighMps: high}, true
}

// placeholders are warmup/cooldown values meaning "no step". Matched
// case-insensitively after trimming.
var placeholders = map[string]struct{}{
	"":             {},
	"0":            {},
	"n/a":          {},
	"na":           {},
	"direct start": {},
	"walk off":     {},
	"none":         {},
}

// IsPlaceholder reports whether a free-text step value should be elided
// entirely from both the textual and binary encodings.
func IsPlaceholder(text string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
