// Package pace converts between clock-time strings, seconds, and running speeds.
//
// All functions are total: malformed or non-positive input yields a zero
// value rather than an error, because a half-filled athlete profile is a
// normal state for the rest of the application.
package pace

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
)

// ParseClock parses a colon-delimited clock string ("M:S" or "H:M:S") into
// total seconds. Components parse permissively: non-numeric text counts as
// zero. Empty input returns 0.
func ParseClock(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			n = 0
		}
		total = total*secondsPerMinute + n
	}
	return total
}

// FormatClock renders seconds as "M:SS" or "H:MM:SS". Non-finite or
// non-positive input renders as "0:00". The hour component is omitted when
// zero; minutes are zero-padded only when an hour is present.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "0:00"
	}

	total := int(math.Round(seconds))
	hours := total / secondsPerHour
	minutes := (total % secondsPerHour) / secondsPerMinute
	secs := total % secondsPerMinute

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ToSpeed converts a pace in seconds per kilometer to meters per second.
// Non-positive or non-finite pace returns 0.
func ToSpeed(paceSecPerKm float64) float64 {
	if math.IsNaN(paceSecPerKm) || math.IsInf(paceSecPerKm, 0) || paceSecPerKm <= 0 {
		return 0
	}
	return 1000 / paceSecPerKm
}

// FromSpeed converts a speed in meters per second to a pace in seconds per
// kilometer. Non-positive or non-finite speed returns 0.
func FromSpeed(metersPerSec float64) float64 {
	if math.IsNaN(metersPerSec) || math.IsInf(metersPerSec, 0) || metersPerSec <= 0 {
		return 0
	}
	return 1000 / metersPerSec
}
