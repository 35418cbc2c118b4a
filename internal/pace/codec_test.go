package pace

import (
	"math"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "minutes and seconds", text: "19:07", want: 1147},
		{name: "hours minutes seconds", text: "1:19:07", want: 4747},
		{name: "empty", text: "", want: 0},
		{name: "whitespace", text: "  ", want: 0},
		{name: "bare seconds", text: "45", want: 45},
		{name: "non-numeric component parses to zero", text: "x:30", want: 30},
		{name: "fully non-numeric", text: "abc", want: 0},
		{name: "padded components", text: " 4 : 05 ", want: 245},
		{name: "negative component treated as zero", text: "-4:30", want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseClock(tt.text); got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "negative", seconds: -10, want: "0:00"},
		{name: "nan", seconds: math.NaN(), want: "0:00"},
		{name: "infinity", seconds: math.Inf(1), want: "0:00"},
		{name: "under a minute", seconds: 45, want: "0:45"},
		{name: "minutes and seconds", seconds: 1147, want: "19:07"},
		{name: "exact hour", seconds: 3600, want: "1:00:00"},
		{name: "over an hour", seconds: 4747, want: "1:19:07"},
		{name: "rounds fractional seconds", seconds: 244.6, want: "4:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatClock(tt.seconds); got != tt.want {
				t.Errorf("FormatClock(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

// TestClockRoundTrip checks that formatting a parsed well-formed clock string
// returns its normalized form.
func TestClockRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "19:07", want: "19:07"},
		{text: "4:05", want: "4:05"},
		{text: "04:05", want: "4:05"},
		{text: "1:19:07", want: "1:19:07"},
		{text: "0:59", want: "0:59"},
	}

	for _, tt := range tests {
		if got := FormatClock(float64(ParseClock(tt.text))); got != tt.want {
			t.Errorf("round trip %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestSpeedConversions(t *testing.T) {
	// 4:00/km is 240 s/km which is 1000/240 m/s.
	speed := ToSpeed(240)
	if math.Abs(speed-4.1666) > 0.001 {
		t.Errorf("ToSpeed(240) = %v, want ~4.1666", speed)
	}
	if got := FromSpeed(speed); math.Abs(got-240) > 1e-9 {
		t.Errorf("FromSpeed(ToSpeed(240)) = %v, want 240", got)
	}

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if got := ToSpeed(bad); got != 0 {
			t.Errorf("ToSpeed(%v) = %v, want 0", bad, got)
		}
		if got := FromSpeed(bad); got != 0 {
			t.Errorf("FromSpeed(%v) = %v, want 0", bad, got)
		}
	}
}
