package encode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/paceapp/internal/plan"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Quantity
	}{
		{
			name: "kilometers",
			text: "2km",
			want: Quantity{Kind: QuantityDistance, Meters: 2000},
		},
		{
			name: "fractional kilometers with comma",
			text: "2,5 km",
			want: Quantity{Kind: QuantityDistance, Meters: 2500},
		},
		{
			name: "seconds",
			text: "90s",
			want: Quantity{Kind: QuantityTime, Seconds: 90},
		},
		{
			name: "seconds spelled out",
			text: "45 seconds",
			want: Quantity{Kind: QuantityTime, Seconds: 45},
		},
		{
			name: "minutes",
			text: "10m",
			want: Quantity{Kind: QuantityTime, Seconds: 600},
		},
		{
			name: "km not misread as minutes",
			text: "3km jog",
			want: Quantity{Kind: QuantityDistance, Meters: 3000},
		},
		{
			name: "unrecognized",
			text: "until you feel ready",
			want: Quantity{Kind: QuantityUnrecognized},
		},
		{
			name: "empty",
			text: "",
			want: Quantity{Kind: QuantityUnrecognized},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuantity(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseQuantity(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParsePaceRange(t *testing.T) {
	t.Run("faster pace becomes the higher speed bound", func(t *testing.T) {
		got, ok := ParsePaceRange("4:10-4:20/km")
		if !ok {
			t.Fatal("expected a match")
		}
		// 4:10/km is 1000/250 m/s, 4:20/km is 1000/260 m/s.
		if got.LowMps >= got.HighMps {
			t.Errorf("LowMps %v not below HighMps %v", got.LowMps, got.HighMps)
		}
		if want := 1000.0 / 260.0; !approxEqual(got.LowMps, want) {
			t.Errorf("LowMps = %v, want %v", got.LowMps, want)
		}
		if want := 1000.0 / 250.0; !approxEqual(got.HighMps, want) {
			t.Errorf("HighMps = %v, want %v", got.HighMps, want)
		}
	})

	t.Run("reversed textual order still normalizes", func(t *testing.T) {
		forward, _ := ParsePaceRange("4:10-4:20/km")
		reversed, ok := ParsePaceRange("4:20-4:10/km")
		if !ok {
			t.Fatal("expected a match")
		}
		if diff := cmp.Diff(forward, reversed); diff != "" {
			t.Errorf("bound order changed the result (-forward +reversed):\n%s", diff)
		}
	})

	t.Run("plain text does not match", func(t *testing.T) {
		if _, ok := ParsePaceRange("steady effort"); ok {
			t.Error("expected no match")
		}
	})
}

func TestIsPlaceholder(t *testing.T) {
	for _, text := range []string{"", "0", "n/a", "N/A", " Direct Start ", "walk off", "none"} {
		if !IsPlaceholder(text) {
			t.Errorf("IsPlaceholder(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"2.0km @ 5:30-6:00/km", "10m", "easy jog"} {
		if IsPlaceholder(text) {
			t.Errorf("IsPlaceholder(%q) = true, want false", text)
		}
	}
}

func TestBuildStepsRepeatedInterval(t *testing.T) {
	session := plan.Session{
		Type:   plan.WorkoutThreshold,
		Warmup: "n/a",
		Intervals: []plan.Interval{{
			Count:          5,
			DistanceMeters: 2000,
			PaceLow:        245,
			PaceHigh:       255,
			Rest:           "60s",
			Effort:         "Subthreshold",
		}},
		Cooldown: "",
	}

	steps, repeats := BuildSteps(session, Options{})

	if len(steps) != 2 {
		t.Fatalf("got %d steps, want work + rest", len(steps))
	}
	work, rest := steps[0], steps[1]

	if work.DurationKind != DurationDistance || work.DurationValue != 200000 {
		t.Errorf("work duration = (%v, %d), want 2000m as centimeters", work.DurationKind, work.DurationValue)
	}
	if work.TargetKind != TargetSpeed {
		t.Errorf("work target kind = %v, want speed", work.TargetKind)
	}
	if work.TargetLow >= work.TargetHigh {
		t.Errorf("work speed bounds not ordered: %d >= %d", work.TargetLow, work.TargetHigh)
	}
	if rest.DurationKind != DurationTime || rest.DurationValue != 60000 {
		t.Errorf("rest duration = (%v, %d), want 60s as milliseconds", rest.DurationKind, rest.DurationValue)
	}
	if rest.Intensity != IntensityRest {
		t.Errorf("rest intensity = %v", rest.Intensity)
	}

	want := []RepeatMarker{{FromIndex: 0, Count: 5}}
	if diff := cmp.Diff(want, repeats); diff != "" {
		t.Errorf("repeat markers mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStepsSingletonContinuous(t *testing.T) {
	session := plan.Session{
		Type: plan.WorkoutEasy,
		Intervals: []plan.Interval{{
			Count:          1,
			DistanceMeters: 10000,
			PaceLow:        320,
			PaceHigh:       350,
		}},
	}

	steps, repeats := BuildSteps(session, Options{})

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want exactly one main-set step", len(steps))
	}
	if len(repeats) != 0 {
		t.Fatalf("got %d repeat markers, want none", len(repeats))
	}
	if steps[0].Intensity != IntensityActive {
		t.Errorf("intensity = %v, want active", steps[0].Intensity)
	}
}

func TestBuildStepsWarmupAndCooldown(t *testing.T) {
	session := plan.Session{
		Warmup: "2.0km @ 5:30-6:00/km",
		Intervals: []plan.Interval{{
			Count:          1,
			DistanceMeters: 5000,
		}},
		Cooldown: "10m",
	}

	steps, _ := BuildSteps(session, Options{})

	if len(steps) != 3 {
		t.Fatalf("got %d steps, want warmup + work + cooldown", len(steps))
	}

	warmup := steps[0]
	if warmup.Intensity != IntensityWarmup {
		t.Errorf("first step intensity = %v", warmup.Intensity)
	}
	if warmup.DurationKind != DurationDistance || warmup.DurationValue != 200000 {
		t.Errorf("warmup duration = (%v, %d), want 2km", warmup.DurationKind, warmup.DurationValue)
	}
	if warmup.TargetKind != TargetSpeed {
		t.Errorf("warmup target = %v, want speed from the embedded pace band", warmup.TargetKind)
	}

	cooldown := steps[2]
	if cooldown.DurationKind != DurationTime || cooldown.DurationValue != 600000 {
		t.Errorf("cooldown duration = (%v, %d), want 10 minutes", cooldown.DurationKind, cooldown.DurationValue)
	}
	if cooldown.TargetKind != TargetOpen {
		t.Errorf("cooldown target = %v, want open", cooldown.TargetKind)
	}
}

func TestBuildStepsTargetPrecedence(t *testing.T) {
	interval := plan.Interval{
		Count:       1,
		DurationSec: 1200,
		PaceLow:     245,
		PaceHigh:    255,
		PowerLowW:   250,
		PowerHighW:  270,
		HRLowBPM:    150,
		HRHighBPM:   165,
	}

	t.Run("power wins over everything", func(t *testing.T) {
		steps, _ := BuildSteps(plan.Session{Intervals: []plan.Interval{interval}}, Options{PreferHeartRate: true})
		if steps[0].TargetKind != TargetPower {
			t.Errorf("target = %v, want power", steps[0].TargetKind)
		}
		if steps[0].TargetLow != 250 || steps[0].TargetHigh != 270 {
			t.Errorf("power bounds = %d-%d", steps[0].TargetLow, steps[0].TargetHigh)
		}
	})

	t.Run("heart rate when requested and no power", func(t *testing.T) {
		noPower := interval
		noPower.PowerLowW, noPower.PowerHighW = 0, 0
		steps, _ := BuildSteps(plan.Session{Intervals: []plan.Interval{noPower}}, Options{PreferHeartRate: true})
		if steps[0].TargetKind != TargetHeartRate {
			t.Errorf("target = %v, want heart rate", steps[0].TargetKind)
		}
	})

	t.Run("pace-derived speed by default", func(t *testing.T) {
		noPower := interval
		noPower.PowerLowW, noPower.PowerHighW = 0, 0
		steps, _ := BuildSteps(plan.Session{Intervals: []plan.Interval{noPower}}, Options{})
		if steps[0].TargetKind != TargetSpeed {
			t.Errorf("target = %v, want speed", steps[0].TargetKind)
		}
	})

	t.Run("open when nothing is set", func(t *testing.T) {
		bare := plan.Interval{Count: 1, DurationSec: 600}
		steps, _ := BuildSteps(plan.Session{Intervals: []plan.Interval{bare}}, Options{})
		if steps[0].TargetKind != TargetOpen {
			t.Errorf("target = %v, want open", steps[0].TargetKind)
		}
	})
}

func TestEncodeThresholdTitleRecomputed(t *testing.T) {
	session := plan.Session{
		Title: "SubT 8x1.0km", // stale after an edit
		Type:  plan.WorkoutThreshold,
		Intervals: []plan.Interval{{
			Count:          5,
			DistanceMeters: 2000,
			PaceLow:        245,
			PaceHigh:       255,
			Rest:           "60s",
		}},
	}

	got := Encode(session, Options{})

	if got.Title != "SubT 5x2.0km" {
		t.Errorf("title = %q, want recomputed from the interval", got.Title)
	}
	if len(got.FileContents) == 0 {
		t.Error("empty file contents")
	}
	if got.MovingTimeSec <= 0 {
		t.Errorf("moving time = %d, want positive", got.MovingTimeSec)
	}
}

func TestEncodeNonThresholdTitleKept(t *testing.T) {
	session := plan.Session{
		Title: "Long Run",
		Type:  plan.WorkoutLongRun,
		Intervals: []plan.Interval{{
			Count:          1,
			DistanceMeters: 22000,
		}},
	}

	if got := Encode(session, Options{}); got.Title != "Long Run" {
		t.Errorf("title = %q, want unchanged", got.Title)
	}
}

func TestDescribe(t *testing.T) {
	session := plan.Session{
		Warmup: "2.0km @ 5:30-6:00/km",
		Intervals: []plan.Interval{{
			Count:          5,
			DistanceMeters: 2000,
			PaceLow:        245,
			PaceHigh:       255,
			Rest:           "60s",
			Effort:         "Subthreshold",
		}},
		Cooldown: "n/a",
	}

	want := "Warmup: 2.0km @ 5:30-6:00/km\n" +
		"5x 2.0km @ 4:05-4:15/km (Subthreshold), rest 60s"
	if got := Describe(session); got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestMovingTimeEstimate(t *testing.T) {
	// 5 x (2000m at ~4:10/km + 60s rest): roughly 5*(500+60) seconds.
	session := plan.Session{
		Type: plan.WorkoutThreshold,
		Intervals: []plan.Interval{{
			Count:          5,
			DistanceMeters: 2000,
			PaceLow:        245,
			PaceHigh:       255,
			Rest:           "60s",
		}},
	}

	got := Encode(session, Options{}).MovingTimeSec
	if got < 2700 || got > 2900 {
		t.Errorf("moving time = %ds, want about 2800", got)
	}
}

func TestMalformedTextDegradesToOpenSteps(t *testing.T) {
	session := plan.Session{
		Warmup: "shake out the legs",
		Intervals: []plan.Interval{{
			Count: 3,
			Rest:  "until recovered",
		}},
	}

	steps, repeats := BuildSteps(session, Options{})

	if len(steps) != 3 {
		t.Fatalf("got %d steps, want warmup + work + rest", len(steps))
	}
	for i, step := range steps {
		if step.DurationKind != DurationOpen {
			t.Errorf("step %d duration kind = %v, want open", i, step.DurationKind)
		}
	}
	if len(repeats) != 1 || repeats[0].Count != 3 {
		t.Errorf("repeats = %+v, want one marker with count 3", repeats)
	}
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
