package plan

import (
	"testing"
)

func TestEasyPaceRangeFromMarathonPace(t *testing.T) {
	band := EasyPaceRange(fiveKProfile(), 0)

	marathonPace := PredictPace(5000, 1147, DistanceMarathon)
	if !almostEqual(band.Low, marathonPace+easyOffsetLowSec, 1e-9) {
		t.Errorf("Low = %v, want marathon pace %v + %v", band.Low, marathonPace, easyOffsetLowSec)
	}
	if !almostEqual(band.High, marathonPace+easyOffsetHighSec, 1e-9) {
		t.Errorf("High = %v, want marathon pace %v + %v", band.High, marathonPace, easyOffsetHighSec)
	}
	if !almostEqual(band.Center, (band.Low+band.High)/2, 1e-9) {
		t.Errorf("Center = %v, want midpoint of %v and %v", band.Center, band.Low, band.High)
	}
}

func TestEasyPaceRangeAppliesCorrection(t *testing.T) {
	base := EasyPaceRange(fiveKProfile(), 0)
	corrected := EasyPaceRange(fiveKProfile(), 10)

	if !almostEqual(corrected.Low, base.Low+10, 1e-9) {
		t.Errorf("corrected Low = %v, want %v", corrected.Low, base.Low+10)
	}
	if !almostEqual(corrected.High, base.High+10, 1e-9) {
		t.Errorf("corrected High = %v, want %v", corrected.High, base.High+10)
	}
}

func TestEasyPaceRangeEmptyProfile(t *testing.T) {
	band := EasyPaceRange(Profile{}, 0)
	if band.Low != 0 || band.High != 0 || band.Center != 0 {
		t.Errorf("band = %+v, want all zeros", band)
	}
}

func TestIntervalPaceRangeEffortLabels(t *testing.T) {
	profile := fiveKProfile()

	tests := []struct {
		repMeters float64
		effort    string
	}{
		{400, "400m Pace"},
		{600, "600m Pace"},
		{800, "800m Pace"},
		{1000, "1K Pace"},
		{2000, "Half Marathon Pace"},
		{3000, "30K Pace"},
		{5000, "Marathon Pace"},
	}
	for _, tt := range tests {
		got := IntervalPaceRange(profile, tt.repMeters, 0)
		if got.Effort != tt.effort {
			t.Errorf("IntervalPaceRange(%v).Effort = %q, want %q", tt.repMeters, got.Effort, tt.effort)
		}
		if !almostEqual(got.High-got.Low, intervalBandWidthSec, 1e-9) {
			t.Errorf("IntervalPaceRange(%v) band width = %v, want %v", tt.repMeters, got.High-got.Low, intervalBandWidthSec)
		}
	}
}

func TestIntervalPaceShortRepsFaster(t *testing.T) {
	profile := fiveKProfile()

	short := IntervalPaceRange(profile, 400, 0)
	long := IntervalPaceRange(profile, 3000, 0)

	if short.Low >= long.Low {
		t.Errorf("400m pace %v not faster than 3000m pace %v", short.Low, long.Low)
	}
}

func TestIntervalPaceRangeEmptyProfile(t *testing.T) {
	got := IntervalPaceRange(Profile{}, 1000, 0)
	if got.Low != 0 || got.High != 0 {
		t.Errorf("band = %+v, want zero values", got)
	}
	if got.Effort == "" {
		t.Error("effort label missing for an empty profile")
	}
}

func TestDerivePaces(t *testing.T) {
	paces := DerivePaces(fiveKProfile(), 0)

	if paces.Threshold == 0 || paces.Source != SourceRiegel {
		t.Errorf("threshold = (%v, %q)", paces.Threshold, paces.Source)
	}
	if !(paces.Pace15K < paces.PaceHalf && paces.PaceHalf < paces.Pace30K && paces.Pace30K < paces.PaceMarathon) {
		t.Errorf("race-equivalent paces not ordered: %v %v %v %v",
			paces.Pace15K, paces.PaceHalf, paces.Pace30K, paces.PaceMarathon)
	}
	if paces.Easy.Low <= paces.PaceMarathon {
		t.Errorf("easy pace %v not slower than marathon pace %v", paces.Easy.Low, paces.PaceMarathon)
	}
	if paces.VO2Score == 0 {
		t.Error("VO2 score missing")
	}
}

func TestDerivePacesEmptyProfile(t *testing.T) {
	paces := DerivePaces(Profile{}, 0)

	if paces.Threshold != 0 || paces.Pace15K != 0 || paces.PaceMarathon != 0 || paces.VO2Score != 0 {
		t.Errorf("paces = %+v, want zero values throughout", paces)
	}
}
