package plan

import "math"

// Easy-pace calibration constants. The easy band anchors to the
// marathon-equivalent pace with a fixed offset calibrated against a
// reference athlete; when no marathon pace is derivable it falls back to a
// multiple of the threshold anchor.
const (
	easyOffsetLowSec  = 74.0
	easyOffsetHighSec = 104.0

	easyFallbackLowFactor  = 1.32
	easyFallbackHighFactor = 1.44
)

// Interval pacing constants. Short reps take a fixed head start on the
// 15K-equivalent pace; every returned band spans ten seconds.
const (
	intervalBandWidthSec = 10.0

	rep400CutoffMeters  = 450.0
	rep600CutoffMeters  = 650.0
	rep800CutoffMeters  = 850.0
	rep1KCutoffMeters   = 1000.0
	repHalfCutoffMeters = 2000.0
	rep30KCutoffMeters  = 3500.0

	rep400OffsetSec = -9.0
	rep600OffsetSec = -6.0
	rep800OffsetSec = -3.0
)

// DerivePaces computes the full family of training paces for a profile with
// the given environmental correction in seconds per kilometer. Undeterminable
// members are 0.
func DerivePaces(profile Profile, correctionSec float64) Paces {
	threshold, source := ThresholdPace(profile)

	d := profile.Benchmark.DistanceMeters
	t := benchmarkSeconds(&profile.Benchmark)

	return Paces{
		Threshold:    threshold,
		Source:       source,
		Pace15K:      PredictPace(d, t, Distance15K),
		PaceHalf:     PredictPace(d, t, DistanceHalf),
		Pace30K:      PredictPace(d, t, Distance30K),
		PaceMarathon: PredictPace(d, t, DistanceMarathon),
		Easy:         EasyPaceRange(profile, correctionSec),
		VO2Score:     VO2Score(d, t),
	}
}

// EasyPaceRange derives the easy-run pace band for a profile, applying the
// environmental correction to both ends. An empty band (all zeros) means no
// benchmark pace is derivable at all.
func EasyPaceRange(profile Profile, correctionSec float64) PaceBand {
	d := profile.Benchmark.DistanceMeters
	t := benchmarkSeconds(&profile.Benchmark)

	marathonPace := PredictPace(d, t, DistanceMarathon)
	if marathonPace > 0 {
		return newPaceBand(marathonPace+easyOffsetLowSec, marathonPace+easyOffsetHighSec, correctionSec)
	}

	threshold, _ := ThresholdPace(profile)
	if threshold > 0 {
		return newPaceBand(threshold*easyFallbackLowFactor, threshold*easyFallbackHighFactor, correctionSec)
	}

	return PaceBand{}
}

// newPaceBand applies the correction to both bounds and fills in the center.
func newPaceBand(low, high, correctionSec float64) PaceBand {
	low = applyCorrection(low, correctionSec)
	high = applyCorrection(high, correctionSec)
	return PaceBand{Low: low, High: high, Center: (low + high) / 2}
}

// IntervalPaceRange maps a repetition distance to its target pace band and
// effort label. The band is always ten seconds wide after the environmental
// correction. When the relevant race-equivalent pace is undeterminable the
// raw threshold anchor steps in with the label "Subthreshold Pace"; with no
// anchor at all the band is zero-valued but the label still describes the
// rep distance.
func IntervalPaceRange(profile Profile, repMeters, correctionSec float64) IntervalPace {
	d := profile.Benchmark.DistanceMeters
	t := benchmarkSeconds(&profile.Benchmark)

	var (
		anchor float64
		offset float64
		effort string
	)
	switch {
	case repMeters <= rep400CutoffMeters:
		anchor, offset, effort = PredictPace(d, t, Distance15K), rep400OffsetSec, "400m Pace"
	case repMeters <= rep600CutoffMeters:
		anchor, offset, effort = PredictPace(d, t, Distance15K), rep600OffsetSec, "600m Pace"
	case repMeters <= rep800CutoffMeters:
		anchor, offset, effort = PredictPace(d, t, Distance15K), rep800OffsetSec, "800m Pace"
	case repMeters <= rep1KCutoffMeters:
		anchor, effort = PredictPace(d, t, Distance15K), "1K Pace"
	case repMeters <= repHalfCutoffMeters:
		anchor, effort = PredictPace(d, t, DistanceHalf), "Half Marathon Pace"
	case repMeters <= rep30KCutoffMeters:
		anchor, effort = PredictPace(d, t, Distance30K), "30K Pace"
	default:
		anchor, effort = PredictPace(d, t, DistanceMarathon), "Marathon Pace"
	}

	if anchor == 0 {
		threshold, _ := ThresholdPace(profile)
		if threshold > 0 {
			anchor, offset, effort = threshold, 0, "Subthreshold Pace"
		} else {
			return IntervalPace{Effort: effort}
		}
	}

	low := applyCorrection(anchor+offset, correctionSec)
	return IntervalPace{Low: low, High: low + intervalBandWidthSec, Effort: effort}
}

// applyCorrection adds an environmental delta to a pace, floored at one
// second per kilometer so a large tailwind can never produce a nonsensical
// target.
func applyCorrection(paceSec, deltaSec float64) float64 {
	return math.Max(paceSec+deltaSec, 1)
}
