package plan

import (
	"math"

	"github.com/myrjola/paceapp/internal/pace"
)

// Reference race distances in meters.
const (
	Distance15K      = 15000.0
	DistanceHalf     = 21097.5
	Distance30K      = 30000.0
	DistanceMarathon = 42195.0
)

// Performance model constants.
const (
	// fatigueExponent is the Riegel power-law exponent.
	fatigueExponent = 1.06

	// The critical-speed model tends to predict slightly optimistic
	// threshold paces, so its result is slowed by one percent.
	criticalSpeedConservatism = 1.01

	// Binary-search bounds and depth for inverting the Riegel model to the
	// distance covered in exactly one hour.
	thresholdSearchMinMeters = 6000.0
	thresholdSearchMaxMeters = 30000.0
	thresholdSearchSteps     = 30

	// Benchmarks already within this many seconds of one hour anchor the
	// threshold pace directly, skipping the numeric inversion.
	thresholdDirectWindowSec = 30.0

	hourSeconds = 3600.0
)

// PredictDuration predicts the completion time in seconds for targetMeters
// given a benchmark race, using Riegel power-law scaling. It returns 0 when
// any input is missing, which signals "cannot predict".
func PredictDuration(benchmarkMeters, benchmarkSec, targetMeters float64) float64 {
	if benchmarkMeters <= 0 || benchmarkSec <= 0 || targetMeters <= 0 {
		return 0
	}
	return benchmarkSec * math.Pow(targetMeters/benchmarkMeters, fatigueExponent)
}

// PredictPace predicts the average pace in seconds per kilometer over
// targetMeters. It returns 0 when the duration prediction is 0.
func PredictPace(benchmarkMeters, benchmarkSec, targetMeters float64) float64 {
	duration := PredictDuration(benchmarkMeters, benchmarkSec, targetMeters)
	if duration == 0 {
		return 0
	}
	return duration / (targetMeters / 1000)
}

// VO2Score estimates a VO2max-based fitness index from a race result. The
// running velocity in meters per minute feeds the Daniels/Gilbert oxygen-cost
// regression, and the result is divided by the fraction of VO2max sustainable
// for the race duration so that scores are comparable across distances.
// Returns 0 on missing input or non-positive intermediate terms, rounded to
// one decimal otherwise.
func VO2Score(distanceMeters, durationSec float64) float64 {
	if distanceMeters <= 0 || durationSec <= 0 {
		return 0
	}

	minutes := durationSec / 60
	velocity := distanceMeters / minutes

	cost := -4.60 + 0.182258*velocity + 0.000104*velocity*velocity
	fraction := 0.8 + 0.1894393*math.Exp(-0.012778*minutes) + 0.2989558*math.Exp(-0.1932605*minutes)
	if cost <= 0 || fraction <= 0 {
		return 0
	}

	return math.Round(cost/fraction*10) / 10
}

// benchmarkSeconds resolves a benchmark's clock text to seconds, 0 when the
// benchmark is absent or blank.
func benchmarkSeconds(b *Benchmark) float64 {
	if b == nil {
		return 0
	}
	return float64(pace.ParseClock(b.Time))
}

// ThresholdPace derives the 60-minute threshold pace anchor for a profile.
//
// When a valid secondary benchmark exists (strictly longer distance and
// duration than the primary) the two-point critical-speed model is preferred;
// otherwise the Riegel model is inverted numerically for the distance whose
// predicted duration is one hour. The returned source names the model used.
// A profile without a usable benchmark yields (0, "").
func ThresholdPace(profile Profile) (secPerKm float64, source string) {
	d1 := profile.Benchmark.DistanceMeters
	t1 := benchmarkSeconds(&profile.Benchmark)

	if p, ok := criticalSpeedPace(d1, t1, profile.SecondBenchmark); ok {
		return p, SourceCriticalSpeed
	}

	if d1 <= 0 || t1 <= 0 {
		return 0, ""
	}

	// A benchmark already close to one hour is its own anchor; searching
	// around it only adds numerical noise.
	if math.Abs(t1-hourSeconds) <= thresholdDirectWindowSec {
		return t1 / (d1 / 1000), SourceRiegel
	}

	return riegelHourPace(d1, t1), SourceRiegel
}

// criticalSpeedPace computes the two-point critical-speed pace. The pair is
// valid only when the second benchmark is strictly longer in both distance
// and duration.
func criticalSpeedPace(d1, t1 float64, second *Benchmark) (float64, bool) {
	if second == nil || d1 <= 0 || t1 <= 0 {
		return 0, false
	}
	d2 := second.DistanceMeters
	t2 := benchmarkSeconds(second)
	if d2 <= d1 || t2 <= t1 {
		return 0, false
	}

	criticalSpeed := (d2 - d1) / (t2 - t1)
	p := pace.FromSpeed(criticalSpeed)
	if p == 0 {
		return 0, false
	}
	return p * criticalSpeedConservatism, true
}

// riegelHourPace binary-searches for the race distance whose Riegel-predicted
// duration is one hour and converts it to a pace. Predicted duration grows
// monotonically with distance, so plain bisection converges.
func riegelHourPace(benchmarkMeters, benchmarkSec float64) float64 {
	low, high := thresholdSearchMinMeters, thresholdSearchMaxMeters
	for range thresholdSearchSteps {
		mid := (low + high) / 2
		if PredictDuration(benchmarkMeters, benchmarkSec, mid) < hourSeconds {
			low = mid
		} else {
			high = mid
		}
	}

	distance := (low + high) / 2
	return hourSeconds / (distance / 1000)
}
