package plan

import (
	"math"

	"github.com/myrjola/paceapp/internal/pace"
)

// Weather correction model constants. Each term is a linear penalty in
// seconds per kilometer; the summed delta is clamped before rounding so a
// single extreme reading cannot dominate the whole plan.
const (
	comfortCeilingC = 12.0
	comfortFloorC   = 5.0

	heatPenaltyPerC = 0.5
	coldPenaltyPerC = 0.25

	humidityThresholdPct    = 60.0
	humidityPenaltyPer10Pct = 0.6
	humidityMinTemperatureC = 18.0

	windThresholdKmh  = 12.0
	windPenaltyPerKmh = 0.12

	weatherDeltaMinSec = -5.0
	weatherDeltaMaxSec = 20.0
)

// Treadmill incline bounds in percent grade.
const (
	minTreadmillInclinePct = -3.0
	maxTreadmillInclinePct = 15.0
)

// WeatherPaceDelta converts current conditions into an additive pace
// correction in whole seconds per kilometer. Heat, cold, humidity (only in
// warm weather), and wind each contribute a linear penalty; the sum is
// clamped to [-5, +20] seconds.
func WeatherPaceDelta(temperatureC, humidityPct, windKmh float64) int {
	delta := 0.0

	if temperatureC > comfortCeilingC {
		delta += (temperatureC - comfortCeilingC) * heatPenaltyPerC
	}
	if temperatureC < comfortFloorC {
		delta += (comfortFloorC - temperatureC) * coldPenaltyPerC
	}
	if humidityPct > humidityThresholdPct && temperatureC >= humidityMinTemperatureC {
		delta += (humidityPct - humidityThresholdPct) / 10 * humidityPenaltyPer10Pct
	}
	if windKmh > windThresholdKmh {
		delta += (windKmh - windThresholdKmh) * windPenaltyPerKmh
	}

	delta = math.Min(math.Max(delta, weatherDeltaMinSec), weatherDeltaMaxSec)
	return int(math.Round(delta))
}

// TreadmillGradeDelta converts a treadmill incline into the pace delta that
// yields an equivalent physiological effort on flat ground, using the
// grade-equivalence relation 0.2*vFlat = (0.2 + 0.9*grade)*vGrade. The
// incline is clamped to the supported range before use. A base pace of 0
// returns 0.
func TreadmillGradeDelta(inclinePct, basePaceSec float64) float64 {
	if basePaceSec <= 0 {
		return 0
	}

	incline := math.Min(math.Max(inclinePct, minTreadmillInclinePct), maxTreadmillInclinePct)
	grade := incline / 100

	flatSpeed := pace.ToSpeed(basePaceSec)
	gradeSpeed := 0.2 * flatSpeed / (0.2 + 0.9*grade)
	gradePace := pace.FromSpeed(gradeSpeed)
	if gradePace == 0 {
		return 0
	}

	return gradePace - basePaceSec
}
