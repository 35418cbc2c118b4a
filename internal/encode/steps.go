package encode

import (
	"math"

	"github.com/myrjola/paceapp/internal/pace"
	"github.com/myrjola/paceapp/internal/plan"
)

// DurationKind tags how a step ends.
type DurationKind int

// Duration kinds. Distance values are stored in centimeters and time values
// in milliseconds, matching the binary workout-file units.
const (
	DurationOpen DurationKind = iota
	DurationDistance
	DurationTime
)

// TargetKind tags a step's intensity target.
type TargetKind int

// Target kinds. Speed bounds are stored in millimeters per second, power in
// watts, heart rate in beats per minute.
const (
	TargetOpen TargetKind = iota
	TargetSpeed
	TargetPower
	TargetHeartRate
)

// Intensity classifies a step for the receiving device.
type Intensity string

// Intensity classes.
const (
	IntensityWarmup   Intensity = "warmup"
	IntensityActive   Intensity = "active"
	IntensityRest     Intensity = "rest"
	IntensityCooldown Intensity = "cooldown"
)

// Step is one encodable workout step with normalized numeric fields.
type Step struct {
	Name          string
	DurationKind  DurationKind
	DurationValue int64
	TargetKind    TargetKind
	TargetLow     int64
	TargetHigh    int64
	Intensity     Intensity
}

// RepeatMarker instructs the consumer to repeat the block starting at
// FromIndex (inclusive, through the preceding step) Count times. Keeping the
// markers in their own list avoids overloading a step's duration field with
// an index, and means a marker can never be misread as a real step.
type RepeatMarker struct {
	FromIndex int
	Count     int
}

// Options controls target selection during encoding.
type Options struct {
	// PreferHeartRate requests heart-rate targets over pace-derived speed
	// targets when an interval carries both.
	PreferHeartRate bool
}

// BuildSteps flattens a session into the encodable step list plus its repeat
// markers. Placeholder warmup/cooldown values are elided; an interval with a
// single repetition and no recovery produces exactly one main-set step and
// no marker.
func BuildSteps(session plan.Session, opts Options) ([]Step, []RepeatMarker) {
	var (
		steps   []Step
		repeats []RepeatMarker
	)

	if step, ok := freeTextStep(session.Warmup, "Warmup", IntensityWarmup); ok {
		steps = append(steps, step)
	}

	for _, interval := range session.Intervals {
		workIndex := len(steps)
		steps = append(steps, workStep(interval, opts))

		restStep, hasRest := recoveryStep(interval.Rest)
		if hasRest {
			steps = append(steps, restStep)
		}

		if interval.Count > 1 {
			repeats = append(repeats, RepeatMarker{FromIndex: workIndex, Count: interval.Count})
		}
	}

	if step, ok := freeTextStep(session.Cooldown, "Cooldown", IntensityCooldown); ok {
		steps = append(steps, step)
	}

	return steps, repeats
}

// freeTextStep converts a warmup/cooldown free-text value into a step. The
// boolean is false when the value is a placeholder. A pace band embedded in
// the text becomes a speed target; otherwise the step is open. Unparseable
// duration text degrades to an open-duration step.
func freeTextStep(text, name string, intensity Intensity) (Step, bool) {
	if IsPlaceholder(text) {
		return Step{}, false
	}

	step := Step{Name: name, Intensity: intensity}

	quantity := ParseQuantity(text)
	switch quantity.Kind {
	case QuantityDistance:
		step.DurationKind = DurationDistance
		step.DurationValue = metersToCentimeters(quantity.Meters)
	case QuantityTime:
		step.DurationKind = DurationTime
		step.DurationValue = secondsToMilliseconds(quantity.Seconds)
	case QuantityUnrecognized:
		step.DurationKind = DurationOpen
	}

	if speeds, ok := ParsePaceRange(text); ok {
		step.TargetKind = TargetSpeed
		step.TargetLow = mpsToMillimetersPerSec(speeds.LowMps)
		step.TargetHigh = mpsToMillimetersPerSec(speeds.HighMps)
	}

	return step, true
}

// workStep encodes one repetition of an interval's work segment.
func workStep(interval plan.Interval, opts Options) Step {
	step := Step{
		Name:      interval.Effort,
		Intensity: IntensityActive,
	}
	if step.Name == "" {
		step.Name = "Run"
	}

	switch {
	case interval.DistanceMeters > 0:
		step.DurationKind = DurationDistance
		step.DurationValue = metersToCentimeters(interval.DistanceMeters)
	case interval.DurationSec > 0:
		step.DurationKind = DurationTime
		step.DurationValue = secondsToMilliseconds(interval.DurationSec)
	default:
		step.DurationKind = DurationOpen
	}

	applyTarget(&step, interval, opts)
	return step
}

// applyTarget picks the step's numeric target. Precedence: power range, then
// heart rate when requested, then pace-derived speed, then open.
func applyTarget(step *Step, interval plan.Interval, opts Options) {
	if interval.PowerLowW > 0 && interval.PowerHighW > 0 {
		step.TargetKind = TargetPower
		step.TargetLow = int64(interval.PowerLowW)
		step.TargetHigh = int64(interval.PowerHighW)
		return
	}

	if opts.PreferHeartRate && interval.HRLowBPM > 0 && interval.HRHighBPM > 0 {
		step.TargetKind = TargetHeartRate
		step.TargetLow = int64(interval.HRLowBPM)
		step.TargetHigh = int64(interval.HRHighBPM)
		return
	}

	if interval.PaceLow > 0 && interval.PaceHigh > 0 {
		// The faster pace bound has fewer seconds per kilometer and so maps
		// to the higher speed bound.
		fast := pace.ToSpeed(interval.PaceLow)
		slow := pace.ToSpeed(interval.PaceHigh)
		if fast > 0 && slow > 0 {
			step.TargetKind = TargetSpeed
			step.TargetLow = mpsToMillimetersPerSec(math.Min(fast, slow))
			step.TargetHigh = mpsToMillimetersPerSec(math.Max(fast, slow))
			return
		}
	}

	if interval.HRLowBPM > 0 && interval.HRHighBPM > 0 {
		step.TargetKind = TargetHeartRate
		step.TargetLow = int64(interval.HRLowBPM)
		step.TargetHigh = int64(interval.HRHighBPM)
		return
	}

	step.TargetKind = TargetOpen
}

// recoveryStep converts an interval's rest spec into a step. The boolean is
// false when the rest value means "no recovery". Unrecognized rest text
// still emits an open recovery step so the repeat structure stays intact.
func recoveryStep(rest string) (Step, bool) {
	if IsPlaceholder(rest) {
		return Step{}, false
	}

	step := Step{Name: "Recovery", Intensity: IntensityRest, TargetKind: TargetOpen}

	quantity := ParseQuantity(rest)
	switch quantity.Kind {
	case QuantityDistance:
		step.DurationKind = DurationDistance
		step.DurationValue = metersToCentimeters(quantity.Meters)
	case QuantityTime:
		step.DurationKind = DurationTime
		step.DurationValue = secondsToMilliseconds(quantity.Seconds)
	case QuantityUnrecognized:
		step.DurationKind = DurationOpen
	}

	return step, true
}

func metersToCentimeters(meters float64) int64 {
	return int64(math.Round(meters * 100))
}

func secondsToMilliseconds(seconds int) int64 {
	return int64(seconds) * 1000
}

func mpsToMillimetersPerSec(mps float64) int64 {
	return int64(math.Round(mps * 1000))
}
