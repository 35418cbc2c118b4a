package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/myrjola/paceapp/internal/pace"
	"github.com/myrjola/paceapp/internal/plan"
)

// EncodedWorkout is the payload shape the calendar collaborator accepts for
// one slot: a title, a structured textual description, an estimated moving
// time, and the binary workout file.
type EncodedWorkout struct {
	Title         string
	Description   string
	MovingTimeSec int
	FileContents  []byte
}

// Binary layout constants. The file is a little-endian stream: magic,
// version, step count, repeat count, then the steps and repeat markers.
const (
	fileMagic   uint32 = 0x504b5754 // "PKWT"
	fileVersion uint16 = 1
)

// Encode converts a session into its external sync payload. Threshold titles
// are recomputed from the first interval so an edited session never ships a
// stale title. Encoding never fails: unparseable fragments have already
// degraded to open steps by this point.
func Encode(session plan.Session, opts Options) EncodedWorkout {
	steps, repeats := BuildSteps(session, opts)

	return EncodedWorkout{
		Title:         encodeTitle(session),
		Description:   Describe(session),
		MovingTimeSec: movingTimeEstimate(session, steps, repeats),
		FileContents:  marshalSteps(steps, repeats),
	}
}

// encodeTitle returns the session title, rebuilding it from the first
// interval for threshold sessions.
func encodeTitle(session plan.Session) string {
	if session.Type != plan.WorkoutThreshold || len(session.Intervals) == 0 {
		return session.Title
	}

	interval := session.Intervals[0]
	label := ""
	switch {
	case interval.DistanceMeters >= 1000:
		label = fmt.Sprintf("%.1fkm", interval.DistanceMeters/1000)
	case interval.DistanceMeters > 0:
		label = fmt.Sprintf("%.0fm", interval.DistanceMeters)
	case interval.DurationSec > 0:
		label = pace.FormatClock(float64(interval.DurationSec))
	default:
		return session.Title
	}
	return fmt.Sprintf("SubT %dx%s", interval.Count, label)
}

// Describe renders the session as structured text for the calendar event
// body. Each step is one line; repeated blocks are prefixed with the count.
func Describe(session plan.Session) string {
	var b strings.Builder

	if session.Description != "" {
		b.WriteString(session.Description)
		b.WriteString("\n\n")
	}

	if !IsPlaceholder(session.Warmup) {
		fmt.Fprintf(&b, "Warmup: %s\n", session.Warmup)
	}

	for _, interval := range session.Intervals {
		if interval.Count > 1 {
			fmt.Fprintf(&b, "%dx ", interval.Count)
		}
		b.WriteString(intervalText(interval))
		b.WriteString("\n")
	}

	if !IsPlaceholder(session.Cooldown) {
		fmt.Fprintf(&b, "Cooldown: %s\n", session.Cooldown)
	}

	return strings.TrimRight(b.String(), "\n")
}

// intervalText renders one interval's work segment and recovery.
func intervalText(interval plan.Interval) string {
	var b strings.Builder

	switch {
	case interval.DistanceMeters >= 1000:
		fmt.Fprintf(&b, "%.1fkm", interval.DistanceMeters/1000)
	case interval.DistanceMeters > 0:
		fmt.Fprintf(&b, "%.0fm", interval.DistanceMeters)
	case interval.DurationSec > 0:
		b.WriteString(pace.FormatClock(float64(interval.DurationSec)))
	}

	switch {
	case interval.PowerLowW > 0 && interval.PowerHighW > 0:
		fmt.Fprintf(&b, " @ %d-%dW", interval.PowerLowW, interval.PowerHighW)
	case interval.PaceLow > 0 && interval.PaceHigh > 0:
		fmt.Fprintf(&b, " @ %s-%s/km", pace.FormatClock(interval.PaceLow), pace.FormatClock(interval.PaceHigh))
	case interval.HRLowBPM > 0 && interval.HRHighBPM > 0:
		fmt.Fprintf(&b, " @ %d-%dbpm", interval.HRLowBPM, interval.HRHighBPM)
	}

	if interval.Effort != "" {
		fmt.Fprintf(&b, " (%s)", interval.Effort)
	}
	if !IsPlaceholder(interval.Rest) {
		fmt.Fprintf(&b, ", rest %s", interval.Rest)
	}

	return b.String()
}

// movingTimeEstimate sums the expected duration of every step, expanding
// repeated blocks. Distance steps use the step's own target speed when one
// is present, the session's planned duration otherwise spread proportionally
// by distance. The session-level duration wins when the step math cannot
// produce anything.
func movingTimeEstimate(session plan.Session, steps []Step, repeats []RepeatMarker) int {
	// A repeated block is the work step plus its optional rest step.
	repeatFor := make(map[int]int, len(repeats))
	for _, r := range repeats {
		repeatFor[r.FromIndex] = r.Count
		if next := r.FromIndex + 1; next < len(steps) && steps[next].Intensity == IntensityRest {
			repeatFor[next] = r.Count
		}
	}

	total := 0.0
	for i, step := range steps {
		seconds := stepSeconds(step)
		if count, ok := repeatFor[i]; ok {
			seconds *= float64(count)
		}
		total += seconds
	}

	if total == 0 && session.DurationMin > 0 {
		return int(math.Round(session.DurationMin * 60))
	}
	return int(math.Round(total))
}

// stepSeconds estimates one execution of a step. Open steps and distance
// steps without a speed target contribute nothing.
func stepSeconds(step Step) float64 {
	switch step.DurationKind {
	case DurationTime:
		return float64(step.DurationValue) / 1000
	case DurationDistance:
		if step.TargetKind != TargetSpeed || step.TargetLow <= 0 || step.TargetHigh <= 0 {
			return 0
		}
		meters := float64(step.DurationValue) / 100
		midSpeed := float64(step.TargetLow+step.TargetHigh) / 2 / 1000
		if midSpeed <= 0 {
			return 0
		}
		return meters / midSpeed
	case DurationOpen:
		return 0
	}
	return 0
}

// marshalSteps serializes the step list and repeat markers into the binary
// workout file. All integers are little-endian; step names are
// length-prefixed UTF-8.
func marshalSteps(steps []Step, repeats []RepeatMarker) []byte {
	var buf bytes.Buffer

	writeU32 := func(v uint32) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	writeU16 := func(v uint16) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	writeI64 := func(v int64) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	writeU32(fileMagic)
	writeU16(fileVersion)
	writeU16(uint16(len(steps)))
	writeU16(uint16(len(repeats)))

	for _, step := range steps {
		name := []byte(step.Name)
		writeU16(uint16(len(name)))
		buf.Write(name)
		buf.WriteByte(intensityCode(step.Intensity))
		buf.WriteByte(byte(step.DurationKind))
		writeI64(step.DurationValue)
		buf.WriteByte(byte(step.TargetKind))
		writeI64(step.TargetLow)
		writeI64(step.TargetHigh)
	}

	for _, r := range repeats {
		writeU16(uint16(r.FromIndex))
		writeU16(uint16(r.Count))
	}

	return buf.Bytes()
}

// intensityCode maps an intensity class to its byte value in the file.
func intensityCode(intensity Intensity) byte {
	switch intensity {
	case IntensityWarmup:
		return 1
	case IntensityActive:
		return 2
	case IntensityRest:
		return 3
	case IntensityCooldown:
		return 4
	}
	return 0
}
