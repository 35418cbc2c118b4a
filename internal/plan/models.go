// Package plan derives training paces from a benchmark race result and
// synthesizes a structured seven-day subthreshold training week.
package plan

import (
	"time"
)

// DayType classifies what kind of training a weekday holds.
type DayType string

// Day type constants.
const (
	DayRest      DayType = "rest"
	DayEasy      DayType = "easy"
	DayThreshold DayType = "threshold"
	DayLongRun   DayType = "long"
)

// Sport selects the discipline a scheduled day is performed in.
type Sport string

// Sport constants.
const (
	SportRun  Sport = "run"
	SportBike Sport = "bike"
)

// DayAssignment pairs a day type with the sport it is performed in.
type DayAssignment struct {
	Type  DayType `json:"type"`
	Sport Sport   `json:"sport"`
}

// Schedule maps weekdays to their assignments. Missing weekdays resolve to
// rest days, so a partially filled schedule is always usable.
type Schedule map[time.Weekday]DayAssignment

// Resolve returns the assignment for a weekday, defaulting to a rest day in
// the run sport when the weekday has no entry.
func (s Schedule) Resolve(day time.Weekday) DayAssignment {
	assignment, ok := s[day]
	if !ok {
		return DayAssignment{Type: DayRest, Sport: SportRun}
	}
	if assignment.Type == "" {
		assignment.Type = DayRest
	}
	if assignment.Sport == "" {
		assignment.Sport = SportRun
	}
	return assignment
}

// Benchmark is a single race result used to anchor all pace derivations.
type Benchmark struct {
	DistanceMeters float64 `json:"distance_meters"`
	// Time is a clock string such as "19:07" or "1:19:07". An empty string
	// means the benchmark is not filled in yet.
	Time string `json:"time"`
}

// Profile holds everything the synthesizer needs to build a week.
type Profile struct {
	Name string `json:"name"`
	// Benchmark is the primary race result.
	Benchmark Benchmark `json:"benchmark"`
	// SecondBenchmark optionally enables the two-point critical-speed model.
	SecondBenchmark *Benchmark `json:"second_benchmark,omitempty"`
	MaxHeartRate    int        `json:"max_heart_rate"`
	// FTPWatts is the functional threshold power for bike days, 0 if unknown.
	FTPWatts         int      `json:"ftp_watts"`
	WeeklyDistanceKm float64  `json:"weekly_distance_km"`
	WarmupKm         float64  `json:"warmup_km"`
	CooldownKm       float64  `json:"cooldown_km"`
	Schedule         Schedule `json:"schedule"`
}

// WorkoutType classifies a synthesized session.
type WorkoutType string

// Workout type constants.
const (
	WorkoutEasy      WorkoutType = "easy"
	WorkoutThreshold WorkoutType = "threshold"
	WorkoutLongRun   WorkoutType = "long"
	WorkoutRest      WorkoutType = "rest"
	WorkoutRace      WorkoutType = "race"
)

// Interval is one repeated work segment inside a session.
type Interval struct {
	// Count is the number of repetitions, at least 1.
	Count          int     `json:"count"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	DurationSec    int     `json:"duration_sec,omitempty"`
	// PaceLow and PaceHigh bound the target pace in seconds per kilometer.
	// PaceLow is the faster bound.
	PaceLow  float64 `json:"pace_low,omitempty"`
	PaceHigh float64 `json:"pace_high,omitempty"`
	// Power bounds in watts for bike intervals, 0 when pace-targeted.
	PowerLowW  int `json:"power_low_w,omitempty"`
	PowerHighW int `json:"power_high_w,omitempty"`
	// Heart-rate bounds in bpm, used when neither pace nor power applies.
	HRLowBPM  int `json:"hr_low_bpm,omitempty"`
	HRHighBPM int `json:"hr_high_bpm,omitempty"`
	// Rest is a free-text recovery spec such as "60s" or "400m". Empty or
	// zero-like values mean no recovery step is emitted.
	Rest   string `json:"rest,omitempty"`
	Effort string `json:"effort,omitempty"`
}

// VariantID identifies one of the alternate structurings of a long run.
type VariantID string

// Long-run variant constants.
const (
	VariantEasy        VariantID = "easy"
	VariantProgressive VariantID = "progressive"
	VariantBlocks      VariantID = "blocks"
)

// Session is one day's training content.
type Session struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Type        WorkoutType `json:"type"`
	Sport       Sport       `json:"sport"`
	DistanceKm  float64     `json:"distance_km"`
	DurationMin float64     `json:"duration_min"`
	Description string      `json:"description"`
	// Warmup and Cooldown are free-text steps; placeholder values such as
	// "n/a" are elided by the encoder.
	Warmup   string     `json:"warmup,omitempty"`
	Cooldown string     `json:"cooldown,omitempty"`
	Intervals []Interval `json:"intervals,omitempty"`
	// Variant names the active alternate for long runs; Variants carries the
	// full set sharing this session's calendar slot.
	Variant  VariantID `json:"variant,omitempty"`
	Variants []Session `json:"variants,omitempty"`
	// ExternalID is the identifier echoed back by the remote calendar after a
	// sync, 0 when the session has never been synced.
	ExternalID int64 `json:"external_id,omitempty"`
}

// SelectVariant returns a copy of session populated from the variant with the
// given id. The variant list itself is carried over unchanged so a later
// selection can switch back. Sessions without variants are returned as-is.
func SelectVariant(session Session, id VariantID) Session {
	for _, variant := range session.Variants {
		if variant.Variant != id {
			continue
		}
		selected := variant
		selected.ID = session.ID
		selected.Variants = session.Variants
		selected.ExternalID = session.ExternalID
		return selected
	}
	return session
}

// DailyPlan is one weekday's assignment with its optional session. Session is
// nil for rest days and for easy days whose allocation fell under the
// minimum distance.
type DailyPlan struct {
	Day  time.Weekday `json:"day"`
	Type DayType      `json:"day_type"`
	// Date is the calendar date of the slot, filled in by the service layer.
	// The synthesizer itself is date-agnostic.
	Date    string   `json:"date,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// Week is an ordered seven-day plan, Monday first.
type Week struct {
	Days []DailyPlan `json:"days"`
	// TotalDistanceKm is the realized sum of session distances after
	// reconciliation.
	TotalDistanceKm  float64 `json:"total_distance_km"`
	TargetDistanceKm float64 `json:"target_distance_km"`
	// ShortfallKm is target minus realized. It is non-zero when the schedule
	// has no easy days to absorb the rounding difference.
	ShortfallKm float64 `json:"shortfall_km"`
}

// PaceBand is a pace range in seconds per kilometer. Low is the faster bound.
type PaceBand struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Center float64 `json:"center"`
}

// IntervalPace is the target band for a repetition distance with its effort
// label, e.g. "1K Pace".
type IntervalPace struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Effort string  `json:"effort"`
}

// Threshold model source labels reported on derived paces.
const (
	SourceCriticalSpeed = "critical-speed"
	SourceRiegel        = "riegel"
)

// Paces is the family of derived training paces for a profile. All values
// are seconds per kilometer; a value of 0 means it could not be derived.
type Paces struct {
	// Threshold is the 60-minute threshold anchor pace.
	Threshold float64 `json:"threshold"`
	// Source records which model produced the threshold anchor.
	Source       string   `json:"source"`
	Pace15K      float64  `json:"pace_15k"`
	PaceHalf     float64  `json:"pace_half"`
	Pace30K      float64  `json:"pace_30k"`
	PaceMarathon float64  `json:"pace_marathon"`
	Easy         PaceBand `json:"easy"`
	// VO2Score is the fitness index derived from the primary benchmark.
	VO2Score float64 `json:"vo2_score"`
}

// weekdayOrder is the rendering and allocation order of the week.
var weekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}
