package plan

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/myrjola/paceapp/internal/pace"
)

// Allocation model constants.
const (
	// The long run takes this share of the weekly budget, floored at a
	// minimum distance, and must stay the longest non-trivial session of
	// the week.
	longRunFraction = 0.28
	longRunMinKm    = 15.0

	// Easy days start from this floor; the leftover budget is spread on top.
	easyDayFloorKm = 6.0

	// Easy allocations under this distance are suppressed entirely and the
	// day shows as rest-like.
	easyMinSessionKm = 4.0

	// The blocks long-run variant is a fixed marathon-pace set.
	blocksRepCount  = 3
	blocksRepMeters = 5000.0

	// The progressive long-run variant splits into easy/steady/marathon
	// thirds by these fractions.
	progressiveEasyFraction   = 0.5
	progressiveSteadyFraction = 0.3
	progressiveFastFraction   = 0.2
)

// Assumed bike speeds per workout type, used to convert a run session's
// duration into an equivalent bike distance.
const (
	bikeThresholdSpeedKmh = 34.0
	bikeLongSpeedKmh      = 31.0
	bikeEasySpeedKmh      = 30.0
)

// Bike target bands as fractions of FTP (power) or max heart rate.
const (
	bikeThresholdPowerLow  = 0.88
	bikeThresholdPowerHigh = 0.94
	bikeLongPowerLow       = 0.70
	bikeLongPowerHigh      = 0.80
	bikeEasyPowerLow       = 0.56
	bikeEasyPowerHigh      = 0.75

	bikeThresholdHRLow  = 0.80
	bikeThresholdHRHigh = 0.87
	bikeLongHRLow       = 0.65
	bikeLongHRHigh      = 0.80
	bikeEasyHRLow       = 0.60
	bikeEasyHRHigh      = 0.75
)

// thresholdTemplate is one subthreshold session shape. Templates rotate
// positionally across the week's threshold days.
type thresholdTemplate struct {
	reps      int
	repMeters float64
	rest      string
	restSec   int
}

// thresholdRotation holds the template cycle. Assignment is positional
// across threshold days in weekday order, not tied to day names.
var thresholdRotation = []thresholdTemplate{
	{reps: 5, repMeters: 2000, rest: "60s", restSec: 60},
	{reps: 8, repMeters: 1000, rest: "60s", restSec: 60},
	{reps: 3, repMeters: 3000, rest: "90s", restSec: 90},
}

// Synthesize builds a full week of sessions from a profile. The correction
// is an additive seconds-per-kilometer delta applied uniformly to every pace
// in the plan. The transform is pure: the same profile and correction always
// produce an identical week.
func Synthesize(profile Profile, correctionSec float64) Week {
	s := synthesis{
		profile:    profile,
		correction: correctionSec,
		paces:      DerivePaces(profile, correctionSec),
	}
	return s.build()
}

// synthesis carries the intermediate state of one plan build.
type synthesis struct {
	profile    Profile
	correction float64
	paces      Paces
}

func (s *synthesis) build() Week {
	week := Week{
		Days:             make([]DailyPlan, 0, len(weekdayOrder)),
		TargetDistanceKm: s.profile.WeeklyDistanceKm,
	}

	thresholdDistances := s.thresholdDayDistances()
	longKm := s.longRunDistance(thresholdDistances)
	easyKm := s.easyDayDistance(thresholdDistances, longKm)

	thresholdIndex := 0
	for _, day := range weekdayOrder {
		assignment := s.profile.Schedule.Resolve(day)
		daily := DailyPlan{Day: day, Type: assignment.Type}

		switch assignment.Type {
		case DayThreshold:
			template := thresholdRotation[thresholdIndex%len(thresholdRotation)]
			thresholdIndex++
			daily.Session = s.thresholdSession(day, assignment.Sport, template)
		case DayLongRun:
			daily.Session = s.longRunSession(day, assignment.Sport, longKm)
		case DayEasy:
			daily.Session = s.easySession(day, assignment.Sport, easyKm)
		case DayRest:
			// No session.
		}

		week.Days = append(week.Days, daily)
	}

	s.reconcile(&week)
	return week
}

// thresholdDayDistances computes the total distance of each scheduled
// threshold day in rotation order.
func (s *synthesis) thresholdDayDistances() []float64 {
	count := 0
	for _, day := range weekdayOrder {
		if s.profile.Schedule.Resolve(day).Type == DayThreshold {
			count++
		}
	}

	distances := make([]float64, 0, count)
	for i := range count {
		template := thresholdRotation[i%len(thresholdRotation)]
		distances = append(distances, s.bufferKm()+float64(template.reps)*template.repMeters/1000)
	}
	return distances
}

// bufferKm is the warmup plus cooldown distance around a quality session.
func (s *synthesis) bufferKm() float64 {
	return s.profile.WarmupKm + s.profile.CooldownKm
}

// longRunDistance allocates the long-run distance: a fixed share of the
// weekly budget, raised until it strictly exceeds both the largest threshold
// day and the easy-day floor. The long run must stay the week's longest
// non-trivial session.
func (s *synthesis) longRunDistance(thresholdDistances []float64) float64 {
	longKm := math.Max(longRunMinKm, math.Round(s.profile.WeeklyDistanceKm*longRunFraction))

	maxThreshold := 0.0
	for _, d := range thresholdDistances {
		maxThreshold = math.Max(maxThreshold, d)
	}
	if longKm <= maxThreshold {
		longKm = math.Floor(maxThreshold) + 1
	}
	if longKm <= easyDayFloorKm {
		longKm = easyDayFloorKm + 1
	}
	return longKm
}

// easyDayDistance splits the remaining weekly budget evenly across easy
// days on top of the per-day floor. With no easy days the remainder is
// simply left unallocated and 0 is returned.
func (s *synthesis) easyDayDistance(thresholdDistances []float64, longKm float64) float64 {
	easyDays := 0
	hasLong := false
	for _, day := range weekdayOrder {
		switch s.profile.Schedule.Resolve(day).Type {
		case DayEasy:
			easyDays++
		case DayLongRun:
			hasLong = true
		case DayRest, DayThreshold:
		}
	}
	if easyDays == 0 {
		return 0
	}

	remaining := s.profile.WeeklyDistanceKm
	for _, d := range thresholdDistances {
		remaining -= d
	}
	if hasLong {
		remaining -= longKm
	}
	remaining -= float64(easyDays) * easyDayFloorKm

	return easyDayFloorKm + remaining/float64(easyDays)
}

// thresholdSession builds one subthreshold interval session.
func (s *synthesis) thresholdSession(day time.Weekday, sport Sport, template thresholdTemplate) *Session {
	target := IntervalPaceRange(s.profile, template.repMeters, s.correction)
	repsKm := float64(template.reps) * template.repMeters / 1000
	distance := s.bufferKm() + repsKm

	workMinutes := repsKm * target.Low / 60
	restMinutes := float64(template.reps-1) * float64(template.restSec) / 60
	bufferMinutes := s.bufferKm() * s.paces.Easy.Center / 60

	session := Session{
		ID:          sessionID(day, WorkoutThreshold),
		Title:       thresholdTitle(template.reps, template.repMeters),
		Type:        WorkoutThreshold,
		Sport:       SportRun,
		DistanceKm:  roundKm(distance),
		DurationMin: math.Round(workMinutes + restMinutes + bufferMinutes),
		Description: fmt.Sprintf("%dx%s @ %s (%s), %s rest",
			template.reps, distanceLabel(template.repMeters),
			formatBand(target.Low, target.High), target.Effort, template.rest),
		Warmup:   s.bufferText(s.profile.WarmupKm),
		Cooldown: s.bufferText(s.profile.CooldownKm),
		Intervals: []Interval{{
			Count:          template.reps,
			DistanceMeters: template.repMeters,
			PaceLow:        target.Low,
			PaceHigh:       target.High,
			Rest:           template.rest,
			Effort:         target.Effort,
		}},
	}

	if sport == SportBike {
		return s.bikeEquivalent(session, bikeThresholdSpeedKmh,
			bikeThresholdPowerLow, bikeThresholdPowerHigh, bikeThresholdHRLow, bikeThresholdHRHigh)
	}
	return &session
}

// easySession builds one continuous easy run, or nil when the allocated
// distance falls under the minimum.
func (s *synthesis) easySession(day time.Weekday, sport Sport, distanceKm float64) *Session {
	if distanceKm < easyMinSessionKm {
		return nil
	}

	band := s.paces.Easy
	session := Session{
		ID:          sessionID(day, WorkoutEasy),
		Title:       "Easy Run",
		Type:        WorkoutEasy,
		Sport:       SportRun,
		DistanceKm:  roundKm(distanceKm),
		DurationMin: math.Round(distanceKm * band.Center / 60),
		Description: fmt.Sprintf("Easy run @ %s", formatBand(band.Low, band.High)),
		Intervals: []Interval{{
			Count:          1,
			DistanceMeters: distanceKm * 1000,
			PaceLow:        band.Low,
			PaceHigh:       band.High,
			Effort:         "Easy Pace",
		}},
	}

	if sport == SportBike {
		return s.bikeEquivalent(session, bikeEasySpeedKmh,
			bikeEasyPowerLow, bikeEasyPowerHigh, bikeEasyHRLow, bikeEasyHRHigh)
	}
	return &session
}

// longRunSession builds the long-run slot with its three variants. The
// returned session defaults to the all-easy variant and carries the full
// variant set for later selection.
func (s *synthesis) longRunSession(day time.Weekday, sport Sport, longKm float64) *Session {
	id := sessionID(day, WorkoutLongRun)
	variants := []Session{
		s.longRunEasyVariant(id, longKm),
		s.longRunProgressiveVariant(id, longKm),
		s.longRunBlocksVariant(id),
	}

	session := variants[0]
	session.Variants = variants

	if sport == SportBike {
		return s.bikeEquivalent(session, bikeLongSpeedKmh,
			bikeLongPowerLow, bikeLongPowerHigh, bikeLongHRLow, bikeLongHRHigh)
	}
	return &session
}

// longRunEasyVariant is a continuous long run entirely at easy pace.
func (s *synthesis) longRunEasyVariant(id string, longKm float64) Session {
	band := s.paces.Easy
	return Session{
		ID:          id,
		Title:       "Long Run",
		Type:        WorkoutLongRun,
		Sport:       SportRun,
		Variant:     VariantEasy,
		DistanceKm:  roundKm(longKm),
		DurationMin: math.Round(longKm * band.Center / 60),
		Description: fmt.Sprintf("Steady long run @ %s", formatBand(band.Low, band.High)),
		Intervals: []Interval{{
			Count:          1,
			DistanceMeters: longKm * 1000,
			PaceLow:        band.Low,
			PaceHigh:       band.High,
			Effort:         "Easy Pace",
		}},
	}
}

// longRunProgressiveVariant splits the same distance into easy, steady, and
// marathon-pace segments.
func (s *synthesis) longRunProgressiveVariant(id string, longKm float64) Session {
	band := s.paces.Easy
	marathon := applyCorrection(s.paces.PaceMarathon, s.correction)
	if s.paces.PaceMarathon == 0 {
		marathon = 0
	}
	steady := 0.0
	if band.Center > 0 && marathon > 0 {
		steady = (band.Center + marathon) / 2
	}

	easyKm := longKm * progressiveEasyFraction
	steadyKm := longKm * progressiveSteadyFraction
	fastKm := longKm * progressiveFastFraction

	duration := (easyKm*band.Center + steadyKm*steady + fastKm*marathon) / 60

	return Session{
		ID:          id,
		Title:       "Long Run Progression",
		Type:        WorkoutLongRun,
		Sport:       SportRun,
		Variant:     VariantProgressive,
		DistanceKm:  roundKm(longKm),
		DurationMin: math.Round(duration),
		Description: fmt.Sprintf("Progression %s easy, %s steady, %s @ marathon pace",
			distanceLabel(easyKm*1000), distanceLabel(steadyKm*1000), distanceLabel(fastKm*1000)),
		Intervals: []Interval{
			{Count: 1, DistanceMeters: easyKm * 1000, PaceLow: band.Low, PaceHigh: band.High, Effort: "Easy Pace"},
			{Count: 1, DistanceMeters: steadyKm * 1000, PaceLow: steady, PaceHigh: steady + intervalBandWidthSec, Effort: "Steady Pace"},
			{Count: 1, DistanceMeters: fastKm * 1000, PaceLow: marathon, PaceHigh: marathon + intervalBandWidthSec, Effort: "Marathon Pace"},
		},
	}
}

// longRunBlocksVariant is a fixed marathon-pace block session with the
// configured warmup and cooldown around it. Its total distance is
// independent of the weekly long-run allocation.
func (s *synthesis) longRunBlocksVariant(id string) Session {
	target := IntervalPaceRange(s.profile, blocksRepMeters, s.correction)
	blocksKm := float64(blocksRepCount) * blocksRepMeters / 1000
	distance := s.bufferKm() + blocksKm

	workMinutes := blocksKm * target.Low / 60
	restMinutes := float64(blocksRepCount-1) * 60.0 / 60
	bufferMinutes := s.bufferKm() * s.paces.Easy.Center / 60

	return Session{
		ID:          id,
		Title:       fmt.Sprintf("Long Run Blocks %dx%s", blocksRepCount, distanceLabel(blocksRepMeters)),
		Type:        WorkoutLongRun,
		Sport:       SportRun,
		Variant:     VariantBlocks,
		DistanceKm:  roundKm(distance),
		DurationMin: math.Round(workMinutes + restMinutes + bufferMinutes),
		Description: fmt.Sprintf("%dx%s @ %s (%s), 60s rest",
			blocksRepCount, distanceLabel(blocksRepMeters),
			formatBand(target.Low, target.High), target.Effort),
		Warmup:   s.bufferText(s.profile.WarmupKm),
		Cooldown: s.bufferText(s.profile.CooldownKm),
		Intervals: []Interval{{
			Count:          blocksRepCount,
			DistanceMeters: blocksRepMeters,
			PaceLow:        target.Low,
			PaceHigh:       target.High,
			Rest:           "60s",
			Effort:         target.Effort,
		}},
	}
}

// bikeEquivalent rewrites a run session for the bike: the run duration is
// converted to distance at a fixed assumed speed per workout type, and the
// intervals switch from pace targets to power bands (when FTP is known) or
// heart-rate bands.
func (s *synthesis) bikeEquivalent(run Session, speedKmh, powerLow, powerHigh, hrLow, hrHigh float64) *Session {
	bike := run
	bike.Sport = SportBike
	bike.DistanceKm = roundKm(run.DurationMin / 60 * speedKmh)
	bike.Title = "Bike " + run.Title
	bike.Variants = nil

	intervals := make([]Interval, len(run.Intervals))
	for i, interval := range run.Intervals {
		converted := interval
		converted.PaceLow = 0
		converted.PaceHigh = 0
		converted.DistanceMeters = 0
		converted.DurationSec = s.intervalDurationSec(interval)
		if s.profile.FTPWatts > 0 {
			converted.PowerLowW = int(math.Round(float64(s.profile.FTPWatts) * powerLow))
			converted.PowerHighW = int(math.Round(float64(s.profile.FTPWatts) * powerHigh))
		} else if s.profile.MaxHeartRate > 0 {
			converted.HRLowBPM = int(math.Round(float64(s.profile.MaxHeartRate) * hrLow))
			converted.HRHighBPM = int(math.Round(float64(s.profile.MaxHeartRate) * hrHigh))
		}
		intervals[i] = converted
	}
	bike.Intervals = intervals

	return &bike
}

// intervalDurationSec estimates how long one repetition of a run interval
// takes, for conversion to a time-based bike interval.
func (s *synthesis) intervalDurationSec(interval Interval) int {
	if interval.DurationSec > 0 {
		return interval.DurationSec
	}
	if interval.DistanceMeters > 0 && interval.PaceLow > 0 {
		return int(math.Round(interval.DistanceMeters / 1000 * interval.PaceLow))
	}
	return 0
}

// reconcile sums the session distances and spreads the signed difference to
// the target across easy-day sessions so the realized total matches the
// target as closely as rounding allows. With no easy sessions the
// difference is reported as the week's shortfall instead.
func (s *synthesis) reconcile(week *Week) {
	total := 0.0
	var easySessions []*Session
	for i := range week.Days {
		session := week.Days[i].Session
		if session == nil {
			continue
		}
		total += session.DistanceKm
		if week.Days[i].Type == DayEasy {
			easySessions = append(easySessions, session)
		}
	}

	diff := week.TargetDistanceKm - total
	if len(easySessions) > 0 && diff != 0 {
		share := diff / float64(len(easySessions))
		total = 0
		for i := range week.Days {
			session := week.Days[i].Session
			if session == nil {
				continue
			}
			if week.Days[i].Type == DayEasy {
				adjusted := math.Max(easyMinSessionKm, session.DistanceKm+share)
				session.DistanceKm = roundKm(adjusted)
				if len(session.Intervals) == 1 {
					session.Intervals[0].DistanceMeters = session.DistanceKm * 1000
				}
				if s.paces.Easy.Center > 0 {
					session.DurationMin = math.Round(session.DistanceKm * s.paces.Easy.Center / 60)
				}
			}
			total += session.DistanceKm
		}
	}

	week.TotalDistanceKm = roundKm(total)
	week.ShortfallKm = roundKm(week.TargetDistanceKm - total)
}

// sessionID derives the stable identity of a day's session. Long-run
// variants share this id, which keeps regeneration idempotent.
func sessionID(day time.Weekday, workoutType WorkoutType) string {
	return strings.ToLower(day.String()) + "-" + string(workoutType)
}

// thresholdTitle renders the canonical subthreshold session title, e.g.
// "SubT 5x2.0km" or "SubT 10x400m".
func thresholdTitle(reps int, repMeters float64) string {
	return fmt.Sprintf("SubT %dx%s", reps, distanceLabel(repMeters))
}

// distanceLabel formats a distance in km with one decimal when at least a
// kilometer, else in whole meters.
func distanceLabel(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1fkm", meters/1000)
	}
	return fmt.Sprintf("%.0fm", meters)
}

// formatBand renders a pace band like "4:05-4:15/km". Zero paces render as
// "0:00" so an incomplete profile stays visible instead of failing.
func formatBand(low, high float64) string {
	return fmt.Sprintf("%s-%s/km", pace.FormatClock(low), pace.FormatClock(high))
}

// bufferText renders a warmup or cooldown free-text step at easy pace, or
// the no-step placeholder when the buffer distance is zero.
func (s *synthesis) bufferText(km float64) string {
	if km <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1fkm @ %s", km, formatBand(s.paces.Easy.Low, s.paces.Easy.High))
}

// roundKm rounds a distance to one decimal.
func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
