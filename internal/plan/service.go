package plan

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/sqlite"
)

// ErrNoSession marks an operation that targets a day without a session,
// such as selecting a variant on a rest day.
var ErrNoSession = errors.NewSentinel("no session planned for that day")

// Service is the application-facing surface of the planner: it joins the
// pure synthesis core with profile storage and sync bookkeeping.
type Service struct {
	repo   *Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates the planning service on top of a database.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		repo:   NewRepository(db, logger),
		logger: logger,
		now:    time.Now,
	}
}

// EnsureUser records the user's identity for namespacing their data.
func (s *Service) EnsureUser(ctx context.Context, userID, name, email string) error {
	return s.repo.EnsureUser(ctx, userID, name, email)
}

// Profile loads the athlete profile for a user.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// SaveProfile stores the athlete profile for a user.
func (s *Service) SaveProfile(ctx context.Context, userID string, profile Profile) error {
	return s.repo.SaveProfile(ctx, userID, profile)
}

// GenerateWeek synthesizes the current week's plan for a user with the given
// environmental correction, dates each day, and attaches previously synced
// calendar event IDs.
func (s *Service) GenerateWeek(ctx context.Context, userID string, correctionSec float64) (Week, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return Week{}, fmt.Errorf("load profile: %w", err)
	}

	week := Synthesize(profile, correctionSec)

	eventIDs, err := s.repo.EventIDs(ctx, userID)
	if err != nil {
		return Week{}, fmt.Errorf("load synced events: %w", err)
	}

	monday := startOfWeek(s.now())
	for i := range week.Days {
		date := monday.AddDate(0, 0, i).Format(time.DateOnly)
		week.Days[i].Date = date
		if session := week.Days[i].Session; session != nil {
			session.ExternalID = eventIDs[date]
		}
	}

	return week, nil
}

// SelectSessionVariant regenerates the week with the given long-run variant
// active on a day and returns the updated week.
func (s *Service) SelectSessionVariant(
	ctx context.Context,
	userID string,
	day time.Weekday,
	variant VariantID,
	correctionSec float64,
) (Week, error) {
	week, err := s.GenerateWeek(ctx, userID, correctionSec)
	if err != nil {
		return Week{}, err
	}

	daily := dayOf(&week, day)
	if daily == nil || daily.Session == nil {
		return Week{}, fmt.Errorf("select variant on %s: %w", day, ErrNoSession)
	}

	selected := SelectVariant(*daily.Session, variant)
	daily.Session = &selected
	return week, nil
}

// EditSessionDistance overrides one session's distance and recomputes its
// dependent fields. Continuous sessions rescale their single interval; the
// realized weekly total is updated to match.
func (s *Service) EditSessionDistance(
	ctx context.Context,
	userID string,
	day time.Weekday,
	distanceKm float64,
	correctionSec float64,
) (Week, error) {
	week, err := s.GenerateWeek(ctx, userID, correctionSec)
	if err != nil {
		return Week{}, err
	}

	daily := dayOf(&week, day)
	if daily == nil || daily.Session == nil {
		return Week{}, fmt.Errorf("edit distance on %s: %w", day, ErrNoSession)
	}

	session := daily.Session
	previous := session.DistanceKm
	session.DistanceKm = roundKm(distanceKm)
	if previous > 0 && session.DurationMin > 0 {
		session.DurationMin = math.Round(session.DurationMin * session.DistanceKm / previous)
	}
	if len(session.Intervals) == 1 && session.Intervals[0].Count == 1 {
		session.Intervals[0].DistanceMeters = session.DistanceKm * 1000
	}

	week.TotalDistanceKm = roundKm(week.TotalDistanceKm - previous + session.DistanceKm)
	week.ShortfallKm = roundKm(week.TargetDistanceKm - week.TotalDistanceKm)
	return week, nil
}

// Credentials loads the user's calendar credentials.
func (s *Service) Credentials(ctx context.Context, userID string) (Credentials, error) {
	return s.repo.GetCredentials(ctx, userID)
}

// SaveCredentials stores the user's calendar credentials.
func (s *Service) SaveCredentials(ctx context.Context, userID string, creds Credentials) error {
	return s.repo.SaveCredentials(ctx, userID, creds)
}

// DisconnectCalendar removes the user's calendar credentials.
func (s *Service) DisconnectCalendar(ctx context.Context, userID string) error {
	return s.repo.DeleteCredentials(ctx, userID)
}

// SyncedEventID returns the calendar event ID recorded for a date, 0 when
// the date has never been synced.
func (s *Service) SyncedEventID(ctx context.Context, userID, date string) (int64, error) {
	return s.repo.EventID(ctx, userID, date)
}

// RecordSyncedEvent stores the calendar event ID assigned to a date.
func (s *Service) RecordSyncedEvent(ctx context.Context, userID, date string, eventID int64) error {
	return s.repo.SaveEventID(ctx, userID, date, eventID)
}

// ForgetSyncedEvent removes the sync record for a date.
func (s *Service) ForgetSyncedEvent(ctx context.Context, userID, date string) error {
	return s.repo.DeleteEventID(ctx, userID, date)
}

// dayOf finds the week's entry for a weekday.
func dayOf(week *Week, day time.Weekday) *DailyPlan {
	for i := range week.Days {
		if week.Days[i].Day == day {
			return &week.Days[i]
		}
	}
	return nil
}

// startOfWeek returns midnight of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	year, month, dayOfMonth := t.AddDate(0, 0, -daysSinceMonday).Date()
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, t.Location())
}
