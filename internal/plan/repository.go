package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/sqlite"
)

// ErrNotFound marks a lookup whose subject does not exist yet, such as a
// profile that has never been saved.
var ErrNotFound = errors.NewSentinel("not found")

// Credentials are the calendar collaborator's per-user credentials.
type Credentials struct {
	AthleteID string `json:"athlete_id"`
	APIKey    string `json:"api_key"`
	Connected bool   `json:"connected"`
}

// Repository persists profiles, calendar credentials, and synced workout
// identifiers in SQLite.
type Repository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// NewRepository creates a SQLite-backed repository.
func NewRepository(db *sqlite.Database, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsureUser inserts the user row when it does not exist.
func (r *Repository) EnsureUser(ctx context.Context, userID, name, email string) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO users (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		userID, name, email)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetProfile loads a user's athlete profile. ErrNotFound means the profile
// has not been saved yet.
func (r *Repository) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var data []byte
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT data FROM athlete_profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("profile for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}

	var profile Profile
	if err = json.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

// SaveProfile stores a user's athlete profile as JSON.
func (r *Repository) SaveProfile(ctx context.Context, userID string, profile Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO athlete_profiles (user_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		userID, data)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetCredentials loads a user's calendar credentials. ErrNotFound means the
// calendar has never been connected.
func (r *Repository) GetCredentials(ctx context.Context, userID string) (Credentials, error) {
	var creds Credentials
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT athlete_id, api_key, connected FROM icu_credentials WHERE user_id = ?`, userID).Scan(
		&creds.AthleteID, &creds.APIKey, &creds.Connected)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, fmt.Errorf("credentials for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("query credentials: %w", err)
	}
	return creds, nil
}

// SaveCredentials stores a user's calendar credentials.
func (r *Repository) SaveCredentials(ctx context.Context, userID string, creds Credentials) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO icu_credentials (user_id, athlete_id, api_key, connected) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			api_key = excluded.api_key,
			connected = excluded.connected`,
		userID, creds.AthleteID, creds.APIKey, creds.Connected)
	if err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}

// DeleteCredentials disconnects the calendar for a user.
func (r *Repository) DeleteCredentials(ctx context.Context, userID string) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		DELETE FROM icu_credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// EventID returns the external calendar event ID synced for a date, or 0
// when the date has never been synced.
func (r *Repository) EventID(ctx context.Context, userID, date string) (int64, error) {
	var eventID int64
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT event_id FROM synced_workouts WHERE user_id = ? AND date = ?`, userID, date).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query event id: %w", err)
	}
	return eventID, nil
}

// EventIDs returns every synced date for a user mapped to its event ID.
func (r *Repository) EventIDs(ctx context.Context, userID string) (_ map[string]int64, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT date, event_id FROM synced_workouts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query event ids: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	eventIDs := map[string]int64{}
	for rows.Next() {
		var (
			date    string
			eventID int64
		)
		if err = rows.Scan(&date, &eventID); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		eventIDs[date] = eventID
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return eventIDs, nil
}

// SaveEventID records the external event ID assigned to a date's workout.
func (r *Repository) SaveEventID(ctx context.Context, userID, date string, eventID int64) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO synced_workouts (user_id, date, event_id, synced_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, date) DO UPDATE SET
			event_id = excluded.event_id,
			synced_at = CURRENT_TIMESTAMP`,
		userID, date, eventID)
	if err != nil {
		return fmt.Errorf("upsert event id: %w", err)
	}
	return nil
}

// DeleteEventID forgets the synced event for a date.
func (r *Repository) DeleteEventID(ctx context.Context, userID, date string) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		DELETE FROM synced_workouts WHERE user_id = ? AND date = ?`, userID, date); err != nil {
		return fmt.Errorf("delete event id: %w", err)
	}
	return nil
}
