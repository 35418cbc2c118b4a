package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/paceapp/internal/encode"
	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/icu"
	"github.com/myrjola/paceapp/internal/plan"
	"golang.org/x/sync/errgroup"
)

type syncDayRequest struct {
	Date            string `json:"date"`
	PreferHeartRate bool   `json:"prefer_heart_rate"`
}

type syncDayResponse struct {
	OK      bool   `json:"ok"`
	Date    string `json:"date"`
	EventID int64  `json:"event_id"`
}

// calendarClient builds the per-user calendar client, or reports why it
// cannot. Missing credentials are the client's problem, not the server's.
func (app *application) calendarClient(w http.ResponseWriter, r *http.Request) (*icu.Client, bool) {
	creds, err := app.planService.Credentials(r.Context(), app.currentUserID(r))
	if errors.Is(err, plan.ErrNotFound) {
		app.clientError(w, http.StatusBadRequest, "calendar not connected")
		return nil, false
	}
	if err != nil {
		app.serverError(w, r, err)
		return nil, false
	}
	return icu.NewClient(app.icuBaseURL, creds.AthleteID, creds.APIKey), true
}

// sessionOn finds the planned session for a calendar date in the current week.
func sessionOn(week plan.Week, date string) *plan.Session {
	for i := range week.Days {
		if week.Days[i].Date == date {
			return week.Days[i].Session
		}
	}
	return nil
}

// writeCalendarError distinguishes a rejection by the calendar service from
// our own failures.
func (app *application) writeCalendarError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *icu.APIError
	if errors.As(err, &apiErr) {
		app.clientError(w, http.StatusBadGateway, apiErr.Error())
		return
	}
	app.serverError(w, r, err)
}

// syncDayPOST encodes one day's session and upserts it to the calendar,
// reusing the previously assigned event ID so re-syncs update in place.
func (app *application) syncDayPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := app.currentUserID(r)

	var req syncDayRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed request")
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		app.clientError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	client, ok := app.calendarClient(w, r)
	if !ok {
		return
	}

	week, err := app.planService.GenerateWeek(ctx, userID, 0)
	if errors.Is(err, plan.ErrNotFound) {
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	session := sessionOn(week, req.Date)
	if session == nil {
		app.clientError(w, http.StatusNotFound, "no session planned on that date")
		return
	}

	workout := encode.Encode(*session, encode.Options{PreferHeartRate: req.PreferHeartRate})

	eventID, err := client.UpsertEvent(ctx, date, session.ExternalID, workout)
	if err != nil {
		app.writeCalendarError(w, r, err)
		return
	}
	if err = app.planService.RecordSyncedEvent(ctx, userID, req.Date, eventID); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, syncDayResponse{OK: true, Date: req.Date, EventID: eventID})
}

type syncWeekRequest struct {
	PreferHeartRate bool `json:"prefer_heart_rate"`
}

// syncDayResult reports the outcome for one date of a bulk sync.
type syncDayResult struct {
	Date    string `json:"date"`
	Synced  bool   `json:"synced"`
	EventID int64  `json:"event_id,omitempty"`
}

type syncWeekResponse struct {
	OK      bool            `json:"ok"`
	Results []syncDayResult `json:"results"`
}

// syncWeekPOST encodes every planned session concurrently and submits them
// as one bulk upsert keyed by fresh idempotency IDs. The calendar service may
// process only part of the batch; each date reports its own outcome.
func (app *application) syncWeekPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := app.currentUserID(r)

	var req syncWeekRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed request")
		return
	}

	client, ok := app.calendarClient(w, r)
	if !ok {
		return
	}

	week, err := app.planService.GenerateWeek(ctx, userID, 0)
	if errors.Is(err, plan.ErrNotFound) {
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	var dates []string
	for _, day := range week.Days {
		if day.Session != nil {
			dates = append(dates, day.Date)
		}
	}

	items := make([]icu.BulkItem, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	for i, dateStr := range dates {
		g.Go(func() error {
			date, parseErr := time.Parse(time.DateOnly, dateStr)
			if parseErr != nil {
				return errors.Wrap(parseErr, "parse session date")
			}
			session := sessionOn(week, dateStr)
			items[i] = icu.BulkItem{
				ExternalID: uuid.NewString(),
				Date:       date,
				Workout:    encode.Encode(*session, encode.Options{PreferHeartRate: req.PreferHeartRate}),
			}
			return gctx.Err()
		})
	}
	if err = g.Wait(); err != nil {
		app.serverError(w, r, err)
		return
	}

	assigned, err := client.BulkUpsert(ctx, items)
	if err != nil {
		app.writeCalendarError(w, r, err)
		return
	}

	results := make([]syncDayResult, 0, len(items))
	for i, item := range items {
		result := syncDayResult{Date: dates[i]}
		if eventID, processed := assigned[item.ExternalID]; processed {
			if err = app.planService.RecordSyncedEvent(ctx, userID, dates[i], eventID); err != nil {
				app.serverError(w, r, err)
				return
			}
			result.Synced = true
			result.EventID = eventID
		}
		results = append(results, result)
	}

	app.writeJSON(w, http.StatusOK, syncWeekResponse{OK: true, Results: results})
}

// syncDayDELETE removes the synced event for a date and forgets its ID.
func (app *application) syncDayDELETE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := app.currentUserID(r)

	date := r.URL.Query().Get("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		app.clientError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	eventID, err := app.planService.SyncedEventID(ctx, userID, date)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if eventID == 0 {
		app.clientError(w, http.StatusNotFound, "nothing synced on that date")
		return
	}

	client, ok := app.calendarClient(w, r)
	if !ok {
		return
	}

	if err = client.DeleteEvent(ctx, eventID); err != nil {
		// A calendar-side 404 means someone already removed it. Forget it anyway.
		var apiErr *icu.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			app.writeCalendarError(w, r, err)
			return
		}
	}
	if err = app.planService.ForgetSyncedEvent(ctx, userID, date); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, syncDayResponse{OK: true, Date: date, EventID: eventID})
}
