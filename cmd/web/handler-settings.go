package main

import (
	"net/http"

	"github.com/myrjola/paceapp/internal/plan"
)

type icuSettingsRequest struct {
	AthleteID string `json:"athlete_id"`
	APIKey    string `json:"api_key"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// icuSettingsPUT stores the calendar credentials and marks the calendar
// connected.
func (app *application) icuSettingsPUT(w http.ResponseWriter, r *http.Request) {
	var req icuSettingsRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed request")
		return
	}
	if req.AthleteID == "" || req.APIKey == "" {
		app.clientError(w, http.StatusBadRequest, "athlete_id and api_key are required")
		return
	}

	creds := plan.Credentials{AthleteID: req.AthleteID, APIKey: req.APIKey, Connected: true}
	if err := app.planService.SaveCredentials(r.Context(), app.currentUserID(r), creds); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// icuSettingsDELETE disconnects the calendar. Previously synced events stay
// on the calendar; only the credentials are removed.
func (app *application) icuSettingsDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.planService.DisconnectCalendar(r.Context(), app.currentUserID(r)); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, okResponse{OK: true})
}
