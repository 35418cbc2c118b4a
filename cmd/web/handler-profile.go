package main

import (
	"net/http"

	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/plan"
)

type profileResponse struct {
	OK      bool         `json:"ok"`
	Profile plan.Profile `json:"profile"`
}

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	profile, err := app.planService.Profile(r.Context(), app.currentUserID(r))
	if errors.Is(err, plan.ErrNotFound) {
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, profileResponse{OK: true, Profile: profile})
}

func (app *application) profilePUT(w http.ResponseWriter, r *http.Request) {
	var profile plan.Profile
	if err := app.readJSON(w, r, &profile); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed profile")
		return
	}

	if err := app.planService.SaveProfile(r.Context(), app.currentUserID(r), profile); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, profileResponse{OK: true, Profile: profile})
}
