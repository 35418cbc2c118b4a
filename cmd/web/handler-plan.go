package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/plan"
)

type weekResponse struct {
	OK            bool      `json:"ok"`
	Week          plan.Week `json:"week"`
	CorrectionSec float64   `json:"correction_sec"`
}

// planGET synthesizes the current week. With ?weather=1&lat=..&lon=.. the
// paces are slowed down by the weather correction; a failing weather lookup
// degrades to no correction.
func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correction := app.weatherCorrection(r)

	week, err := app.planService.GenerateWeek(ctx, app.currentUserID(r), correction)
	if errors.Is(err, plan.ErrNotFound) {
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, weekResponse{OK: true, Week: week, CorrectionSec: correction})
}

// weatherCorrection resolves the pace correction requested via query
// parameters. Any failure yields zero so the plan stays usable offline.
func (app *application) weatherCorrection(r *http.Request) float64 {
	query := r.URL.Query()
	if query.Get("weather") != "1" {
		return 0
	}

	ctx := r.Context()
	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "invalid weather coordinates",
			slog.String("lat", query.Get("lat")), slog.String("lon", query.Get("lon")))
		return 0
	}

	sample, err := app.weatherClient.Current(ctx, lat, lon)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "weather lookup failed", slog.Any("error", err))
		return 0
	}

	return float64(plan.WeatherPaceDelta(sample.TemperatureC, sample.HumidityPct, sample.WindKmh))
}

type variantRequest struct {
	Day     string `json:"day"`
	Variant string `json:"variant"`
}

func (app *application) planVariantPOST(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed request")
		return
	}
	day, err := parseWeekday(req.Day)
	if err != nil {
		app.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	week, err := app.planService.SelectSessionVariant(
		r.Context(), app.currentUserID(r), day, plan.VariantID(req.Variant), 0)
	switch {
	case errors.Is(err, plan.ErrNotFound):
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	case errors.Is(err, plan.ErrNoSession):
		app.clientError(w, http.StatusBadRequest, "no session planned for that day")
		return
	case err != nil:
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, weekResponse{OK: true, Week: week})
}

type distanceRequest struct {
	Day        string  `json:"day"`
	DistanceKm float64 `json:"distance_km"`
}

func (app *application) planSessionDistancePOST(w http.ResponseWriter, r *http.Request) {
	var req distanceRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed request")
		return
	}
	day, err := parseWeekday(req.Day)
	if err != nil {
		app.clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DistanceKm <= 0 {
		app.clientError(w, http.StatusBadRequest, "distance_km must be positive")
		return
	}

	week, err := app.planService.EditSessionDistance(
		r.Context(), app.currentUserID(r), day, req.DistanceKm, 0)
	switch {
	case errors.Is(err, plan.ErrNotFound):
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	case errors.Is(err, plan.ErrNoSession):
		app.clientError(w, http.StatusBadRequest, "no session planned for that day")
		return
	case err != nil:
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, weekResponse{OK: true, Week: week})
}
