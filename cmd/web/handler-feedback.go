package main

import (
	"bytes"
	"net/http"

	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/plan"
)

type feedbackResponse struct {
	OK       bool   `json:"ok"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// planFeedbackGET returns coaching prose about the current week, both as the
// raw markdown and rendered to HTML.
func (app *application) planFeedbackGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, err := app.planService.GenerateWeek(ctx, app.currentUserID(r), 0)
	if errors.Is(err, plan.ErrNotFound) {
		app.clientError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	prose, err := app.coach.Feedback(ctx, week)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "coach feedback"))
		return
	}

	var html bytes.Buffer
	if err = app.markdown.Convert([]byte(prose), &html); err != nil {
		app.serverError(w, r, errors.Wrap(err, "render feedback"))
		return
	}

	app.writeJSON(w, http.StatusOK, feedbackResponse{OK: true, Markdown: prose, HTML: html.String()})
}
