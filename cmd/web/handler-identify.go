package main

import (
	"net/http"

	"github.com/google/uuid"
)

type identifyResponse struct {
	OK     bool   `json:"ok"`
	UserID string `json:"user_id"`
}

// identifyPOST assigns an opaque user identity to the session, or echoes the
// existing one. The identity only namespaces profile and credential rows.
func (app *application) identifyPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := app.sessionManager.GetString(ctx, sessionKeyUserID)
	if userID == "" {
		if err := app.sessionManager.RenewToken(ctx); err != nil {
			app.serverError(w, r, err)
			return
		}
		userID = uuid.NewString()
		app.sessionManager.Put(ctx, sessionKeyUserID, userID)
	}

	if err := app.planService.EnsureUser(ctx, userID, "", ""); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, identifyResponse{OK: true, UserID: userID})
}
