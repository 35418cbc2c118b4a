package main

import (
	"net/http"
)

func (app *application) routes() *http.ServeMux {
	mux := http.NewServeMux()

	var (
		base = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(
				app.crossOriginProtection(noCache(next)))))
		}
		session = func(next http.Handler) http.Handler {
			return base(app.sessionManager.LoadAndSave(timeout(defaultHandlerTimeout, next)))
		}
		identified = func(next http.Handler) http.Handler {
			return base(app.sessionManager.LoadAndSave(
				app.mustIdentify(timeout(defaultHandlerTimeout, next))))
		}
		// identifiedSlow is for handlers that call external services.
		identifiedSlow = func(next http.Handler) http.Handler {
			return base(app.sessionManager.LoadAndSave(
				app.mustIdentify(timeout(slowHandlerTimeout, next))))
		}
	)

	mux.Handle("POST /api/identify", session(http.HandlerFunc(app.identifyPOST)))

	mux.Handle("GET /api/profile", identified(http.HandlerFunc(app.profileGET)))
	mux.Handle("PUT /api/profile", identified(http.HandlerFunc(app.profilePUT)))

	mux.Handle("GET /api/plan", identifiedSlow(http.HandlerFunc(app.planGET)))
	mux.Handle("POST /api/plan/variant", identified(http.HandlerFunc(app.planVariantPOST)))
	mux.Handle("POST /api/plan/session/distance", identified(http.HandlerFunc(app.planSessionDistancePOST)))
	mux.Handle("GET /api/plan/feedback", identifiedSlow(http.HandlerFunc(app.planFeedbackGET)))

	mux.Handle("POST /api/sync/day", identifiedSlow(http.HandlerFunc(app.syncDayPOST)))
	mux.Handle("POST /api/sync/week", identifiedSlow(http.HandlerFunc(app.syncWeekPOST)))
	mux.Handle("DELETE /api/sync/day", identifiedSlow(http.HandlerFunc(app.syncDayDELETE)))

	mux.Handle("PUT /api/settings/icu", identified(http.HandlerFunc(app.icuSettingsPUT)))
	mux.Handle("DELETE /api/settings/icu", identified(http.HandlerFunc(app.icuSettingsDELETE)))

	mux.Handle("GET /api/healthy", session(http.HandlerFunc(app.healthy)))

	return mux
}
