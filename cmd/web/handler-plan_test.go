package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/myrjola/paceapp/internal/plan"
	"github.com/myrjola/paceapp/internal/weather"
)

func generateWeek(t *testing.T, client *testClient, path string) plan.Week {
	t.Helper()
	resp := client.do(http.MethodGet, path, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s returned status %d", path, resp.StatusCode)
	}
	var decoded weekResponse
	decodeBody(t, resp, &decoded)
	return decoded.Week
}

func TestPlanGET(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, newTestApplication(t))
	client.identify()

	resp := client.do(http.MethodGet, "/api/plan", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("plan without profile returned status %d, want 404", resp.StatusCode)
	}
	_ = resp.Body.Close()

	client.saveProfile(webTestProfile())

	week := generateWeek(t, client, "/api/plan")
	if len(week.Days) != 7 {
		t.Fatalf("got %d days", len(week.Days))
	}
	tuesday := week.Days[1].Session
	if tuesday == nil || !strings.HasPrefix(tuesday.Title, "SubT ") {
		t.Errorf("tuesday session = %+v, want a subthreshold workout", tuesday)
	}
	if week.TotalDistanceKm <= 0 {
		t.Errorf("total distance = %v", week.TotalDistanceKm)
	}
}

func TestPlanGETWeatherCorrection(t *testing.T) {
	t.Parallel()

	// Hot and humid conditions carrying a 10 s/km correction.
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{
			"temperature_2m":30,"dew_point_2m":26,"relative_humidity_2m":80,"wind_speed_10m":5}}`))
	}))
	defer forecast.Close()

	app := newTestApplication(t)
	app.weatherClient = weather.NewClient(forecast.URL)
	client := newTestClient(t, app)
	client.identify()
	client.saveProfile(webTestProfile())

	baseline := generateWeek(t, client, "/api/plan")
	corrected := generateWeek(t, client, "/api/plan?weather=1&lat=60.1699&lon=24.9384")

	basePace := baseline.Days[1].Session.Intervals[0].PaceLow
	correctedPace := corrected.Days[1].Session.Intervals[0].PaceLow
	if correctedPace != basePace+10 {
		t.Errorf("corrected pace = %v, want %v", correctedPace, basePace+10)
	}
}

func TestPlanGETWeatherFailureDegradesToZero(t *testing.T) {
	t.Parallel()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer forecast.Close()

	app := newTestApplication(t)
	app.weatherClient = weather.NewClient(forecast.URL)
	client := newTestClient(t, app)
	client.identify()
	client.saveProfile(webTestProfile())

	baseline := generateWeek(t, client, "/api/plan")
	degraded := generateWeek(t, client, "/api/plan?weather=1&lat=60.1699&lon=24.9384")

	basePace := baseline.Days[1].Session.Intervals[0].PaceLow
	if got := degraded.Days[1].Session.Intervals[0].PaceLow; got != basePace {
		t.Errorf("pace with failing weather = %v, want uncorrected %v", got, basePace)
	}
}

func TestPlanVariantPOST(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, newTestApplication(t))
	client.identify()
	client.saveProfile(webTestProfile())

	resp := client.do(http.MethodPost, "/api/plan/variant",
		variantRequest{Day: "saturday", Variant: "progressive"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("variant select returned status %d", resp.StatusCode)
	}
	var decoded weekResponse
	decodeBody(t, resp, &decoded)

	saturday := decoded.Week.Days[5].Session
	if saturday == nil || saturday.Variant != plan.VariantProgressive {
		t.Errorf("saturday session = %+v, want the progressive variant", saturday)
	}

	resp = client.do(http.MethodPost, "/api/plan/variant",
		variantRequest{Day: "someday", Variant: "progressive"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown weekday returned status %d, want 400", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestPlanSessionDistancePOST(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, newTestApplication(t))
	client.identify()
	client.saveProfile(webTestProfile())

	resp := client.do(http.MethodPost, "/api/plan/session/distance",
		distanceRequest{Day: "monday", DistanceKm: 12})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("distance edit returned status %d", resp.StatusCode)
	}
	var decoded weekResponse
	decodeBody(t, resp, &decoded)

	monday := decoded.Week.Days[0].Session
	if monday == nil || monday.DistanceKm != 12 {
		t.Errorf("monday session = %+v, want distance 12", monday)
	}

	resp = client.do(http.MethodPost, "/api/plan/session/distance",
		distanceRequest{Day: "monday", DistanceKm: -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative distance returned status %d, want 400", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestPlanFeedbackGET(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, newTestApplication(t))
	client.identify()
	client.saveProfile(webTestProfile())

	resp := client.do(http.MethodGet, "/api/plan/feedback", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feedback returned status %d", resp.StatusCode)
	}
	var decoded feedbackResponse
	decodeBody(t, resp, &decoded)
	if decoded.Markdown == "" {
		t.Error("feedback markdown is empty")
	}
	if !strings.Contains(decoded.HTML, "<") {
		t.Errorf("feedback html = %q, want rendered markup", decoded.HTML)
	}
}
