package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/myrjola/paceapp/internal/coach"
	"github.com/myrjola/paceapp/internal/plan"
	"github.com/myrjola/paceapp/internal/sqlite"
	"github.com/myrjola/paceapp/internal/testhelpers"
	"github.com/myrjola/paceapp/internal/weather"
	"github.com/yuin/goldmark"
)

// newTestApplication builds the application against an in-memory database.
// Tests that exercise collaborators point icuBaseURL or weatherClient at an
// httptest server before calling routes().
func newTestApplication(t *testing.T) *application {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close database: %v", closeErr)
		}
	})

	return &application{
		logger:         logger,
		sessionManager: initializeSessionManager(db),
		planService:    plan.NewService(db, logger),
		weatherClient:  weather.NewClient("http://weather.invalid"),
		coach:          coach.New("", logger),
		markdown:       goldmark.New(),
		icuBaseURL:     "http://calendar.invalid",
	}
}

// testClient drives the route mux in-process, carrying session cookies
// between requests the way a browser would.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, app *application) *testClient {
	t.Helper()
	return &testClient{
		t:       t,
		handler: app.routes(),
		cookies: map[string]*http.Cookie{},
	}
}

func (c *testClient) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	resp := rec.Result()
	for _, cookie := range resp.Cookies() {
		c.cookies[cookie.Name] = cookie
	}
	return resp
}

// decodeBody decodes the JSON response body into dst and closes it.
func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// identify establishes a session identity and returns the user ID.
func (c *testClient) identify() string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/identify", nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("identify returned status %d", resp.StatusCode)
	}
	var decoded identifyResponse
	decodeBody(c.t, resp, &decoded)
	if decoded.UserID == "" {
		c.t.Fatal("identify returned an empty user id")
	}
	return decoded.UserID
}

// saveProfile stores a runnable seven-day profile for the session user.
func (c *testClient) saveProfile(profile plan.Profile) {
	c.t.Helper()
	resp := c.do(http.MethodPut, "/api/profile", profile)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("save profile returned status %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func webTestProfile() plan.Profile {
	return plan.Profile{
		Name:             "Test Athlete",
		Benchmark:        plan.Benchmark{DistanceMeters: 5000, Time: "19:07"},
		WeeklyDistanceKm: 80,
		WarmupKm:         2,
		CooldownKm:       1,
		Schedule: plan.Schedule{
			time.Monday:    {Type: plan.DayEasy},
			time.Tuesday:   {Type: plan.DayThreshold},
			time.Wednesday: {Type: plan.DayEasy},
			time.Thursday:  {Type: plan.DayThreshold},
			time.Friday:    {Type: plan.DayEasy},
			time.Saturday:  {Type: plan.DayLongRun},
			time.Sunday:    {Type: plan.DayThreshold},
		},
	}
}
