// Package icu talks to the remote workout-calendar service. Events are
// upserted per calendar date and identified by the opaque numeric ID the
// service assigns; the caller stores that ID to make re-syncs idempotent.
package icu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/myrjola/paceapp/internal/encode"
)

// apiKeyUser is the fixed basic-auth username the calendar service expects
// when authenticating with an API key.
const apiKeyUser = "API_KEY"

// Client sends workout events to the calendar service over HTTP. Methods
// never retry; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	athleteID  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a calendar client for one athlete's credentials.
func NewClient(baseURL, athleteID, apiKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		athleteID: athleteID,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the calendar service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar service returned status %d: %s", e.StatusCode, e.Body)
}

// event is the wire shape of one calendar slot.
type event struct {
	ID             int64  `json:"id,omitempty"`
	Category       string `json:"category"`
	StartDateLocal string `json:"start_date_local"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	MovingTime     int    `json:"moving_time,omitempty"`
	// FileContentsBase64 carries the binary workout file.
	FileContentsBase64 string `json:"file_contents_base64,omitempty"`
	// ExternalID is the caller-chosen idempotency key echoed back in bulk
	// responses.
	ExternalID string `json:"external_id,omitempty"`
}

// eventResponse is the service's acknowledgement of a single upsert.
type eventResponse struct {
	ID int64 `json:"id"`
}

// newEvent converts an encoded workout into its wire shape for a date.
func newEvent(date time.Time, workout encode.EncodedWorkout) event {
	return event{
		Category:           "WORKOUT",
		StartDateLocal:     date.Format("2006-01-02T00:00:00"),
		Name:               workout.Title,
		Description:        workout.Description,
		MovingTime:         workout.MovingTimeSec,
		FileContentsBase64: base64.StdEncoding.EncodeToString(workout.FileContents),
	}
}

// UpsertEvent creates or updates the event for a date. A zero eventID
// creates a new event; a non-zero one updates it in place. The returned ID
// identifies the event for later updates and deletion.
func (c *Client) UpsertEvent(ctx context.Context, date time.Time, eventID int64, workout encode.EncodedWorkout) (int64, error) {
	payload := newEvent(date, workout)
	payload.ID = eventID

	method := http.MethodPost
	url := fmt.Sprintf("%s/api/v1/athlete/%s/events", c.baseURL, c.athleteID)
	if eventID != 0 {
		method = http.MethodPut
		url = fmt.Sprintf("%s/api/v1/athlete/%s/events/%d", c.baseURL, c.athleteID, eventID)
	}

	var resp eventResponse
	if err := c.do(ctx, method, url, payload, &resp); err != nil {
		return 0, fmt.Errorf("upsert event: %w", err)
	}
	return resp.ID, nil
}

// BulkItem is one entry of a bulk upsert, keyed by a caller-chosen
// idempotency identifier.
type BulkItem struct {
	ExternalID string
	Date       time.Time
	Workout    encode.EncodedWorkout
}

// bulkResponse maps submitted external IDs to assigned event IDs. The
// service may omit entries for items it failed to process.
type bulkResponse struct {
	Assigned map[string]int64 `json:"assigned"`
}

// BulkUpsert submits all items in one request and returns the map from
// external ID to assigned event ID. The map may be partial: a missing entry
// means that item failed and the caller reports it individually. The error
// is non-nil only when the whole request failed.
func (c *Client) BulkUpsert(ctx context.Context, items []BulkItem) (map[string]int64, error) {
	events := make([]event, 0, len(items))
	for _, item := range items {
		ev := newEvent(item.Date, item.Workout)
		ev.ExternalID = item.ExternalID
		events = append(events, ev)
	}

	url := fmt.Sprintf("%s/api/v1/athlete/%s/events/bulk", c.baseURL, c.athleteID)
	var resp bulkResponse
	if err := c.do(ctx, http.MethodPost, url, events, &resp); err != nil {
		return nil, fmt.Errorf("bulk upsert: %w", err)
	}
	if resp.Assigned == nil {
		resp.Assigned = map[string]int64{}
	}
	return resp.Assigned, nil
}

// DeleteEvent removes a synced event by its assigned ID.
func (c *Client) DeleteEvent(ctx context.Context, eventID int64) error {
	url := fmt.Sprintf("%s/api/v1/athlete/%s/events/%d", c.baseURL, c.athleteID, eventID)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// do sends one JSON request and decodes the JSON response into out when out
// is non-nil. Non-2xx statuses become an *APIError.
func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(apiKeyUser, c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
