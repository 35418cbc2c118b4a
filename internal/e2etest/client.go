// Package e2etest provides a session-aware JSON API client for exercising a
// running server from the outside. The smoke and stress commands build on it.
package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"time"
)

// unsafeCookieJar strips the Secure attribute before storing cookies so the
// session survives over plain http against a localhost instance.
type unsafeCookieJar struct {
	jar http.CookieJar
}

func newUnsafeCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &unsafeCookieJar{jar: jar}, nil
}

func (j *unsafeCookieJar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		cookie.Secure = false
	}
	j.jar.SetCookies(u, cookies)
}

func (j *unsafeCookieJar) Cookies(u *neturl.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Client is an HTTP client holding one user's session.
type Client struct {
	client *http.Client
	url    string
}

// NewClient creates a client against the given base URL.
func NewClient(url string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, fmt.Errorf("create unsafe cookie jar: %w", err)
	}
	return &Client{
		client: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		status, _, err := c.DoJSON(ctx, http.MethodGet, urlPath, nil)
		if err == nil && status == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// DoJSON sends one request with an optional JSON payload and returns the
// status code and response body.
func (c *Client) DoJSON(ctx context.Context, method, urlPath string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, urlPath, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// ExpectStatus sends a request and fails unless the response carries the
// wanted status code.
func (c *Client) ExpectStatus(ctx context.Context, method, urlPath string, payload any, want int) error {
	status, body, err := c.DoJSON(ctx, method, urlPath, payload)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%s %s returned status %d, want %d: %s", method, urlPath, status, want, body)
	}
	return nil
}
