// Command smoketest exercises the core API of a running paceapp instance:
// identify, save a profile, generate a plan. It exits non-zero on the first
// failure so it can gate a deployment.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/paceapp/internal/e2etest"
	"github.com/myrjola/paceapp/internal/logging"
	"github.com/myrjola/paceapp/internal/testhelpers"
)

const readyTimeout = 30 * time.Second

func smokeProfile() map[string]any {
	return map[string]any{
		"name":               "Smoke Tester",
		"benchmark":          map[string]any{"distance_meters": 5000, "time": "22:30"},
		"weekly_distance_km": 50,
		"warmup_km":          2,
		"cooldown_km":        1,
		"schedule": map[string]any{
			"1": map[string]string{"type": "easy"},
			"2": map[string]string{"type": "threshold"},
			"4": map[string]string{"type": "threshold"},
			"6": map[string]string{"type": "long"},
		},
	}
}

func smokeTest(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy", readyTimeout); err != nil {
		return fmt.Errorf("wait for server: %w", err)
	}
	if err := client.ExpectStatus(ctx, http.MethodPost, "/api/identify", nil, http.StatusOK); err != nil {
		return err
	}
	if err := client.ExpectStatus(ctx, http.MethodPut, "/api/profile", smokeProfile(), http.StatusOK); err != nil {
		return err
	}

	status, body, err := client.DoJSON(ctx, http.MethodGet, "/api/plan", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET /api/plan returned status %d: %s", status, body)
	}
	if !bytes.Contains(body, []byte("SubT ")) {
		return fmt.Errorf("plan response carries no subthreshold session: %s", body)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	hostname := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	start := time.Now()
	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = smokeTest(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
