// Command stresstest drives many concurrent simulated athletes against a
// running paceapp instance. Each user identifies, saves a profile, and then
// hammers plan generation, variant selection, and distance edits. The run
// fails when the success rate drops below the threshold.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/paceapp/internal/e2etest"
	"github.com/myrjola/paceapp/internal/logging"
	"github.com/myrjola/paceapp/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	userCount            = 25
	operationsPerUser    = 40
	maxConcurrentUsers   = 10
	scenarioTimeout      = 2 * time.Minute
	successRateThreshold = 95.0
	percentageMultiplier = 100
	expectedArgsCount    = 2
)

var variants = []string{"easy", "progressive", "blocks"}

func stressProfile(userIndex int) map[string]any {
	// Spread benchmark fitness and volume so the plans differ per user.
	benchmarkSec := 1080 + 30*(userIndex%10)
	weekly := 40 + 5*(userIndex%12)
	return map[string]any{
		"name":               fmt.Sprintf("Stress Athlete %d", userIndex),
		"benchmark":          map[string]any{"distance_meters": 5000, "time": fmt.Sprintf("%d:%02d", benchmarkSec/60, benchmarkSec%60)},
		"weekly_distance_km": weekly,
		"warmup_km":          2,
		"cooldown_km":        1,
		"schedule": map[string]any{
			"1": map[string]string{"type": "easy"},
			"2": map[string]string{"type": "threshold"},
			"3": map[string]string{"type": "easy"},
			"4": map[string]string{"type": "threshold"},
			"6": map[string]string{"type": "long"},
		},
	}
}

// runUser executes one simulated athlete's scenario and returns how many
// operations succeeded and how many ran in total.
func runUser(ctx context.Context, baseURL string, userIndex int) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, scenarioTimeout)
	defer cancel()

	c, err := e2etest.NewClient(baseURL)
	if err != nil {
		return 0, 0, fmt.Errorf("create client for user %d: %w", userIndex, err)
	}
	if err = c.ExpectStatus(ctx, http.MethodPost, "/api/identify", nil, http.StatusOK); err != nil {
		return 0, 0, fmt.Errorf("identify user %d: %w", userIndex, err)
	}
	if err = c.ExpectStatus(ctx, http.MethodPut, "/api/profile", stressProfile(userIndex), http.StatusOK); err != nil {
		return 0, 0, fmt.Errorf("save profile for user %d: %w", userIndex, err)
	}

	var succeeded, total int64
	for op := range operationsPerUser {
		var opErr error
		switch op % 3 {
		case 0:
			opErr = c.ExpectStatus(ctx, http.MethodGet, "/api/plan", nil, http.StatusOK)
		case 1:
			payload := map[string]string{"day": "saturday", "variant": variants[rand.IntN(len(variants))]}
			opErr = c.ExpectStatus(ctx, http.MethodPost, "/api/plan/variant", payload, http.StatusOK)
		case 2:
			payload := map[string]any{"day": "monday", "distance_km": 5 + rand.IntN(10)}
			opErr = c.ExpectStatus(ctx, http.MethodPost, "/api/plan/session/distance", payload, http.StatusOK)
		}
		total++
		if opErr == nil {
			succeeded++
		}
	}
	return succeeded, total, nil
}

func run(ctx context.Context, logger *slog.Logger, baseURL string) error {
	var succeeded, total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUsers)
	for userIndex := range userCount {
		g.Go(func() error {
			ok, ran, err := runUser(gctx, baseURL, userIndex)
			if err != nil {
				return err
			}
			succeeded.Add(ok)
			total.Add(ran)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stress scenario: %w", err)
	}

	rate := float64(succeeded.Load()) / float64(total.Load()) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "stress test finished",
		slog.Int64("succeeded", succeeded.Load()),
		slog.Int64("total", total.Load()),
		slog.Float64("success_rate", rate))
	if rate < successRateThreshold {
		return fmt.Errorf("success rate %.1f%% below threshold %.1f%%", rate, successRateThreshold)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	hostname := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	start := time.Now()
	if err := run(ctx, logger, url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "stress test failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Stress test successful 💪", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
