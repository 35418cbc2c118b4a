package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/paceapp/internal/coach"
	"github.com/myrjola/paceapp/internal/envstruct"
	"github.com/myrjola/paceapp/internal/errors"
	"github.com/myrjola/paceapp/internal/logging"
	"github.com/myrjola/paceapp/internal/plan"
	"github.com/myrjola/paceapp/internal/sqlite"
	"github.com/myrjola/paceapp/internal/weather"
	"github.com/yuin/goldmark"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	planService    *plan.Service
	weatherClient  *weather.Client
	coach          *coach.Coach
	markdown       goldmark.Markdown
	// icuBaseURL is the calendar service endpoint. Clients are constructed
	// per request because the credentials are per user.
	icuBaseURL string
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"PACEAPP_ADDR" envDefault:"localhost:8080"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"PACEAPP_SQLITE_URL" envDefault:"./paceapp.sqlite3"`
	// ICUBaseURL is the base URL of the remote workout calendar service.
	ICUBaseURL string `env:"PACEAPP_ICU_BASE_URL" envDefault:"https://intervals.icu"`
	// WeatherBaseURL is the base URL of the weather service.
	WeatherBaseURL string `env:"PACEAPP_WEATHER_BASE_URL" envDefault:"https://api.open-meteo.com"`
	// OpenAIAPIKey enables AI coach feedback. Empty falls back to a canned summary.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	app := application{
		logger:         logger,
		sessionManager: initializeSessionManager(db),
		planService:    plan.NewService(db, logger),
		weatherClient:  weather.NewClient(cfg.WeatherBaseURL),
		coach:          coach.New(cfg.OpenAIAPIKey, logger),
		markdown:       goldmark.New(),
		icuBaseURL:     cfg.ICUBaseURL,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 30 * 24 * time.Hour                                           //nolint:mnd // a month
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
