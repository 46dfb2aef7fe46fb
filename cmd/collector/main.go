package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lueurxax/ad-library-intel/internal/config"
	"github.com/lueurxax/ad-library-intel/internal/core/adlibrary"
	"github.com/lueurxax/ad-library-intel/internal/core/domain"
	"github.com/lueurxax/ad-library-intel/internal/observability"
	"github.com/lueurxax/ad-library-intel/internal/pipeline"
	"github.com/lueurxax/ad-library-intel/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "run one collection batch and exit")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setLogLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	db, err := storage.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	client := adlibrary.New(adlibrary.Config{
		AccessToken:       cfg.AccessToken,
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.APITimeout,
		MaxHourlyRequests: cfg.APIRateLimit,
		RequestsPerSecond: cfg.APIRPS,
		RetryAttempts:     cfg.RetryAttempts,
		RetryDelay:        cfg.RetryDelay,
	}, nil, &logger)

	collector := pipeline.New(client, db, &logger)
	queries := buildQueries(cfg)

	if len(queries) == 0 {
		logger.Fatal().Msg("No search keywords or competitor pages configured")
	}

	healthServer := observability.NewHealthServer(db, cfg.HealthPort)

	go func() {
		logger.Info().Int("port", cfg.HealthPort).Msg("Starting health server")

		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()

	healthServer.SetReady(true)

	runBatch := func() {
		summaries := collector.RunBatch(ctx, queries, cfg.CollectConcurrency)

		var fetched, inserted, updated int
		for _, s := range summaries {
			fetched += s.Fetched
			inserted += s.Inserted
			updated += s.Updated
		}

		logger.Info().
			Int("queries", len(summaries)).
			Int("fetched", fetched).
			Int("inserted", inserted).
			Int("updated", updated).
			Msg("Collection batch finished")
	}

	if *once {
		runBatch()
		return
	}

	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if _, err := scheduler.AddFunc(cfg.CollectSchedule, runBatch); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.CollectSchedule).Msg("Invalid collection schedule")
	}

	logger.Info().Str("schedule", cfg.CollectSchedule).Msg("Starting collector")
	scheduler.Start()

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	logger.Info().Msg("Collector stopped")
}

// buildQueries expands the configured keywords and competitor pages into
// collection queries.
func buildQueries(cfg *config.Config) []domain.Query {
	queries := make([]domain.Query, 0, len(cfg.SearchKeywords)+len(cfg.CompetitorPages))

	for _, keyword := range cfg.SearchKeywords {
		queries = append(queries, domain.Query{
			Kind:         domain.QuerySearch,
			Term:         keyword,
			Countries:    cfg.Countries,
			Platforms:    cfg.Platforms,
			ActiveStatus: cfg.ActiveStatus,
			Limit:        cfg.LimitPerQuery,
		})
	}

	for _, page := range cfg.CompetitorPages {
		queries = append(queries, domain.Query{
			Kind:         domain.QueryCompetitor,
			Term:         page,
			Countries:    cfg.Countries,
			ActiveStatus: cfg.ActiveStatus,
			Limit:        cfg.LimitPerQuery,
		})
	}

	return queries
}

// setLogLevel sets the global log level based on the configuration.
func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
