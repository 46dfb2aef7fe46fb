// Command report renders the consolidated intelligence report from the
// collected ad corpus to a file or stdout.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/lueurxax/ad-library-intel/internal/report"
	"github.com/lueurxax/ad-library-intel/internal/storage"
)

const reportFileMode = 0o644

// reportConfig is the minimal environment this tool needs; it reads only
// committed state and never touches the upstream API.
type reportConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required"`
}

func main() {
	output := flag.String("o", "", "output file (stdout when empty)")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg := &reportConfig{}
	if err := env.Parse(cfg); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	db, err := storage.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	text, err := report.Build(ctx, db, time.Now())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build report")
	}

	if *output == "" {
		_, _ = os.Stdout.WriteString(text) //nolint:errcheck // Best-effort write
		return
	}

	if err := os.WriteFile(*output, []byte(text), reportFileMode); err != nil {
		logger.Fatal().Err(err).Str("path", *output).Msg("Failed to write report")
	}

	logger.Info().Str("path", *output).Msg("Report written")
}
