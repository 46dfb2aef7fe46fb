package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds configuration for the collector daemon.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// Upstream archive API
	AccessToken   string        `env:"ADLIB_ACCESS_TOKEN,required"`
	BaseURL       string        `env:"ADLIB_BASE_URL" envDefault:"https://graph.facebook.com/v20.0"`
	APITimeout    time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	APIRateLimit  int           `env:"API_RATE_LIMIT" envDefault:"200"`
	APIRPS        float64       `env:"API_RPS" envDefault:"2"`
	RetryAttempts int           `env:"API_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"API_RETRY_DELAY" envDefault:"5s"`

	// Collection targets
	SearchKeywords  []string `env:"SEARCH_KEYWORDS" envSeparator:","`
	CompetitorPages []string `env:"COMPETITOR_PAGES" envSeparator:","`
	Countries       []string `env:"COUNTRIES" envSeparator:"," envDefault:"US"`
	Platforms       []string `env:"PLATFORMS" envSeparator:"," envDefault:"instagram"`
	ActiveStatus    string   `env:"AD_ACTIVE_STATUS" envDefault:"ALL"`
	LimitPerQuery   int      `env:"LIMIT_PER_QUERY" envDefault:"100"`

	// Scheduling
	CollectSchedule    string `env:"COLLECT_SCHEDULE" envDefault:"0 9 * * *"`
	CollectConcurrency int    `env:"COLLECT_CONCURRENCY" envDefault:"2"`

	// Observability
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment, with .env support for
// local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
