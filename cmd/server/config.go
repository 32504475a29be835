package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/neexbeast/partiu085-web/internal/api"
	"github.com/neexbeast/partiu085-web/internal/backend"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultTimezone     = "America/Fortaleza"
)

// config is the server configuration. Flags override environment variables,
// which override the built-in defaults.
type config struct {
	Port              string
	BackendURL        string
	RedisURL          string
	DatabaseURL       string
	PollInterval      time.Duration
	BackendRPS        float64
	RequestsPerMinute int
	Timezone          string
	Location          *time.Location
}

func parseConfig(args []string, getenv func(string) string) (config, error) {
	defaults, err := envDefaults(getenv)
	if err != nil {
		return config{}, err
	}

	cfg := defaults
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", defaults.Port, "HTTP listen port (env PORT)")
	flagSet.StringVar(&cfg.BackendURL, "backend-url", defaults.BackendURL, "deal backend base URL (env BACKEND_URL)")
	flagSet.StringVar(&cfg.RedisURL, "redis-url", defaults.RedisURL, "Redis URL; empty disables caching (env REDIS_URL)")
	flagSet.StringVar(&cfg.DatabaseURL, "database-url", defaults.DatabaseURL, "PostgreSQL URL; empty disables search history (env DATABASE_URL)")
	flagSet.DurationVar(&cfg.PollInterval, "poll-interval", defaults.PollInterval, "scheduler status polling interval (env POLL_INTERVAL)")
	flagSet.Float64Var(&cfg.BackendRPS, "backend-rps", defaults.BackendRPS, "max requests per second to the backend, 0 for no limit (env BACKEND_RPS)")
	flagSet.IntVar(&cfg.RequestsPerMinute, "rate-limit", defaults.RequestsPerMinute, "page requests per minute per IP (env RATE_LIMIT_PER_MINUTE)")
	flagSet.StringVar(&cfg.Timezone, "timezone", defaults.Timezone, "IANA zone that decides which offers were found today (env TIMEZONE)")

	if err := flagSet.Parse(args); err != nil {
		return config{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return config{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if cfg.PollInterval <= 0 {
		return config{}, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return config{}, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func envDefaults(getenv func(string) string) (config, error) {
	cfg := config{
		Port:              getEnv(getenv, "PORT", "8080"),
		BackendURL:        backend.ResolveBaseURL(getenv),
		RedisURL:          getenv("REDIS_URL"),
		DatabaseURL:       getenv("DATABASE_URL"),
		PollInterval:      defaultPollInterval,
		RequestsPerMinute: api.DefaultRequestsPerMinute,
		Timezone:          getEnv(getenv, "TIMEZONE", defaultTimezone),
	}

	if v := getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("parsing POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := getenv("BACKEND_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return config{}, fmt.Errorf("parsing BACKEND_RPS: %w", err)
		}
		cfg.BackendRPS = f
	}
	if v := getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return config{}, fmt.Errorf("parsing RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RequestsPerMinute = n
	}

	return cfg, nil
}

func getEnv(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
