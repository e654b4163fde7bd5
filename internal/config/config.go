// Package config loads the worker's environment-variable configuration:
// DB URL, HTTP listen address, slow-request threshold, and the
// production date range.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything cmd/kraken needs to wire up the worker.
type Config struct {
	DBURL   string
	HTTPAddr string

	SlowRequestThreshold time.Duration

	ProductionDateBegin time.Time
	ProductionDateEnd   time.Time
}

const (
	envDBURL       = "KRAKEN_DB_URL"
	envHTTPAddr    = "KRAKEN_HTTP_ADDR"
	envSlowThresh  = "KRAKEN_SLOW_REQUEST_THRESHOLD"
	envProdBegin   = "KRAKEN_PRODUCTION_DATE_BEGIN"
	envProdEnd     = "KRAKEN_PRODUCTION_DATE_END"
)

const dateLayout = "2006-01-02"

// Load reads the KRAKEN_* environment variables, applying the same
// defaults a local dev run would need.
func Load() (Config, error) {
	cfg := Config{
		DBURL:                envOr(envDBURL, "postgres://localhost:5432/kraken?sslmode=disable"),
		HTTPAddr:             envOr(envHTTPAddr, ":9191"),
		SlowRequestThreshold: 1 * time.Second,
	}

	if v := os.Getenv(envSlowThresh); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: bad %s: %w", envSlowThresh, err)
		}
		cfg.SlowRequestThreshold = time.Duration(ms) * time.Millisecond
	}

	begin := envOr(envProdBegin, time.Now().UTC().Format(dateLayout))
	t, err := time.Parse(dateLayout, begin)
	if err != nil {
		return Config{}, fmt.Errorf("config: bad %s: %w", envProdBegin, err)
	}
	cfg.ProductionDateBegin = t

	end := envOr(envProdEnd, cfg.ProductionDateBegin.AddDate(0, 0, 90).Format(dateLayout))
	t, err = time.Parse(dateLayout, end)
	if err != nil {
		return Config{}, fmt.Errorf("config: bad %s: %w", envProdEnd, err)
	}
	cfg.ProductionDateEnd = t

	if !cfg.ProductionDateEnd.After(cfg.ProductionDateBegin) {
		return Config{}, fmt.Errorf("config: %s must be after %s", envProdEnd, envProdBegin)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
