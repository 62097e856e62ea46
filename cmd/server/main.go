// Command server runs the war room front end: an HTML form and a JSON API
// that put a pitch before a simulated executive board on Gemini.
//
// Configuration is read from a YAML file (see -config) and environment
// variables. A .env file in the working directory is loaded first when
// present. Common variables:
//
//	WARROOM_PORT / PORT               - Listen port (default: 8080)
//	WARROOM_APP_SECRET / DPA_APP_SECRET - Form nonce signing secret
//	WARROOM_UPSTREAM_URL              - Gemini API root
//	WARROOM_MODEL                     - Default model
//	WARROOM_DEBUG                     - Debug categories
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/config"
	"github.com/rhuss/warroom/pkg/csrf"
	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/engine"
	"github.com/rhuss/warroom/pkg/provider/gemini"
	"github.com/rhuss/warroom/pkg/transport"
	transporthttp "github.com/rhuss/warroom/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Debug.Categories, cfg.Debug.LogLevel)

	prov, err := gemini.New(gemini.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		APIVersion:     cfg.Upstream.APIVersion,
		DefaultPersona: cfg.Engine.DefaultPersona,
		BearerPrefixes: cfg.Upstream.BearerPrefixes,
		BackoffBase:    cfg.Upstream.BackoffBase,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	defer prov.Close()

	eng, err := engine.New(prov, engineConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	secret := cfg.Server.AppSecret
	if secret == "" {
		if secret, err = csrf.GenerateSecret(); err != nil {
			return err
		}
		slog.Warn("no app secret configured, using a random one; form nonces will not survive a restart")
	}
	nonces, err := csrf.New(csrf.Config{Secret: []byte(secret), TTL: cfg.Server.NonceTTL})
	if err != nil {
		return fmt.Errorf("creating nonces: %w", err)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(":" + strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithMaxBodySize(int64(cfg.Engine.MaxPromptSize) + 64<<10),
		transporthttp.WithNonces(nonces),
		transporthttp.WithFormDefaults(cfg.Engine.DefaultModel, cfg.Engine.DefaultPersona),
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithMetricsPath(cfg.Observability.Metrics.Path))
	} else {
		opts = append(opts, transporthttp.WithMetricsPath(""))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, transporthttp.WithRateLimiter(transport.NewRateLimiter(
			cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.TrustForwardedFor)))
		slog.Info("rate limiting enabled", "rpm", cfg.RateLimit.RequestsPerMinute, "burst", cfg.RateLimit.Burst)
	}

	slog.Info("war room configured",
		"upstream", cfg.Upstream.BaseURL,
		"api_version", cfg.Upstream.APIVersion,
		"model", cfg.Engine.DefaultModel,
		"persona", cfg.Engine.DefaultPersona,
	)

	return transporthttp.NewServer(eng, opts...).ListenAndServe()
}

func engineConfig(cfg *config.Config) engine.Config {
	validation := api.DefaultValidationConfig()
	validation.MaxPromptSize = cfg.Engine.MaxPromptSize
	return engine.Config{
		DefaultModel:          cfg.Engine.DefaultModel,
		DefaultPersona:        cfg.Engine.DefaultPersona,
		DefaultMaxRetries:     cfg.Engine.MaxRetries,
		DefaultTimeoutSeconds: cfg.Engine.TimeoutSeconds,
		Validation:            validation,
	}
}
