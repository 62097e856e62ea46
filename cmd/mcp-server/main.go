// Command mcp-server exposes the war room as a Model Context Protocol
// server with a single consult_board tool. It serves streamable HTTP by
// default or stdio when mcp.transport is "stdio".
//
// Configuration is shared with the server command (YAML file and
// WARROOM_* environment variables). WARROOM_API_KEY supplies the
// credential for tool calls that carry none.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rhuss/warroom/pkg/api"
	"github.com/rhuss/warroom/pkg/config"
	"github.com/rhuss/warroom/pkg/debug"
	"github.com/rhuss/warroom/pkg/engine"
	"github.com/rhuss/warroom/pkg/mcpserver"
	"github.com/rhuss/warroom/pkg/provider/gemini"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mcp server failed", "error", err)
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

	validation := api.DefaultValidationConfig()
	validation.MaxPromptSize = cfg.Engine.MaxPromptSize
	eng, err := engine.New(prov, engine.Config{
		DefaultModel:          cfg.Engine.DefaultModel,
		DefaultPersona:        cfg.Engine.DefaultPersona,
		DefaultMaxRetries:     cfg.Engine.MaxRetries,
		DefaultTimeoutSeconds: cfg.Engine.TimeoutSeconds,
		Validation:            validation,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	server := mcpserver.New(eng, mcpserver.Config{DefaultAPIKey: cfg.Engine.APIKey})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MCP.Transport == "stdio" {
		slog.Info("mcp server starting", "transport", "stdio")
		return mcpserver.ServeStdio(ctx, server)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.MCP.Path, mcpserver.Handler(server))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.MCP.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mcp server starting", "transport", "streamable-http", "port", cfg.MCP.Port, "path", cfg.MCP.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("mcp server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
