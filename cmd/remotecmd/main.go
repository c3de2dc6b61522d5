package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/remotecmd/internal/audit"
	"github.com/rickgao/remotecmd/internal/config"
	"github.com/rickgao/remotecmd/internal/console"
	"github.com/rickgao/remotecmd/internal/database"
	"github.com/rickgao/remotecmd/internal/remote"
	"github.com/rickgao/remotecmd/internal/server"
	"github.com/rickgao/remotecmd/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "remotecmd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/remotecmd.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr; stdout belongs to the console.
	logger, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting remotecmd",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"servers", len(cfg.Servers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	con := console.New(os.Stdout,
		console.WithLogger(logger),
		console.WithPrompt(cfg.Console.Prompt),
	)

	routerOpts := []remote.Option{remote.WithLogger(logger)}

	if cfg.Audit.Enabled {
		logger.Info("connecting to audit database",
			"host", cfg.Audit.Database.Host,
			"port", cfg.Audit.Database.Port,
			"database", cfg.Audit.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Audit.Database)
		if err != nil {
			return fmt.Errorf("connect audit database: %w", err)
		}
		defer pool.Close()

		if err := audit.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		writer := audit.NewWriter(audit.Config{
			BatchSize:     cfg.Audit.BatchSize,
			FlushInterval: cfg.Audit.FlushInterval,
			BufferSize:    cfg.Audit.BufferSize,
		}, cfg.Instance.ID, pool, logger)
		if err := writer.Start(ctx); err != nil {
			return fmt.Errorf("start audit writer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			writer.Stop(shutdownCtx)
		}()

		routerOpts = append(routerOpts, remote.WithRecorder(writer))
	}

	router := remote.New(con, routerOpts...)

	sup := server.NewSupervisor(cfg.Servers, con, logger)
	for _, srv := range sup.Servers() {
		router.Attach(srv)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sup.Stop(shutdownCtx); err != nil {
			logger.Warn("server shutdown incomplete", "error", err)
		}
	}()

	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("start servers: %w", err)
	}

	con.Println(version.Banner())
	con.Println(`Type "help" for help.`)

	if err := con.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		return err
	}

	stats := router.Stats()
	logger.Info("shutting down",
		"commands", stats.Commands,
		"forwarded", stats.Forwarded,
		"unrecognized", stats.Unrecognized,
		"invalid_server", stats.InvalidServer,
	)
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
}
