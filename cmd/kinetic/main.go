package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"go.uber.org/multierr"
	"tailscale.com/tsnet"

	"github.com/claude/kinetic/internal/author"
	"github.com/claude/kinetic/internal/config"
	"github.com/claude/kinetic/internal/logging"
	kmcp "github.com/claude/kinetic/internal/mcp"
	"github.com/claude/kinetic/internal/metrics"
	"github.com/claude/kinetic/internal/server"
	"github.com/claude/kinetic/internal/session"
	"github.com/claude/kinetic/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (empty for defaults and env only)")
	migrateOnly := flag.Bool("migrate-only", false, "prepare the store schema and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logFile := logging.New(cfg.Log)
	if err := run(cfg, *migrateOnly, log); err != nil {
		log.Error("kinetic failed", "error", err)
		logFile.Close()
		os.Exit(1)
	}
	logFile.Close()
}

func run(cfg *config.Config, migrateOnly bool, log *slog.Logger) (err error) {
	log.Info("Kinetic starting", "version", Version, "storage", cfg.Storage.Driver)

	opts := storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.Database.DSN(),
	}
	if migrateOnly {
		if opts.Driver == "postgres" {
			if err := storage.RunMigrations(opts.DSN); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info("migrations applied")
			return nil
		}
		kv, err := storage.Open(context.Background(), opts, log)
		if err != nil {
			return err
		}
		log.Info("migrate-only: store ready, exiting")
		return kv.Close()
	}

	ctx := context.Background()
	kv, err := storage.Open(ctx, opts, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store := storage.New(kv)
	defer multierr.AppendInvoke(&err, multierr.Close(store))
	log.Info("store opened")

	scheduler := storage.NewScheduler(store, log)
	sessions := session.NewManager(store, session.Policy(cfg.Session.Policy), log)
	authorClient := author.NewClient(author.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, log)
	if !authorClient.Available() {
		log.Warn("ai.api_key not set, program authoring disabled")
	}

	registry := metrics.NewRegistry()
	mgr := metrics.NewManager("kinetic", "server", registry, func() float64 {
		return float64(sessions.Active())
	})
	if pg, ok := kv.(*storage.Postgres); ok {
		registry.MustRegister(pgxpoolprometheus.NewCollector(pg.Pool, map[string]string{"db_name": cfg.Storage.Database.Name}))
	}

	mcpServer := kmcp.New(kmcp.NewLocal(store, scheduler), Version, log)

	srv := server.New(server.Deps{
		Store:     store,
		Scheduler: scheduler,
		Sessions:  sessions,
		Author:    authorClient,
		Metrics:   mgr,
		Registry:  registry,
		MCP:       mcpServer,
		APIKey:    cfg.Auth.APIKey,
		Log:       log,
	})

	// Listen on the tailnet or plain TCP.
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start failed: %w", err)
		}
		defer multierr.AppendInvoke(&err, multierr.Close(tsServer))

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client failed: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen failed: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s failed: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if n := sessions.Active(); n > 0 {
		log.Warn("unfinished workout sessions dropped", "count", n)
	}
	log.Info("server stopped")
	return nil
}
