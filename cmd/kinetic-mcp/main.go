// Command kinetic-mcp serves the Kinetic MCP tools over stdio, either from
// the configured store or from a remote Kinetic server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/multierr"

	"github.com/claude/kinetic/internal/config"
	kmcp "github.com/claude/kinetic/internal/mcp"
	"github.com/claude/kinetic/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	remote := flag.String("remote", "", "base URL of a Kinetic server, e.g. http://kinetic.tailnet.ts.net")
	apiKey := flag.String("api-key", os.Getenv("KINETIC_API_KEY"), "API key for the remote server")
	identity := flag.String("identity", kmcp.DefaultIdentity, "identity whose data is served (local mode)")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(*configPath, *remote, *apiKey, *identity, log); err != nil {
		log.Error("kinetic-mcp failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, remote, apiKey, identity string, log *slog.Logger) (err error) {
	var ds kmcp.DataSource
	if remote != "" {
		log.Info("remote mode", "url", remote)
		ds = kmcp.NewHTTPClient(remote, apiKey)
	} else {
		store, storeErr := openStore(configPath, log)
		if storeErr != nil {
			return storeErr
		}
		defer multierr.AppendInvoke(&err, multierr.Close(store))
		ds = kmcp.NewLocal(store, storage.NewScheduler(store, log))
		log.Info("local mode", "identity", identity)
	}

	s := kmcp.New(ds, Version, log)
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return kmcp.WithIdentity(ctx, identity)
	}))
}

func openStore(configPath string, log *slog.Logger) (*storage.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	kv, err := storage.Open(context.Background(), storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.Database.DSN(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return storage.New(kv), nil
}
