package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/infodancer/ftpd/internal/config"
	"github.com/infodancer/ftpd/internal/ftp"
	"github.com/infodancer/ftpd/internal/logging"
	"github.com/infodancer/ftpd/internal/metrics"
	"github.com/infodancer/ftpd/internal/server"
	"github.com/infodancer/ftpd/internal/userdb"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	logger := logging.NewLogger(cfg.LogLevel)

	// Resolve the server root to a canonical path; per-user jails are
	// created under it at first login.
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving root: %v\n", err)
		os.Exit(1)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving root %q: %v\n", cfg.Root, err)
		os.Exit(1)
	}

	// Load the credential store; failure here is fatal.
	users, err := userdb.Load(cfg.UsersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading credentials: %v\n", err)
		os.Exit(1)
	}
	logger.Info("credentials loaded", "path", cfg.UsersFile, "users", users.Len())

	// Set up metrics collector
	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		collector = metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	// Watch the credential file if configured
	if cfg.Users.Watch {
		go func() {
			if err := users.Watch(ctx, cfg.UsersFile, logger); err != nil && err != context.Canceled {
				logger.Error("credential watcher stopped", "error", err)
			}
		}()
		logger.Info("credential watcher started", "path", cfg.UsersFile)
	}

	// Start metrics server if enabled
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewPrometheusServer(cfg.Metrics.Address, cfg.Metrics.Path)
		go func() {
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics server started", "address", cfg.Metrics.Address, "path", cfg.Metrics.Path)
	}

	if cfg.Data.Ephemeral {
		// Deviates from strict RFC 959 active mode, which fixes the data
		// source port at 20.
		logger.Warn("using ephemeral data source ports")
	}

	handler := ftp.Handler(ftp.Config{
		Root:       root,
		Users:      users,
		SourcePort: cfg.DataSourcePort(),
		Collector:  collector,
	})

	srv, err := server.New(server.Config{
		Addr:           cfg.Listen,
		MaxSessions:    cfg.Limits.MaxSessions,
		CommandTimeout: cfg.Timeouts.CommandTimeout(),
		IdleTimeout:    cfg.Timeouts.IdleTimeout(),
		Logger:         logger,
		Handler:        handler,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting ftpd",
		"hostname", cfg.Hostname,
		"listen", cfg.Listen,
		"root", root)

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("FTP server stopped")
}
