package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"profit_go/internal/app"
	"profit_go/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", infra.DefaultConfigPath, "path to the YAML config file")
	pprofAddr := flag.String("pprof", "localhost:6060", "pprof listen address, empty to disable")
	flag.Parse()

	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, *configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 3. Pprof Server (for performance profiling)
	if *pprofAddr != "" {
		go func() {
			// Localhost only for security
			slog.Info("🕵️ Pprof server started", slog.String("addr", *pprofAddr))
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	// 4. Status Server
	cfg := bootstrap.Config
	if cfg.Status.Addr != "" {
		status := infra.NewStatusServer(cfg.Status.Addr, bootstrap.Metrics,
			infra.WithIntents(bootstrap.Storage),
			infra.WithTokens(bootstrap.Tokens),
			infra.WithCanceller(bootstrap.Orders),
		)
		status.Start(ctx)
	}

	// 5. Token metadata for held mints (Loading Screen logic)
	bootstrap.SyncTokens(ctx)

	slog.InfoContext(ctx, "✨ Profit Go fully operational. Press Ctrl+C to exit.")

	// 6. Supervisor loop; returns only on shutdown
	bootstrap.Supervisor.Run(ctx)

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
