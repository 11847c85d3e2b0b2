/*
Package main is the entry point for the presence hub.

It loads configuration, initialises logging, restores the last state
snapshot, starts the message bus, the supervisory relay task, and the
periodic snapshotter, then serves HTTP (health, metrics, cosmetics,
broadcast, admin API, websocket upgrade) until an interrupt arrives and the
final snapshot is written.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"prismhub/internal/app/hub"
	"prismhub/internal/app/identity"
	"prismhub/internal/app/irc"
	"prismhub/internal/app/metrics"
	"prismhub/internal/app/store"
	"prismhub/internal/configs"
	"prismhub/internal/handler"
	"prismhub/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	development := cfg.Environment == "development"

	logx.InitGlobalLogger(development)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("snapshot_file", cfg.SnapshotFile).
		Int("ratelimit_per_minute", cfg.RatelimitPerMinute).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New()
	st.Restore(store.LoadSnapshot(cfg.SnapshotFile))
	logx.Info("State snapshot restored",
		"users", st.UserCount(), "cosmetics", st.CosmeticCount())

	m := metrics.New(st)
	bus := hub.NewBus()
	verifier := identity.NewMojang(cfg.MojangSessionURL, cfg.MojangProfileURL, development)

	h := hub.NewHub(st, bus, verifier, hub.Config{
		RatelimitPerMinute: cfg.RatelimitPerMinute,
		Inbound:            m.InboundMessages,
	})

	var sink irc.Sink = irc.Discard{}
	if cfg.DiscordWebhookURL != "" {
		sink = irc.NewWebhook(cfg.DiscordWebhookURL)
	} else {
		logx.Warn("No DISCORD_WEBHOOK_URL configured; chat relay is local-only")
	}

	var background sync.WaitGroup

	background.Add(1)
	go func() {
		defer background.Done()
		hub.NewRelay(st, bus, sink, verifier).Run(ctx)
	}()

	background.Add(1)
	go func() {
		defer background.Done()
		st.RunSnapshotter(ctx, cfg.SnapshotFile, cfg.SnapshotInterval)
	}()

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     handler.Router(&handler.AppDeps{Hub: h, Store: st, Config: cfg, Metrics: m}),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logx.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Relay task and snapshotter stop on ctx cancellation; the snapshotter
	// writes the final snapshot on its way out.
	background.Wait()

	logx.Info("Server gracefully stopped.")
}
