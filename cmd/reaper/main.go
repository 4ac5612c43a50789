// Command reaper cancels pending bookings that were never paid and hands
// confirmations that stalled after payment to the operators. It runs once and
// exits, so schedule it from cron or a job runner.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventzo/internal/config"
	"github.com/joshua-takyi/eventzo/internal/container"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ttl := flag.Duration("ttl", cfg.PendingBookingTTL, "cancel pending bookings older than this")
	grace := flag.Duration("grace", cfg.ConfirmationGrace, "flag payment_verified bookings idle for longer than this")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "eventzo-reaper")
	if cfg.StoreDriver == config.StoreMemory {
		logger.Error("reaper needs a persistent store, STORE_DRIVER is memory")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := container.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	escalated, err := c.BookingService.EscalateStuckConfirmations(ctx, *grace)
	if err != nil {
		logger.Error("failed to escalate stalled confirmations", "error", err)
		os.Exit(1)
	}

	n, err := c.BookingService.ExpireStalePending(ctx, *ttl)
	if err != nil {
		logger.Error("failed to expire pending bookings", "error", err)
		os.Exit(1)
	}
	logger.Info("reaper finished",
		"cancelled", n,
		"escalated", escalated,
		"ttl", ttl.String(),
		"grace", grace.String(),
	)
}
