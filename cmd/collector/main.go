package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wedhazo/nexussentinel/config"
	"github.com/wedhazo/nexussentinel/internal/clients"
	"github.com/wedhazo/nexussentinel/internal/clients/kafka_client"
	"github.com/wedhazo/nexussentinel/internal/collector"
	"github.com/wedhazo/nexussentinel/internal/logging"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := kafka_client.GetKafkaConfig()
	for {
		err := kafka_client.InitProducer(cfg)
		if err == nil {
			break
		}

		slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
		time.Sleep(5 * time.Second)
	}
	defer kafka_client.CloseProducer()

	clients.InitValkey()
	defer clients.CloseValkey()

	fetchInterval, err := strconv.Atoi(os.Getenv("REDDIT_FETCH_INTERVAL"))
	if err != nil {
		fetchInterval = 1800 // every 30 minutes (in seconds)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Duration(fetchInterval) * time.Second)
	defer ticker.Stop()

	// Fetch once on startup before settling into the interval.
	collector.FetchRedditContentForWatchlist(ctx)

	for {
		select {
		case <-ticker.C:
			collector.FetchRedditContentForWatchlist(ctx)
		case <-ctx.Done():
			slog.Info("Shutting down collector gracefully...")
			return
		}
	}
}
