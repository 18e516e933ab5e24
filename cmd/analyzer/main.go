package main

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/wedhazo/nexussentinel/config"
	"github.com/wedhazo/nexussentinel/internal/clients"
	"github.com/wedhazo/nexussentinel/internal/clients/kafka_client"
	"github.com/wedhazo/nexussentinel/internal/consumers"
	"github.com/wedhazo/nexussentinel/internal/db"
	"github.com/wedhazo/nexussentinel/internal/logging"
	"github.com/wedhazo/nexussentinel/internal/monitoring"
	"github.com/wedhazo/nexussentinel/internal/sentiment"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
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

	valkey := clients.InitValkey()
	defer clients.CloseValkey()

	db.InitDynamoDB()

	finbert, err := sentiment.NewFinBERTAnalyzer(config.FinBERTConfigFromEnv())
	if err != nil {
		slog.Error("[Main] Failed to build FinBERT analyzer",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	general, err := sentiment.NewOpenAIAnalyzer(config.OpenAIConfigFromEnv(), clients.GetOpenAIClient().Client)
	if err != nil {
		slog.Error("[Main] Failed to build OpenAI analyzer",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine, err := sentiment.NewEngine(finbert, general, config.EngineConfigFromEnv())
	if err != nil {
		slog.Error("[Main] Failed to build sentiment engine",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	consumers.InitPipeline(sentiment.NewCachedEngine(engine, valkey), sentiment.NewVADERAnalyzer())

	finbertHealthy := &atomic.Bool{}
	openAIHealthy := &atomic.Bool{}
	finbertHealthy.Store(true)
	openAIHealthy.Store(true)

	if healthURL := os.Getenv("FINBERT_HEALTH_URL"); healthURL != "" {
		go monitoring.MonitorFinBERTHealth(ctx, healthURL, finbertHealthy)
	}
	go monitoring.MonitorOpenAIHealth(ctx, openAIHealthy)

	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_RAW_CONTENT, consumers.WrapConsumer(
		consumers.StartContentConsumer, finbertHealthy, openAIHealthy).Handler())
	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_SENTIMENT_RESULTS, consumers.StartResultsConsumer)

	if err := kafka_client.StartConsumer(ctx, cfg); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}
