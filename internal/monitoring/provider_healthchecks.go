package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/wedhazo/nexussentinel/internal/clients"
)

const HEALTHCHECK_INTERVAL = 15 * time.Second

var healthClient = &http.Client{Timeout: 5 * time.Second}

// MonitorFinBERTHealth polls the specialized provider's health endpoint and
// flips the gate the pipeline consults before escalating to the cascade.
func MonitorFinBERTHealth(ctx context.Context, healthURL string, healthy *atomic.Bool) {
	ticker := time.NewTicker(HEALTHCHECK_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			isHealthy := checkFinBERT(ctx, healthURL)
			healthy.Store(isHealthy)
			if !isHealthy {
				slog.Warn("[HealthCheck] FinBERT service is unhealthy")
			}
		}
	}
}

func checkFinBERT(ctx context.Context, healthURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := healthClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// MonitorOpenAIHealth verifies the general model's API is reachable by listing
// available models.
func MonitorOpenAIHealth(ctx context.Context, healthy *atomic.Bool) {
	ticker := time.NewTicker(HEALTHCHECK_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := clients.GetOpenAIClient().Client.ListModels(ctx)
			isHealthy := err == nil
			healthy.Store(isHealthy)
			if !isHealthy {
				slog.Warn("[HealthCheck] OpenAI API is unhealthy",
					slog.String("error", err.Error()))
			}
		}
	}
}
