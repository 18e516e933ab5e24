package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/wedhazo/nexussentinel/internal/models"
)

const resultCacheTTL = time.Hour

// ResultCache is the cache-aside store for engine results. The Valkey client
// implements it; lookups that fail for any reason report a miss so a cache
// outage never fails a request.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (models.SentimentResult, bool)
	SetResult(ctx context.Context, key string, result models.SentimentResult, ttl time.Duration) error
}

// CachedEngine wraps the cascade with a cache keyed by the request text.
type CachedEngine struct {
	engine *Engine
	cache  ResultCache
}

func NewCachedEngine(engine *Engine, cache ResultCache) *CachedEngine {
	return &CachedEngine{engine: engine, cache: cache}
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(text)))
	return hex.EncodeToString(hash[:])
}

func (c *CachedEngine) Analyze(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	if err := req.Validate(); err != nil {
		return models.SentimentResult{}, err
	}

	key := cacheKey(req.Text)
	if result, ok := c.cache.GetResult(ctx, key); ok {
		slog.Debug("[SentimentCache] Cache hit", slog.String("key", key))
		return result, nil
	}

	result, err := c.engine.Analyze(ctx, req)
	if err != nil {
		return models.SentimentResult{}, err
	}

	if err := c.cache.SetResult(ctx, key, result, resultCacheTTL); err != nil {
		slog.Warn("[SentimentCache] Failed to store result",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return result, nil
}

// AnalyzeConsensus is passed through uncached; consensus calls are rare and
// callers asking for two live opinions should not get a stale blend.
func (c *CachedEngine) AnalyzeConsensus(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	return c.engine.AnalyzeConsensus(ctx, req)
}
