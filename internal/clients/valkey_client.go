package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/wedhazo/nexussentinel/internal/models"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

type ValkeyClient struct {
	Client valkey.Client
	mu     sync.Mutex
}

const (
	sentimentCachePrefix = "sentiment:"
	processedKeyTTL      = 86400
)

func valkeyOptions() valkey.ClientOption {
	opts := valkey.ClientOption{
		InitAddress:      []string{os.Getenv("VALKEY_INIT_ADDRESS")},
		Password:         os.Getenv("VALKEY_PASSWORD"),
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if os.Getenv("VALKEY_TLS") == "true" {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}
	return opts
}

func InitValkey() *ValkeyClient {
	valkeyOnce.Do(func() {
		client, err := valkey.NewClient(valkeyOptions())
		if err != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if c := client.Do(ctx, client.B().Ping().Build()); c.Error() != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey")
		valkeyInstance = &ValkeyClient{Client: client}
	})
	return valkeyInstance
}

func GetValkeyClient() *ValkeyClient {
	if valkeyInstance == nil {
		panic("[ValkeyClient] Error: Valkey client is not initialized")
	}
	return valkeyInstance
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.Client.Close()
	}
}

func (vc *ValkeyClient) recreateClient() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ValkeyClient] Recreate failed and was recovered from panic",
				slog.Any("panic", r))
		}
	}()

	vc.mu.Lock()
	defer vc.mu.Unlock()
	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	vc.Client.Close()

	client, err := valkey.NewClient(valkeyOptions())
	if err != nil {
		panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if c := client.Do(ctx, client.B().Ping().Build()); c.Error() != nil {
		panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
	}

	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
	vc.Client = client
}

func processedSetKey(source string) string {
	return source + ":processed_posts"
}

// MarkProcessed records that a piece of content has already entered the
// pipeline so collectors skip it for a day.
func (vc *ValkeyClient) MarkProcessed(ctx context.Context, source string, key string) error {
	setKey := processedSetKey(source)
	completed := []valkey.Completed{
		vc.Client.B().Sadd().Key(setKey).Member(key).Build(),
		vc.Client.B().Expire().Key(setKey).Seconds(processedKeyTTL).Build(),
	}

	responses := vc.DoMultiWithRetry(ctx, completed, 3)
	for _, res := range responses {
		if err := res.Error(); err != nil {
			return err
		}
	}

	slog.Debug("[ValkeyClient] Marked content as processed",
		slog.String("source", source),
		slog.String("key", key))
	return nil
}

func (vc *ValkeyClient) IsContentProcessed(ctx context.Context, source string, key string) bool {
	res := vc.DoWithRetry(ctx, vc.Client.B().Sismember().Key(processedSetKey(source)).Member(key).Build(), 3)

	if err := res.Error(); isConnectionError(err) {
		vc.recreateClient()
	}

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

// GetResult implements sentiment.ResultCache. Any failure reports a miss.
func (vc *ValkeyClient) GetResult(ctx context.Context, key string) (models.SentimentResult, bool) {
	res := vc.DoWithRetry(ctx, vc.Client.B().Get().Key(sentimentCachePrefix+key).Build(), 3)
	if err := res.Error(); err != nil {
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return models.SentimentResult{}, false
	}

	raw, err := res.AsBytes()
	if err != nil {
		return models.SentimentResult{}, false
	}

	var result models.SentimentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("[ValkeyClient] Failed to decode cached sentiment result",
			slog.String("error", err.Error()))
		return models.SentimentResult{}, false
	}
	return result, true
}

// SetResult implements sentiment.ResultCache.
func (vc *ValkeyClient) SetResult(ctx context.Context, key string, result models.SentimentResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	res := vc.DoWithRetry(ctx,
		vc.Client.B().Set().Key(sentimentCachePrefix+key).Value(string(data)).ExSeconds(int64(ttl.Seconds())).Build(), 3)
	return res.Error()
}

func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, completed []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.Client.DoMulti(ctx, completed...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				if isConnectionError(r.Error()) {
					vc.recreateClient()
				}
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(time.Millisecond * 250)
	}

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, completed)
		if result.Error() == nil {
			return result
		}
		if !isConnectionError(result.Error()) {
			return result
		}
		slog.Warn("[ValkeyClient] Command failed, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))
		time.Sleep(time.Millisecond * 250)
	}
	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF")
}
