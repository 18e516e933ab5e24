package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wedhazo/nexussentinel/internal/models"
)

const finbertUserAgent = "nexussentinel-client/1.0 (+https://github.com/wedhazo/nexussentinel)"

// FinBERTProvider selects the upstream response shape.
type FinBERTProvider string

const (
	ProviderFinBrain FinBERTProvider = "finbrain"
	ProviderFinGPT   FinBERTProvider = "fingpt"
	ProviderCustom   FinBERTProvider = "custom"
)

// FinBERTConfig configures the specialized provider adapter. The AuthMethod,
// AuthHeader and *Field/*Label settings apply to the custom variant only, where
// the upstream schema is not fixed.
type FinBERTConfig struct {
	APIKey   string
	APIURL   string
	Provider FinBERTProvider
	Timeout  time.Duration

	AuthMethod      string
	AuthHeader      string
	LabelField      string
	ConfidenceField string
	PositiveLabel   string
	NeutralLabel    string
	NegativeLabel   string
}

func (c FinBERTConfig) validate() error {
	if c.APIKey == "" {
		return errors.New("finbert: API key is required")
	}
	if c.APIURL == "" {
		return errors.New("finbert: API URL is required")
	}
	switch c.Provider {
	case ProviderFinBrain, ProviderFinGPT:
	case ProviderCustom:
		if c.LabelField == "" || c.ConfidenceField == "" {
			return errors.New("finbert: custom provider requires label and confidence field names")
		}
		if c.PositiveLabel == "" || c.NeutralLabel == "" || c.NegativeLabel == "" {
			return errors.New("finbert: custom provider requires positive/neutral/negative label strings")
		}
	default:
		return fmt.Errorf("finbert: unsupported provider %q", c.Provider)
	}
	return nil
}

// FinBERTAnalyzer calls a financial sentiment classification endpoint and
// normalizes its response into the canonical result shape.
type FinBERTAnalyzer struct {
	cfg    FinBERTConfig
	client *http.Client

	retryAttempts int
	retryBase     time.Duration
	retryMax      time.Duration
}

func NewFinBERTAnalyzer(cfg FinBERTConfig) (*FinBERTAnalyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	slog.Info("[FinBERT] Initialized analyzer",
		slog.String("provider", string(cfg.Provider)),
		slog.Duration("timeout", cfg.Timeout))

	return &FinBERTAnalyzer{
		cfg:           cfg,
		client:        &http.Client{Timeout: cfg.Timeout},
		retryAttempts: defaultMaxAttempts,
		retryBase:     defaultBaseBackoff,
		retryMax:      defaultMaxBackoff,
	}, nil
}

func (f *FinBERTAnalyzer) AnalyzeSentiment(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	if err := req.Validate(); err != nil {
		return models.SentimentResult{}, err
	}

	start := time.Now()

	raw, err := withRetry(ctx, f.retryAttempts, f.retryBase, f.retryMax, IsTransient,
		func(ctx context.Context) ([]byte, error) {
			return f.post(ctx, f.buildPayload(req))
		})
	if err != nil {
		slog.Error("[FinBERT] API request failed",
			slog.String("provider", string(f.cfg.Provider)),
			slog.String("error", err.Error()))
		return models.SentimentResult{}, err
	}

	label, confidence, err := f.parseResponse(raw)
	if err != nil {
		slog.Error("[FinBERT] Failed to parse response",
			slog.String("error", err.Error()))
		return models.SentimentResult{}, err
	}

	var entities []models.Entity
	if req.ExtractEntities {
		entities = ExtractFinancialEntities(req.Text)
	}

	return models.SentimentResult{
		Text:       req.Text,
		Sentiment:  label,
		Confidence: clampConfidence(confidence),
		Source:     "finbert",
		Entities:   entities,
		Metadata: map[string]interface{}{
			"processing_time_ms": time.Since(start).Milliseconds(),
			"provider":           string(f.cfg.Provider),
			"raw_response":       string(raw),
		},
	}, nil
}

// ExtractEntities runs the local heuristic passes; no remote call is involved.
func (f *FinBERTAnalyzer) ExtractEntities(_ context.Context, text string) ([]models.Entity, error) {
	return ExtractFinancialEntities(text), nil
}

func (f *FinBERTAnalyzer) buildPayload(req models.SentimentRequest) map[string]interface{} {
	switch f.cfg.Provider {
	case ProviderFinBrain:
		return map[string]interface{}{"text": req.Text}
	case ProviderFinGPT:
		return map[string]interface{}{"text": req.Text, "model": "sentiment"}
	default:
		payload := map[string]interface{}{"text": req.Text}
		for k, v := range req.Metadata {
			payload[k] = v
		}
		return payload
	}
}

func (f *FinBERTAnalyzer) authHeader() (string, string) {
	switch f.cfg.Provider {
	case ProviderFinBrain:
		return "X-API-KEY", f.cfg.APIKey
	case ProviderFinGPT:
		return "Authorization", "Bearer " + f.cfg.APIKey
	default:
		switch strings.ToLower(f.cfg.AuthMethod) {
		case "bearer":
			return "Authorization", "Bearer " + f.cfg.APIKey
		case "api-key", "apikey":
			return "X-API-KEY", f.cfg.APIKey
		default:
			return f.cfg.AuthHeader, f.cfg.APIKey
		}
	}
}

// post issues one HTTP attempt. Network failures and non-2xx statuses come
// back as *TransportError so the retry wrapper can tell them apart from
// payload problems.
func (f *FinBERTAnalyzer) post(ctx context.Context, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("finbert: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("finbert: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", finbertUserAgent)
	req.Header.Set(f.authHeader())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: "finbert", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: "finbert", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Provider: "finbert", StatusCode: resp.StatusCode}
	}

	return respBody, nil
}

func (f *FinBERTAnalyzer) parseResponse(raw []byte) (models.SentimentLabel, float64, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.SentimentUnknown, 0, &ValidationError{
			Provider: "finbert", RawPayload: string(raw), Err: err,
		}
	}

	var rawLabel string
	var confidence float64
	var ok bool

	switch f.cfg.Provider {
	case ProviderFinBrain:
		rawLabel, ok = stringField(data, "sentiment")
		if !ok {
			return models.SentimentUnknown, 0, &ValidationError{
				Provider: "finbert", RawPayload: string(raw),
				Err: errors.New("missing sentiment field"),
			}
		}
		confidence, ok = floatField(data, "confidence")
		if !ok {
			return models.SentimentUnknown, 0, &ValidationError{
				Provider: "finbert", RawPayload: string(raw),
				Err: errors.New("missing confidence field"),
			}
		}
	case ProviderFinGPT:
		rawLabel, ok = stringField(data, "label")
		if !ok {
			return models.SentimentUnknown, 0, &ValidationError{
				Provider: "finbert", RawPayload: string(raw),
				Err: errors.New("missing label field"),
			}
		}
		confidence, ok = floatField(data, "score")
		if !ok {
			return models.SentimentUnknown, 0, &ValidationError{
				Provider: "finbert", RawPayload: string(raw),
				Err: errors.New("missing score field"),
			}
		}
	default:
		fieldValue, found := stringField(data, f.cfg.LabelField)
		if !found {
			return models.SentimentUnknown, 0, &ValidationError{
				Provider: "finbert", RawPayload: string(raw),
				Err: fmt.Errorf("missing %s field", f.cfg.LabelField),
			}
		}
		rawLabel = f.mapCustomLabel(fieldValue)
		confidence, ok = floatField(data, f.cfg.ConfidenceField)
		if !ok {
			return models.SentimentUnknown, 0, &ValidationError{
				Provider: "finbert", RawPayload: string(raw),
				Err: fmt.Errorf("missing %s field", f.cfg.ConfidenceField),
			}
		}
	}

	return mapSentimentLabel(rawLabel), confidence, nil
}

// mapCustomLabel resolves the configured upstream label strings to canonical
// values; anything unmapped stays unknown.
func (f *FinBERTAnalyzer) mapCustomLabel(raw string) string {
	switch strings.ToLower(raw) {
	case strings.ToLower(f.cfg.PositiveLabel):
		return string(models.SentimentPositive)
	case strings.ToLower(f.cfg.NeutralLabel):
		return string(models.SentimentNeutral)
	case strings.ToLower(f.cfg.NegativeLabel):
		return string(models.SentimentNegative)
	default:
		return string(models.SentimentUnknown)
	}
}

func stringField(data map[string]interface{}, key string) (string, bool) {
	value, ok := data[key].(string)
	return value, ok
}

func floatField(data map[string]interface{}, key string) (float64, bool) {
	switch value := data[key].(type) {
	case float64:
		return value, true
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(value, "%f", &parsed); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
