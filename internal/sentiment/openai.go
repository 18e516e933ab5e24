package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wedhazo/nexussentinel/internal/models"
)

const openAISystemPrompt = `You are a financial sentiment analysis expert. Analyze the given text and determine if it has a positive, neutral, or negative sentiment from a financial perspective.

Focus on financial implications, market reactions, and economic indicators. Consider how the information would likely impact stock prices, investor sentiment, or market conditions.

Provide your analysis in JSON format with the following fields:
- sentiment: "positive", "neutral", or "negative"
- confidence: a number between 0 and 1 indicating your confidence in the assessment
- reasoning: a brief explanation of your reasoning
- entities: a list of financial entities mentioned (companies, symbols, financial instruments)

For entity extraction, include:
- text: the entity text
- type: "company", "symbol", or "financial_instrument"
- confidence: a number between 0 and 1

Respond with JSON only.`

// Generative models are treated as inherently higher-confidence than the
// specialized classifier when they omit a score.
const (
	defaultModelConfidence  = 0.9
	defaultEntityConfidence = 0.8
)

// OpenAIConfig configures the general-model provider adapter.
type OpenAIConfig struct {
	APIKey        string
	Model         string
	FallbackModel string
	MaxTokens     int
	Temperature   float32
}

func (c OpenAIConfig) validate() error {
	if c.APIKey == "" {
		return errors.New("openai: API key is required")
	}
	if c.Model == "" {
		return errors.New("openai: model is required")
	}
	return nil
}

// OpenAIAnalyzer prompts a chat-completion model for structured financial
// sentiment JSON and normalizes the answer.
type OpenAIAnalyzer struct {
	cfg    OpenAIConfig
	client *openai.Client

	retryAttempts int
	retryBase     time.Duration
	retryMax      time.Duration
}

// NewOpenAIAnalyzer validates cfg and wraps the provided client. Passing nil
// builds a client from the config; tests and callers that pool the client
// (clients.GetOpenAIClient) inject their own.
func NewOpenAIAnalyzer(cfg OpenAIConfig, client *openai.Client) (*OpenAIAnalyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = openai.NewClient(cfg.APIKey)
	}

	slog.Info("[OpenAI] Initialized analyzer",
		slog.String("model", cfg.Model),
		slog.String("fallback_model", cfg.FallbackModel))

	return &OpenAIAnalyzer{
		cfg:           cfg,
		client:        client,
		retryAttempts: defaultMaxAttempts,
		retryBase:     defaultBaseBackoff,
		retryMax:      defaultMaxBackoff,
	}, nil
}

type openAISentimentPayload struct {
	Sentiment  string               `json:"sentiment"`
	Confidence *float64             `json:"confidence"`
	Reasoning  string               `json:"reasoning"`
	Entities   []openAIEntityObject `json:"entities"`
}

type openAIEntityObject struct {
	Text       string   `json:"text"`
	Type       string   `json:"type"`
	Confidence *float64 `json:"confidence"`
}

func (o *OpenAIAnalyzer) AnalyzeSentiment(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	if err := req.Validate(); err != nil {
		return models.SentimentResult{}, err
	}

	start := time.Now()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.Text},
	}

	resp, err := withRetry(ctx, o.retryAttempts, o.retryBase, o.retryMax, IsTransient,
		func(ctx context.Context) (openai.ChatCompletionResponse, error) {
			return o.complete(ctx, messages)
		})
	if err != nil {
		slog.Error("[OpenAI] API request failed", slog.String("error", err.Error()))
		return models.SentimentResult{}, err
	}

	if len(resp.Choices) == 0 {
		return models.SentimentResult{}, &ValidationError{
			Provider: "openai", Err: errors.New("response contained no choices"),
		}
	}
	content := resp.Choices[0].Message.Content

	var parsed openAISentimentPayload
	if err := json.Unmarshal([]byte(cleanModelResponse(content)), &parsed); err != nil {
		slog.Error("[OpenAI] Failed to parse model response",
			slog.String("error", err.Error()),
			slog.String("raw_response", content))
		return models.SentimentResult{}, &ValidationError{
			Provider: "openai", RawPayload: content, Err: err,
		}
	}

	confidence := defaultModelConfidence
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	var entities []models.Entity
	if req.ExtractEntities {
		for _, entity := range parsed.Entities {
			entityConfidence := defaultEntityConfidence
			if entity.Confidence != nil {
				entityConfidence = *entity.Confidence
			}
			entities = append(entities, models.Entity{
				Text:       entity.Text,
				Type:       mapEntityType(entity.Type),
				Confidence: clampConfidence(entityConfidence),
			})
		}
	}

	return models.SentimentResult{
		Text:       req.Text,
		Sentiment:  mapSentimentLabel(parsed.Sentiment),
		Confidence: clampConfidence(confidence),
		Source:     "openai",
		Reasoning:  parsed.Reasoning,
		Entities:   entities,
		Metadata: map[string]interface{}{
			"processing_time_ms": time.Since(start).Milliseconds(),
			"model":              resp.Model,
			"tokens_used":        resp.Usage.TotalTokens,
		},
	}, nil
}

// ExtractEntities issues a full minimal sentiment request and keeps only the
// entity list; the model has no cheaper extraction path.
func (o *OpenAIAnalyzer) ExtractEntities(ctx context.Context, text string) ([]models.Entity, error) {
	result, err := o.AnalyzeSentiment(ctx, models.SentimentRequest{Text: text, ExtractEntities: true})
	if err != nil {
		return nil, err
	}
	return result.Entities, nil
}

// complete calls the primary model and, only when the primary rejects the
// request as invalid, retries once with the fallback model. Transport-class
// errors propagate untouched so the retry wrapper handles them instead.
func (o *OpenAIAnalyzer) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (openai.ChatCompletionResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.completionRequest(o.cfg.Model, messages))
	if err != nil && isInvalidRequest(err) && o.cfg.FallbackModel != "" && o.cfg.FallbackModel != o.cfg.Model {
		slog.Warn("[OpenAI] Primary model rejected request, trying fallback",
			slog.String("model", o.cfg.Model),
			slog.String("fallback_model", o.cfg.FallbackModel),
			slog.String("error", err.Error()))
		resp, err = o.client.CreateChatCompletion(ctx, o.completionRequest(o.cfg.FallbackModel, messages))
	}
	if err != nil {
		return openai.ChatCompletionResponse{}, classifyOpenAIError(err)
	}
	return resp, nil
}

func (o *OpenAIAnalyzer) completionRequest(model string, messages []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

// isInvalidRequest matches rejections of the request itself (bad model,
// unsupported parameters), the only case where the fallback model applies.
func isInvalidRequest(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 400 || apiErr.HTTPStatusCode == 404
	}
	return false
}

// classifyOpenAIError wraps retryable upstream conditions as *TransportError.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return &TransportError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		return fmt.Errorf("openai: %w", err)
	}
	// Anything that is not an API error is a network-level failure.
	return &TransportError{Provider: "openai", Err: err}
}

// cleanModelResponse strips markdown code fences some models wrap around JSON.
func cleanModelResponse(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
