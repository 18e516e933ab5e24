package config

import (
	"os"
	"strconv"
	"time"

	"github.com/wedhazo/nexussentinel/internal/sentiment"
)

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// FinBERTConfigFromEnv builds the specialized-provider configuration from the
// environment. Field-name and auth settings only matter for the "custom" variant.
func FinBERTConfigFromEnv() sentiment.FinBERTConfig {
	return sentiment.FinBERTConfig{
		APIKey:          os.Getenv("FINBERT_API_KEY"),
		APIURL:          os.Getenv("FINBERT_API_URL"),
		Provider:        sentiment.FinBERTProvider(getEnv("FINBERT_PROVIDER", "finbrain")),
		Timeout:         time.Duration(getEnvInt("FINBERT_TIMEOUT_SECONDS", 30)) * time.Second,
		AuthMethod:      getEnv("FINBERT_AUTH_METHOD", "bearer"),
		AuthHeader:      getEnv("FINBERT_AUTH_HEADER", "X-API-KEY"),
		LabelField:      getEnv("FINBERT_LABEL_FIELD", "label"),
		ConfidenceField: getEnv("FINBERT_CONFIDENCE_FIELD", "confidence"),
		PositiveLabel:   getEnv("FINBERT_POSITIVE_LABEL", "positive"),
		NeutralLabel:    getEnv("FINBERT_NEUTRAL_LABEL", "neutral"),
		NegativeLabel:   getEnv("FINBERT_NEGATIVE_LABEL", "negative"),
	}
}

// OpenAIConfigFromEnv builds the general-model configuration from the environment.
func OpenAIConfigFromEnv() sentiment.OpenAIConfig {
	return sentiment.OpenAIConfig{
		APIKey:        os.Getenv("OPENAI_API_KEY"),
		Model:         getEnv("OPENAI_MODEL", "gpt-4o"),
		FallbackModel: getEnv("OPENAI_FALLBACK_MODEL", "gpt-3.5-turbo-1106"),
		MaxTokens:     getEnvInt("OPENAI_MAX_TOKENS", 1024),
		Temperature:   float32(getEnvFloat("OPENAI_TEMPERATURE", 0.2)),
	}
}

func EngineConfigFromEnv() sentiment.EngineConfig {
	return sentiment.EngineConfig{
		ConfidenceThreshold: getEnvFloat("SENTIMENT_CONFIDENCE_THRESHOLD", 0.7),
	}
}
