package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/wedhazo/nexussentinel/internal/models"
)

func TestEngineAnalyzeConsensus(t *testing.T) {
	req := models.SentimentRequest{Text: "AMZN margins expanding"}

	t.Run("agreement floors confidence at 0.8", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentPositive, 0.65)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Sentiment != models.SentimentPositive {
			t.Errorf("sentiment = %s, want positive", result.Sentiment)
		}
		if result.Confidence != 0.8 {
			t.Errorf("confidence = %v, want floored 0.8", result.Confidence)
		}
		if result.Source != "consensus" {
			t.Errorf("source = %s, want consensus", result.Source)
		}
	})

	t.Run("agreement keeps a higher specialized confidence", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentNegative, 0.95)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentNegative, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Confidence != 0.95 {
			t.Errorf("confidence = %v, want 0.95", result.Confidence)
		}
	})

	t.Run("disagreement trusts a confident specialized answer", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentNegative, 0.7)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Sentiment != models.SentimentNegative || result.Confidence != 0.7 {
			t.Errorf("got %s at %v, want negative at 0.7", result.Sentiment, result.Confidence)
		}
	})

	t.Run("disagreement with weak specialized answer defers to general model", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentNeutral, 0.45)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Sentiment != models.SentimentPositive {
			t.Errorf("sentiment = %s, want the general model's positive", result.Sentiment)
		}
		if result.Confidence != consensusFallbackConfidence {
			t.Errorf("confidence = %v, want fixed %v", result.Confidence, consensusFallbackConfidence)
		}
	})

	t.Run("general reasoning and entities are carried", func(t *testing.T) {
		generalResult := stubResult("openai", models.SentimentPositive, 0.9)
		generalResult.Reasoning = "strong guidance"
		generalResult.Entities = []models.Entity{{Text: "AMZN", Type: models.EntitySymbol, Confidence: 0.95}}

		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentPositive, 0.85)}
		general := &stubAnalyzer{result: generalResult}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Reasoning != "strong guidance" {
			t.Errorf("reasoning = %q", result.Reasoning)
		}
		if len(result.Entities) != 1 || result.Entities[0].Text != "AMZN" {
			t.Errorf("unexpected entities: %+v", result.Entities)
		}
		if result.Metadata["specialized_confidence"] != 0.85 {
			t.Errorf("metadata should record the specialized confidence, got %v", result.Metadata)
		}
	})

	t.Run("general model answers alone at fixed confidence", func(t *testing.T) {
		specialized := &stubAnalyzer{err: &TransportError{Provider: "finbert", StatusCode: 503}}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentNegative, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Sentiment != models.SentimentNegative {
			t.Errorf("sentiment = %s, want negative", result.Sentiment)
		}
		if result.Confidence != consensusFallbackConfidence {
			t.Errorf("confidence = %v, want fixed %v", result.Confidence, consensusFallbackConfidence)
		}
	})

	t.Run("specialized model answers alone unchanged", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentNeutral, 0.55)}
		general := &stubAnalyzer{err: &TransportError{Provider: "openai", StatusCode: 500}}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeConsensus(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeConsensus failed: %v", err)
		}
		if result.Sentiment != models.SentimentNeutral || result.Confidence != 0.55 {
			t.Errorf("got %s at %v, want the specialized answer untouched", result.Sentiment, result.Confidence)
		}
	})

	t.Run("both failing is terminal", func(t *testing.T) {
		specialized := &stubAnalyzer{err: &TransportError{Provider: "finbert", StatusCode: 503}}
		general := &stubAnalyzer{err: &TransportError{Provider: "openai", StatusCode: 500}}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		_, err := engine.AnalyzeConsensus(context.Background(), req)
		if !errors.Is(err, ErrBothProvidersUnavailable) {
			t.Errorf("errors.Is(err, ErrBothProvidersUnavailable) = false for %v", err)
		}
	})
}
