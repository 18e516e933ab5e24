package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/wedhazo/nexussentinel/internal/models"
)

// stubAnalyzer is a canned provider for orchestration tests.
type stubAnalyzer struct {
	result models.SentimentResult
	err    error
	calls  int
}

func (s *stubAnalyzer) AnalyzeSentiment(_ context.Context, _ models.SentimentRequest) (models.SentimentResult, error) {
	s.calls++
	if s.err != nil {
		return models.SentimentResult{}, s.err
	}
	return s.result, nil
}

func (s *stubAnalyzer) ExtractEntities(_ context.Context, _ string) ([]models.Entity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result.Entities, nil
}

func stubResult(source string, label models.SentimentLabel, confidence float64) models.SentimentResult {
	return models.SentimentResult{
		Text:       "some text",
		Sentiment:  label,
		Confidence: confidence,
		Source:     source,
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects missing providers", func(t *testing.T) {
		if _, err := NewEngine(nil, &stubAnalyzer{}, EngineConfig{}); err == nil {
			t.Error("expected error for nil specialized provider")
		}
		if _, err := NewEngine(&stubAnalyzer{}, nil, EngineConfig{}); err == nil {
			t.Error("expected error for nil general provider")
		}
	})

	t.Run("rejects threshold above one", func(t *testing.T) {
		if _, err := NewEngine(&stubAnalyzer{}, &stubAnalyzer{}, EngineConfig{ConfidenceThreshold: 1.5}); err == nil {
			t.Error("expected error for threshold > 1.0")
		}
	})

	t.Run("defaults threshold when unset", func(t *testing.T) {
		engine, err := NewEngine(&stubAnalyzer{}, &stubAnalyzer{}, EngineConfig{})
		if err != nil {
			t.Fatalf("NewEngine failed: %v", err)
		}
		if engine.threshold != defaultConfidenceThreshold {
			t.Errorf("threshold = %v, want %v", engine.threshold, defaultConfidenceThreshold)
		}
	})
}

func TestEngineAnalyze(t *testing.T) {
	req := models.SentimentRequest{Text: "TSLA deliveries beat estimates"}

	t.Run("confident specialized result short-circuits", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentPositive, 0.92)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentNegative, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if result.Source != "finbert" || result.Confidence != 0.92 {
			t.Errorf("got %s result at %v, want finbert at 0.92", result.Source, result.Confidence)
		}
		if general.calls != 0 {
			t.Errorf("general provider called %d times, want 0", general.calls)
		}
	})

	t.Run("low confidence escalates to general model", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentNeutral, 0.55)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if result.Source != "openai" {
			t.Errorf("result source = %s, want openai", result.Source)
		}
		if general.calls != 1 {
			t.Errorf("general provider called %d times, want 1", general.calls)
		}
	})

	t.Run("threshold comparison is inclusive", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentPositive, 0.7)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if result.Source != "finbert" {
			t.Errorf("confidence equal to threshold should not escalate, got %s", result.Source)
		}
	})

	t.Run("per-call threshold overrides the default", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentPositive, 0.65)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.AnalyzeWithThreshold(context.Background(), req, 0.6)
		if err != nil {
			t.Fatalf("AnalyzeWithThreshold failed: %v", err)
		}
		if result.Source != "finbert" {
			t.Errorf("result source = %s, want finbert at lowered threshold", result.Source)
		}
	})

	t.Run("specialized failure escalates to general model", func(t *testing.T) {
		specialized := &stubAnalyzer{err: &TransportError{Provider: "finbert", StatusCode: 503}}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentNegative, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if result.Source != "openai" {
			t.Errorf("result source = %s, want openai", result.Source)
		}
	})

	t.Run("low-confidence specialized result survives general failure", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentNeutral, 0.4)}
		general := &stubAnalyzer{err: &TransportError{Provider: "openai", StatusCode: 500}}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		result, err := engine.Analyze(context.Background(), req)
		if err != nil {
			t.Fatalf("expected the low-confidence result, got error: %v", err)
		}
		if result.Source != "finbert" || result.Confidence != 0.4 {
			t.Errorf("got %s at %v, want finbert at 0.4", result.Source, result.Confidence)
		}
	})

	t.Run("both providers failing is terminal", func(t *testing.T) {
		specializedErr := &TransportError{Provider: "finbert", StatusCode: 503}
		generalErr := &TransportError{Provider: "openai", StatusCode: 500}
		engine, _ := NewEngine(&stubAnalyzer{err: specializedErr}, &stubAnalyzer{err: generalErr}, EngineConfig{})

		_, err := engine.Analyze(context.Background(), req)
		if err == nil {
			t.Fatal("expected terminal error")
		}
		if !errors.Is(err, ErrBothProvidersUnavailable) {
			t.Errorf("errors.Is(err, ErrBothProvidersUnavailable) = false for %v", err)
		}

		var cascadeErr *CascadeError
		if !errors.As(err, &cascadeErr) {
			t.Fatalf("expected *CascadeError, got %T", err)
		}
		if cascadeErr.SpecializedErr != error(specializedErr) || cascadeErr.GeneralErr != error(generalErr) {
			t.Error("cascade error should carry both provider errors")
		}
		if !errors.Is(err, error(generalErr)) {
			t.Error("cascade error should unwrap to the general provider's error")
		}
	})

	t.Run("invalid request never reaches a provider", func(t *testing.T) {
		specialized := &stubAnalyzer{result: stubResult("finbert", models.SentimentPositive, 0.9)}
		general := &stubAnalyzer{result: stubResult("openai", models.SentimentPositive, 0.9)}
		engine, _ := NewEngine(specialized, general, EngineConfig{})

		if _, err := engine.Analyze(context.Background(), models.SentimentRequest{}); !errors.Is(err, models.ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
		if specialized.calls != 0 || general.calls != 0 {
			t.Error("validation failures should not call providers")
		}
	})
}
