package sentiment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wedhazo/nexussentinel/internal/models"
)

const defaultConfidenceThreshold = 0.7

type EngineConfig struct {
	// ConfidenceThreshold is the minimum specialized-provider confidence below
	// which the cascade escalates to the general model.
	ConfidenceThreshold float64
}

// Engine is the cascade orchestrator. The specialized provider is cheap and
// fast and is the common path; the general model is reserved for ambiguous or
// failed cases. The engine holds no per-request state, so a single instance
// serves concurrent callers.
type Engine struct {
	specialized Analyzer
	general     Analyzer
	threshold   float64
}

func NewEngine(specialized, general Analyzer, cfg EngineConfig) (*Engine, error) {
	if specialized == nil || general == nil {
		return nil, errors.New("engine: both providers are required")
	}
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	if threshold > 1 {
		return nil, errors.New("engine: confidence threshold must not exceed 1.0")
	}
	return &Engine{specialized: specialized, general: general, threshold: threshold}, nil
}

// Analyze runs the cascade with the engine's default confidence threshold.
func (e *Engine) Analyze(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	return e.AnalyzeWithThreshold(ctx, req, e.threshold)
}

// AnalyzeWithThreshold tries the specialized provider first and escalates to
// the general model when it errors or is not confident enough. When the
// general model then also fails but the specialized provider had produced a
// low-confidence answer, that answer is returned instead of an error: a
// deliberate availability-over-precision tradeoff for callers that cannot
// tolerate hard failures.
func (e *Engine) AnalyzeWithThreshold(ctx context.Context, req models.SentimentRequest, threshold float64) (models.SentimentResult, error) {
	if err := req.Validate(); err != nil {
		return models.SentimentResult{}, err
	}

	specializedResult, specializedErr := e.specialized.AnalyzeSentiment(ctx, req)
	if specializedErr == nil {
		if specializedResult.Confidence >= threshold {
			slog.Info("[SentimentEngine] Using specialized result",
				slog.Float64("confidence", specializedResult.Confidence))
			return specializedResult, nil
		}
		slog.Info("[SentimentEngine] Specialized confidence below threshold, escalating",
			slog.Float64("confidence", specializedResult.Confidence),
			slog.Float64("threshold", threshold))
	} else {
		slog.Error("[SentimentEngine] Specialized provider failed, escalating",
			slog.String("error", specializedErr.Error()))
	}

	generalResult, generalErr := e.general.AnalyzeSentiment(ctx, req)
	if generalErr == nil {
		slog.Info("[SentimentEngine] Using general-model result",
			slog.Float64("confidence", generalResult.Confidence))
		return generalResult, nil
	}

	if specializedErr == nil {
		slog.Warn("[SentimentEngine] General provider failed, returning low-confidence specialized result",
			slog.Float64("confidence", specializedResult.Confidence),
			slog.String("error", generalErr.Error()))
		return specializedResult, nil
	}

	return models.SentimentResult{}, &CascadeError{
		SpecializedErr: specializedErr,
		GeneralErr:     generalErr,
	}
}
