package sentiment

import (
	"context"
	"log/slog"

	"github.com/wedhazo/nexussentinel/internal/models"
)

const (
	// Floor for the blended confidence when both providers agree.
	consensusAgreementFloor = 0.8
	// Fixed confidence when the general model's answer stands in for a
	// low-confidence or absent specialized answer.
	consensusFallbackConfidence = 0.6
)

// AnalyzeConsensus queries both providers concurrently and blends their
// answers instead of cascading. Agreement yields the agreed label with
// confidence max(0.8, specialized confidence); on disagreement the specialized
// answer wins unless its confidence is below 0.6, in which case the general
// model's label is used at a fixed moderate confidence. A single surviving
// provider answers alone. Both failing is the same terminal condition as the
// cascade.
func (e *Engine) AnalyzeConsensus(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	if err := req.Validate(); err != nil {
		return models.SentimentResult{}, err
	}

	type outcome struct {
		result models.SentimentResult
		err    error
	}

	specializedCh := make(chan outcome, 1)
	generalCh := make(chan outcome, 1)

	go func() {
		result, err := e.specialized.AnalyzeSentiment(ctx, req)
		specializedCh <- outcome{result, err}
	}()
	go func() {
		result, err := e.general.AnalyzeSentiment(ctx, req)
		generalCh <- outcome{result, err}
	}()

	specialized := <-specializedCh
	general := <-generalCh

	if specialized.err != nil && general.err != nil {
		return models.SentimentResult{}, &CascadeError{
			SpecializedErr: specialized.err,
			GeneralErr:     general.err,
		}
	}

	if specialized.err != nil {
		slog.Warn("[SentimentEngine] Specialized provider unavailable, consensus from general model only",
			slog.String("error", specialized.err.Error()))
		result := general.result
		result.Confidence = consensusFallbackConfidence
		return annotateConsensus(result, nil, &general.result), nil
	}

	if general.err != nil {
		slog.Warn("[SentimentEngine] General provider unavailable, consensus from specialized model only",
			slog.String("error", general.err.Error()))
		return annotateConsensus(specialized.result, &specialized.result, nil), nil
	}

	result := specialized.result
	result.Reasoning = general.result.Reasoning
	if len(general.result.Entities) > 0 {
		result.Entities = general.result.Entities
	}

	if specialized.result.Sentiment == general.result.Sentiment {
		result.Confidence = specialized.result.Confidence
		if result.Confidence < consensusAgreementFloor {
			result.Confidence = consensusAgreementFloor
		}
	} else if specialized.result.Confidence < consensusFallbackConfidence {
		result.Sentiment = general.result.Sentiment
		result.Confidence = consensusFallbackConfidence
	} else {
		result.Confidence = specialized.result.Confidence
	}

	return annotateConsensus(result, &specialized.result, &general.result), nil
}

func annotateConsensus(result models.SentimentResult, specialized, general *models.SentimentResult) models.SentimentResult {
	metadata := map[string]interface{}{
		"consensus_method": "weighted",
	}
	if specialized != nil {
		metadata["specialized_sentiment"] = string(specialized.Sentiment)
		metadata["specialized_confidence"] = specialized.Confidence
	}
	if general != nil {
		metadata["general_sentiment"] = string(general.Sentiment)
		metadata["general_confidence"] = general.Confidence
	}
	for k, v := range result.Metadata {
		metadata[k] = v
	}

	result.Source = "consensus"
	result.Metadata = metadata
	return result
}
