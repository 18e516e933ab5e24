package sentiment

import (
	"context"
	"strings"

	"github.com/wedhazo/nexussentinel/internal/models"
)

// Analyzer is the capability contract every sentiment provider implements.
// AnalyzeSentiment runs the full pipeline, including entity extraction when the
// request asks for it. ExtractEntities is standalone extraction with no
// sentiment scoring. Both respect context cancellation on in-flight I/O.
type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, req models.SentimentRequest) (models.SentimentResult, error)
	ExtractEntities(ctx context.Context, text string) ([]models.Entity, error)
}

// mapSentimentLabel normalizes an upstream label by case-insensitive substring
// match. Anything unmatched becomes unknown rather than leaking a raw string.
func mapSentimentLabel(raw string) models.SentimentLabel {
	label := strings.ToLower(raw)
	switch {
	case strings.Contains(label, "positive"):
		return models.SentimentPositive
	case strings.Contains(label, "negative"):
		return models.SentimentNegative
	case strings.Contains(label, "neutral"):
		return models.SentimentNeutral
	default:
		return models.SentimentUnknown
	}
}

func mapEntityType(raw string) models.EntityType {
	entityType := strings.ToLower(raw)
	switch {
	case strings.Contains(entityType, "company"):
		return models.EntityCompany
	case strings.Contains(entityType, "symbol"):
		return models.EntitySymbol
	case strings.Contains(entityType, "financial"), strings.Contains(entityType, "instrument"):
		return models.EntityFinancialInstrument
	default:
		return models.EntityOther
	}
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
