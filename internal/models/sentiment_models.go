package models

import "errors"

// MaxTextLength is the practical cap for a single analysis request.
const MaxTextLength = 5000

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
	SentimentUnknown  SentimentLabel = "unknown"
)

type EntityType string

const (
	EntityCompany             EntityType = "company"
	EntitySymbol              EntityType = "symbol"
	EntityFinancialInstrument EntityType = "financial_instrument"
	EntityOther               EntityType = "other"
)

type Entity struct {
	Text       string                 `json:"text"`
	Type       EntityType             `json:"type"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// SentimentRequest is the immutable input to the sentiment engine.
type SentimentRequest struct {
	Text            string                 `json:"text"`
	Source          string                 `json:"source,omitempty"`
	ExtractEntities bool                   `json:"extract_entities"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

var (
	ErrEmptyText   = errors.New("text must not be empty")
	ErrTextTooLong = errors.New("text exceeds maximum length")
)

func (r SentimentRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyText
	}
	if len(r.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// SentimentResult is the canonical engine output. It is constructed fresh per
// request and never mutated afterwards. Metadata always carries
// processing_time_ms plus provider-specific diagnostic fields.
type SentimentResult struct {
	Text       string                 `json:"text"`
	Sentiment  SentimentLabel         `json:"sentiment"`
	Confidence float64                `json:"confidence"`
	Source     string                 `json:"source"`
	Reasoning  string                 `json:"reasoning,omitempty"`
	Entities   []Entity               `json:"entities,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
