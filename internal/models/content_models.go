package models

import "time"

// RawContent is a single piece of collected text on its way through the pipeline.
type RawContent struct {
	ContentID string          `json:"content_id"`
	Source    string          `json:"source"`
	Query     string          `json:"query"`
	Topic     string          `json:"topic,omitempty" dynamodbav:"topic,omitempty"`
	Text      string          `json:"text"`
	Metadata  ContentMetadata `json:"metadata"`
}

type ContentMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Subreddit string    `json:"subreddit,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// SentimentSource records which provider screened the content first and which
// one produced the final verdict.
type SentimentSource struct {
	Initial string `json:"initial"`
	Final   string `json:"final"`
}

// AnalyzedContent is the pipeline's storage unit: raw content plus the engine's
// verdict. VADERScore holds the lexical compound score from the pre-screen pass.
type AnalyzedContent struct {
	RawContent
	SentimentLabel  SentimentLabel  `json:"sentiment_label"`
	VADERScore      float64         `json:"vader_score"`
	Confidence      float64         `json:"confidence"`
	Reasoning       string          `json:"reasoning,omitempty"`
	Entities        []Entity        `json:"entities,omitempty"`
	SentimentSource SentimentSource `json:"sentiment_source"`
	AnalyzedAt      time.Time       `json:"analyzed_at"`
}
