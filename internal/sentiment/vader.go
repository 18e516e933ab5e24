package sentiment

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/wedhazo/nexussentinel/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// RemoveLinks keeps the text of markdown links and strips bare URLs.
func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText flattens markdown-formatted social content into plain
// text suitable for scoring.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(string(output)), " ")

	return RemoveLinks(plainText)
}

// Compound-score cutoffs for the lexical label mapping.
const (
	vaderPositiveCutoff = 0.20
	vaderNegativeCutoff = -0.20
)

// VADERAnalyzer is a purely local lexical provider. It makes no network calls,
// which makes it the pipeline's cheap pre-screen before the model cascade.
type VADERAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERAnalyzer() *VADERAnalyzer {
	return &VADERAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound score and its label for the given text.
func (v *VADERAnalyzer) Score(text string) (float64, models.SentimentLabel) {
	plainText := ConvertMarkdownToText(text)
	score := v.analyzer.PolarityScores(plainText).Compound

	var label models.SentimentLabel
	switch {
	case score >= vaderPositiveCutoff:
		label = models.SentimentPositive
	case score <= vaderNegativeCutoff:
		label = models.SentimentNegative
	default:
		label = models.SentimentNeutral
	}

	return score, label
}

func (v *VADERAnalyzer) AnalyzeSentiment(_ context.Context, req models.SentimentRequest) (models.SentimentResult, error) {
	if err := req.Validate(); err != nil {
		return models.SentimentResult{}, err
	}

	start := time.Now()
	score, label := v.Score(req.Text)

	var entities []models.Entity
	if req.ExtractEntities {
		entities = ExtractFinancialEntities(req.Text)
	}

	return models.SentimentResult{
		Text:       req.Text,
		Sentiment:  label,
		Confidence: clampConfidence(math.Abs(score)),
		Source:     "vader",
		Entities:   entities,
		Metadata: map[string]interface{}{
			"processing_time_ms": time.Since(start).Milliseconds(),
			"provider":           "vader",
			"compound_score":     score,
		},
	}, nil
}

func (v *VADERAnalyzer) ExtractEntities(_ context.Context, text string) ([]models.Entity, error) {
	return ExtractFinancialEntities(text), nil
}
