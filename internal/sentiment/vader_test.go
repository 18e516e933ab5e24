package sentiment

import (
	"context"
	"strings"
	"testing"

	"github.com/wedhazo/nexussentinel/internal/models"
)

func TestRemoveLinks(t *testing.T) {
	t.Run("keeps markdown link text", func(t *testing.T) {
		got := RemoveLinks("check [this article](https://example.com/a) out")
		if got != "check this article out" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("strips bare urls", func(t *testing.T) {
		got := RemoveLinks("source: https://example.com/report and www.example.org too")
		if strings.Contains(got, "example") {
			t.Errorf("url survived: %q", got)
		}
	})
}

func TestConvertMarkdownToText(t *testing.T) {
	got := ConvertMarkdownToText("**Huge** earnings *beat* today")

	if strings.ContainsAny(got, "*#") {
		t.Errorf("markdown markers survived: %q", got)
	}
	for _, word := range []string{"Huge", "earnings", "beat", "today"} {
		if !strings.Contains(got, word) {
			t.Errorf("word %q lost during conversion: %q", word, got)
		}
	}
}

func TestVADERScore(t *testing.T) {
	vader := NewVADERAnalyzer()

	cases := []struct {
		name string
		text string
		want models.SentimentLabel
	}{
		{"positive", "This is amazing, fantastic gains, great results!", models.SentimentPositive},
		{"negative", "Terrible losses, awful crash, horrible disaster", models.SentimentNegative},
		{"neutral", "The meeting is scheduled for Tuesday", models.SentimentNeutral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, label := vader.Score(tc.text)
			if label != tc.want {
				t.Errorf("label = %s (score %v), want %s", label, score, tc.want)
			}
		})
	}
}

func TestVADERAnalyzeSentiment(t *testing.T) {
	vader := NewVADERAnalyzer()

	t.Run("implements the analyzer contract", func(t *testing.T) {
		var _ Analyzer = vader
	})

	t.Run("produces a scored result with entities", func(t *testing.T) {
		result, err := vader.AnalyzeSentiment(context.Background(), models.SentimentRequest{
			Text:            "Fantastic quarter for AAPL stock, wonderful growth",
			ExtractEntities: true,
		})
		if err != nil {
			t.Fatalf("AnalyzeSentiment failed: %v", err)
		}

		if result.Sentiment != models.SentimentPositive {
			t.Errorf("sentiment = %s, want positive", result.Sentiment)
		}
		if result.Source != "vader" {
			t.Errorf("source = %s, want vader", result.Source)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Errorf("confidence %v out of range", result.Confidence)
		}
		if findEntity(result.Entities, "AAPL", models.EntitySymbol) == nil {
			t.Error("expected AAPL entity from the local extractor")
		}
		if _, ok := result.Metadata["compound_score"]; !ok {
			t.Error("metadata should carry the compound score")
		}
	})

	t.Run("rejects empty text", func(t *testing.T) {
		if _, err := vader.AnalyzeSentiment(context.Background(), models.SentimentRequest{}); err == nil {
			t.Error("expected validation error for empty text")
		}
	})
}
