package llm

import (
	"context"
	"fmt"
	"strings"

	"marquee/internal/metrics"
	"marquee/internal/services"
)

// Sentiment labels produced by ClassifySentiment.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
)

// SentimentPrompt instructs the model to label a single review.
const SentimentPrompt = `You classify the sentiment of short movie and TV reviews.
Respond with JSON only, in the form {"label":"positive"|"negative","score":0.0-1.0}.
"score" is your confidence in the label. Mixed reviews take the label of the overall verdict.`

// ErrEmptyText is returned when there is nothing to classify.
var ErrEmptyText = fmt.Errorf("llm sentiment: text required: %w", services.ErrValidation)

// Sentiment is the classified polarity of a review.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Raw   string  `json:"-"`
}

// Positive reports whether the label is positive.
func (s Sentiment) Positive() bool {
	return s.Label == LabelPositive
}

// ClassifySentiment labels review text as positive or negative with a confidence score.
func (c *Client) ClassifySentiment(ctx context.Context, text string) (Sentiment, error) {
	var empty Sentiment
	text = strings.TrimSpace(text)
	if text == "" {
		return empty, ErrEmptyText
	}
	if !c.Configured() {
		return empty, ErrNotConfigured
	}
	content, err := c.CompleteJSON(ctx, SentimentPrompt, text)
	if err != nil {
		metrics.SentimentClassifications.WithLabelValues("failed").Inc()
		return empty, err
	}
	parsed, err := parseSentiment(content)
	if err != nil {
		metrics.SentimentClassifications.WithLabelValues("failed").Inc()
		return empty, err
	}
	metrics.SentimentClassifications.WithLabelValues(parsed.Label).Inc()
	return parsed, nil
}

func parseSentiment(content string) (Sentiment, error) {
	var payload struct {
		Label     string   `json:"label"`
		Sentiment string   `json:"sentiment"`
		Score     *float64 `json:"score"`
	}
	if err := DecodeLLMJSON(content, &payload); err != nil {
		return Sentiment{}, fmt.Errorf("llm sentiment: parse payload: %w", err)
	}
	label := strings.ToLower(strings.TrimSpace(payload.Label))
	if label == "" {
		label = strings.ToLower(strings.TrimSpace(payload.Sentiment))
	}
	switch label {
	case LabelPositive, LabelNegative:
	default:
		return Sentiment{}, fmt.Errorf("llm sentiment: unexpected label %q: %w", label, services.ErrUpstream)
	}
	score := 1.0
	if payload.Score != nil {
		score = clampUnit(*payload.Score)
	}
	return Sentiment{Label: label, Score: score, Raw: content}, nil
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
