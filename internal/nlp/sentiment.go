package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
)

const (
	Positive = "Positive"
	Negative = "Negative"
	Neutral  = "Neutral"
)

// SentimentScorer returns a polarity in [-1, 1].
type SentimentScorer interface {
	Polarity(ctx context.Context, text string) (float64, error)
}

// Label buckets a polarity score.
func Label(polarity float64) string {
	switch {
	case polarity < -0.2:
		return Negative
	case polarity > 0.2:
		return Positive
	default:
		return Neutral
	}
}

type ComprehendAPI interface {
	DetectSentiment(ctx context.Context, params *comprehend.DetectSentimentInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error)
}

// Comprehend scores sentiment with AWS Comprehend. Polarity is the positive
// confidence minus the negative confidence.
type Comprehend struct {
	api ComprehendAPI
}

func NewComprehend(api ComprehendAPI) *Comprehend {
	return &Comprehend{api: api}
}

func NewComprehendFromConfig(cfg aws.Config) *Comprehend {
	return NewComprehend(comprehend.NewFromConfig(cfg))
}

func (c *Comprehend) Polarity(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	out, err := c.api.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode("en"),
	})
	if err != nil {
		return 0, fmt.Errorf("comprehend sentiment: %w", err)
	}
	if out.SentimentScore == nil {
		return 0, nil
	}
	pos := float64(aws.ToFloat32(out.SentimentScore.Positive))
	neg := float64(aws.ToFloat32(out.SentimentScore.Negative))
	return pos - neg, nil
}

var lexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "better": 0.5, "best": 1, "fine": 0.4, "well": 0.3,
	"happy": 0.8, "relieved": 0.6, "improving": 0.5, "improved": 0.5, "okay": 0.5, "ok": 0.5,
	"comfortable": 0.4, "nice": 0.6, "glad": 0.5, "calm": 0.3,
	"bad": -0.7, "worse": -0.4, "worst": -1, "terrible": -1, "awful": -1, "horrible": -1,
	"severe": -0.5, "unbearable": -0.8, "miserable": -0.8, "sick": -0.7, "painful": -0.7,
	"sad": -0.5, "tired": -0.4, "exhausted": -0.6, "weak": -0.4, "anxious": -0.4, "scared": -0.6,
	"worried": -0.4, "dizzy": -0.3, "sore": -0.3, "uncomfortable": -0.5, "hurts": -0.4,
}

var negators = map[string]bool{"not": true, "no": true, "never": true, "don't": true, "dont": true, "isn't": true, "isnt": true}

// Lexicon is a local word-list scorer. A negator flips and halves the next
// scored word; the result is the mean over scored words.
type Lexicon struct{}

func (Lexicon) Polarity(_ context.Context, text string) (float64, error) {
	var sum float64
	var n int
	negate := false
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"()")
		if negators[w] {
			negate = true
			continue
		}
		score, ok := lexicon[w]
		if !ok {
			continue
		}
		if negate {
			score *= -0.5
			negate = false
		}
		sum += score
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}
