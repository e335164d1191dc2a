package nlp

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	// MatchCutoff is the minimum fuzzy score for a phrase to count as a
	// known symptom.
	MatchCutoff = 85

	maxWindow    = 3
	minWindowLen = 3
)

var fallbackKeywords = []string{"ache", "pain", "cough", "fever", "tired", "fatigue", "nausea", "dizzy", "headache"}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "i": true, "im": true, "i'm": true, "me": true,
	"my": true, "have": true, "has": true, "had": true, "been": true, "am": true, "is": true,
	"are": true, "was": true, "were": true, "it": true, "its": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true, "and/or": true, "or": true,
	"but": true, "since": true, "feel": true, "feeling": true, "very": true, "really": true,
	"some": true, "also": true, "this": true, "that": true, "from": true, "all": true, "day": true,
	"days": true, "week": true, "weeks": true, "last": true, "few": true, "bit": true, "lot": true,
}

// SymptomMatcher resolves a phrase to a canonical symptom.
type SymptomMatcher interface {
	Match(phrase string, cutoff int) (string, bool)
}

type Entities struct {
	Symptoms  []string `json:"symptoms"`
	BodyParts []string `json:"body_parts"`
	Duration  string   `json:"duration"`
	Sentiment string   `json:"sentiment"`
}

type Extractor struct {
	recognizer Recognizer
	sentiment  SentimentScorer
	matcher    SymptomMatcher
	logger     *zap.Logger
}

func NewExtractor(recognizer Recognizer, sentiment SentimentScorer, matcher SymptomMatcher, logger *zap.Logger) *Extractor {
	if recognizer == nil {
		recognizer = Keywords{}
	}
	if sentiment == nil {
		sentiment = Lexicon{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{recognizer: recognizer, sentiment: sentiment, matcher: matcher, logger: logger}
}

// Extract never fails: a recognizer or scorer error degrades to the local
// fallbacks.
func (e *Extractor) Extract(ctx context.Context, text string) Entities {
	out := Entities{Symptoms: []string{}, BodyParts: []string{}, Sentiment: Neutral}

	entities, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		e.logger.Warn("entity recognition failed", zap.Error(err))
		entities, _ = Keywords{}.Recognize(ctx, text)
	}
	for _, ent := range entities {
		switch ent.Kind {
		case KindSymptom:
			out.Symptoms = append(out.Symptoms, ent.Text)
		case KindBodyPart:
			out.BodyParts = append(out.BodyParts, ent.Text)
		case KindDuration:
			out.Duration = ent.Text
		}
	}

	words := tokenize(text)
	if len(out.Symptoms) == 0 {
		for _, w := range words {
			for _, kw := range fallbackKeywords {
				if strings.Contains(w, kw) {
					out.Symptoms = append(out.Symptoms, w)
					break
				}
			}
		}
	}

	if e.matcher != nil {
		for _, phrase := range windows(words) {
			if canonical, ok := e.matcher.Match(phrase, MatchCutoff); ok {
				out.Symptoms = append(out.Symptoms, canonical)
			}
		}
	}

	if polarity, err := e.sentiment.Polarity(ctx, text); err != nil {
		e.logger.Warn("sentiment scoring failed", zap.Error(err))
	} else {
		out.Sentiment = Label(polarity)
	}

	out.Symptoms = dedupe(out.Symptoms)
	out.BodyParts = dedupe(out.BodyParts)
	return out
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"()[]")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// windows returns every run of one to three words that neither starts nor
// ends with a stopword.
func windows(words []string) []string {
	var out []string
	for i := range words {
		if stopwords[words[i]] {
			continue
		}
		for n := 1; n <= maxWindow && i+n <= len(words); n++ {
			last := words[i+n-1]
			if stopwords[last] {
				continue
			}
			phrase := strings.Join(words[i:i+n], " ")
			if len(phrase) < minWindowLen {
				continue
			}
			out = append(out, phrase)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
