package nlp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	ctypes "github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/aws/aws-sdk-go-v2/service/comprehendmedical"
	mtypes "github.com/aws/aws-sdk-go-v2/service/comprehendmedical/types"
)

type mapMatcher map[string]string

func (m mapMatcher) Match(phrase string, _ int) (string, bool) {
	c, ok := m[phrase]
	return c, ok
}

type fakeRecognizer struct {
	entities []Entity
	err      error
}

func (f fakeRecognizer) Recognize(context.Context, string) ([]Entity, error) {
	return f.entities, f.err
}

type failingScorer struct{}

func (failingScorer) Polarity(context.Context, string) (float64, error) {
	return 0, errors.New("unavailable")
}

func TestLabel(t *testing.T) {
	cases := map[float64]string{-0.5: Negative, -0.2: Neutral, 0: Neutral, 0.2: Neutral, 0.21: Positive}
	for p, want := range cases {
		if got := Label(p); got != want {
			t.Fatalf("Label(%v) = %s, want %s", p, got, want)
		}
	}
}

func TestLexiconPolarity(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"I feel terrible and sick", Negative},
		{"Feeling great today!", Positive},
		{"not bad at all", Positive},
		{"hello there", Neutral},
	}
	for _, tc := range cases {
		p, err := Lexicon{}.Polarity(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := Label(p); got != tc.want {
			t.Fatalf("%q: expected %s, got %s (%v)", tc.text, tc.want, got, p)
		}
	}
}

func TestKeywordsRecognizer(t *testing.T) {
	ents, err := Keywords{}.Recognize(context.Background(), "My head and lower back hurt for 3 days")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parts []string
	var duration string
	for _, e := range ents {
		switch e.Kind {
		case KindBodyPart:
			parts = append(parts, e.Text)
		case KindDuration:
			duration = e.Text
		}
	}
	if strings.Join(parts, ",") != "head,lower back" {
		t.Fatalf("unexpected body parts %v", parts)
	}
	if duration != "for 3 days" {
		t.Fatalf("unexpected duration %q", duration)
	}
}

func TestExtractorFallsBackOnRecognizerError(t *testing.T) {
	ex := NewExtractor(
		fakeRecognizer{err: errors.New("no credentials")},
		Lexicon{},
		mapMatcher{"headache": "headache", "tired": "fatigue"},
		nil,
	)
	got := ex.Extract(context.Background(), "I have a bad headache and feel tired for 2 days, my head hurts")

	if strings.Join(got.Symptoms, ",") != "headache,tired,fatigue" {
		t.Fatalf("unexpected symptoms %v", got.Symptoms)
	}
	if strings.Join(got.BodyParts, ",") != "head" {
		t.Fatalf("unexpected body parts %v", got.BodyParts)
	}
	if got.Duration != "for 2 days" {
		t.Fatalf("unexpected duration %q", got.Duration)
	}
	if got.Sentiment != Negative {
		t.Fatalf("expected negative sentiment, got %s", got.Sentiment)
	}
}

func TestExtractorUsesRecognizedSymptoms(t *testing.T) {
	ex := NewExtractor(
		fakeRecognizer{entities: []Entity{
			{Text: "sore throat", Kind: KindSymptom},
			{Text: "throat", Kind: KindBodyPart},
			{Text: "yesterday", Kind: KindDuration},
			{Text: "two weeks", Kind: KindDuration},
		}},
		failingScorer{},
		nil,
		nil,
	)
	got := ex.Extract(context.Background(), "sore throat and some pain, started two weeks ago")
	if strings.Join(got.Symptoms, ",") != "sore throat" {
		t.Fatalf("keyword fallback must not run when symptoms were recognized: %v", got.Symptoms)
	}
	if got.Duration != "two weeks" {
		t.Fatalf("expected last duration, got %q", got.Duration)
	}
	if got.Sentiment != Neutral {
		t.Fatalf("scorer errors must yield Neutral, got %s", got.Sentiment)
	}
}

func TestExtractorEmptyText(t *testing.T) {
	got := NewExtractor(nil, nil, mapMatcher{}, nil).Extract(context.Background(), "")
	if got.Symptoms == nil || got.BodyParts == nil || len(got.Symptoms) != 0 {
		t.Fatalf("expected empty non-nil lists, got %+v", got)
	}
	if got.Duration != "" || got.Sentiment != Neutral {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestWindowsSkipStopwords(t *testing.T) {
	got := windows([]string{"i", "have", "joint", "pain"})
	want := "joint,joint pain,pain"
	if strings.Join(got, ",") != want {
		t.Fatalf("expected %s, got %v", want, got)
	}
}

type fakeMedical struct {
	out *comprehendmedical.DetectEntitiesV2Output
	err error
}

func (f fakeMedical) DetectEntitiesV2(context.Context, *comprehendmedical.DetectEntitiesV2Input, ...func(*comprehendmedical.Options)) (*comprehendmedical.DetectEntitiesV2Output, error) {
	return f.out, f.err
}

func TestComprehendMedicalCategories(t *testing.T) {
	api := fakeMedical{out: &comprehendmedical.DetectEntitiesV2Output{Entities: []mtypes.Entity{
		{Category: mtypes.EntityType("MEDICAL_CONDITION"), Text: aws.String("chest pain")},
		{Category: mtypes.EntityType("ANATOMY"), Text: aws.String("chest")},
		{Category: mtypes.EntityType("TIME_EXPRESSION"), Text: aws.String("three days")},
		{Category: mtypes.EntityType("MEDICATION"), Text: aws.String("ibuprofen")},
	}}}
	ents, err := NewComprehendMedical(api).Recognize(context.Background(), "chest pain for three days, took ibuprofen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ents) != 3 {
		t.Fatalf("expected 3 entities, got %+v", ents)
	}
	if ents[0].Kind != KindSymptom || ents[1].Kind != KindBodyPart || ents[2].Kind != KindDuration {
		t.Fatalf("unexpected kinds %+v", ents)
	}

	if _, err := NewComprehendMedical(fakeMedical{err: errors.New("denied")}).Recognize(context.Background(), "x"); err == nil {
		t.Fatal("expected error from client")
	}
}

type fakeComprehend struct {
	score *ctypes.SentimentScore
}

func (f fakeComprehend) DetectSentiment(context.Context, *comprehend.DetectSentimentInput, ...func(*comprehend.Options)) (*comprehend.DetectSentimentOutput, error) {
	return &comprehend.DetectSentimentOutput{SentimentScore: f.score}, nil
}

func TestComprehendPolarity(t *testing.T) {
	c := NewComprehend(fakeComprehend{score: &ctypes.SentimentScore{
		Positive: aws.Float32(0.1),
		Negative: aws.Float32(0.8),
	}})
	p, err := c.Polarity(context.Background(), "everything hurts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Label(p) != Negative {
		t.Fatalf("expected negative polarity, got %v", p)
	}
}
