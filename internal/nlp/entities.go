// Package nlp pulls symptoms, body parts, durations and overall sentiment out
// of a free-text description of how a patient feels.
package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehendmedical"
)

type Kind string

const (
	KindSymptom  Kind = "symptom"
	KindBodyPart Kind = "body_part"
	KindDuration Kind = "duration"
)

type Entity struct {
	Text string
	Kind Kind
}

// Recognizer finds medical entities in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// ComprehendMedicalAPI is the part of the Comprehend Medical client used here.
type ComprehendMedicalAPI interface {
	DetectEntitiesV2(ctx context.Context, params *comprehendmedical.DetectEntitiesV2Input, optFns ...func(*comprehendmedical.Options)) (*comprehendmedical.DetectEntitiesV2Output, error)
}

// ComprehendMedical recognizes entities with AWS Comprehend Medical.
type ComprehendMedical struct {
	api ComprehendMedicalAPI
}

func NewComprehendMedical(api ComprehendMedicalAPI) *ComprehendMedical {
	return &ComprehendMedical{api: api}
}

func NewComprehendMedicalFromConfig(cfg aws.Config) *ComprehendMedical {
	return NewComprehendMedical(comprehendmedical.NewFromConfig(cfg))
}

func (c *ComprehendMedical) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	out, err := c.api.DetectEntitiesV2(ctx, &comprehendmedical.DetectEntitiesV2Input{
		Text: aws.String(text),
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend medical: %w", err)
	}

	var entities []Entity
	for _, e := range out.Entities {
		var kind Kind
		switch string(e.Category) {
		case "MEDICAL_CONDITION":
			kind = KindSymptom
		case "ANATOMY":
			kind = KindBodyPart
		case "TIME_EXPRESSION":
			kind = KindDuration
		default:
			continue
		}
		entities = append(entities, Entity{Text: aws.ToString(e.Text), Kind: kind})
	}
	return entities, nil
}

var anatomy = []string{
	"head", "forehead", "eye", "eyes", "ear", "ears", "nose", "mouth", "throat", "neck",
	"shoulder", "shoulders", "arm", "arms", "elbow", "wrist", "hand", "hands", "finger", "fingers",
	"chest", "back", "lower back", "stomach", "abdomen", "belly", "hip", "hips", "leg", "legs",
	"knee", "knees", "ankle", "foot", "feet", "toe", "toes", "skin", "joint", "joints", "muscle",
	"muscles", "heart", "lungs", "teeth", "jaw", "spine",
}

var (
	anatomyPattern  = regexp.MustCompile(`(?i)\b(` + alternation(anatomy) + `)\b`)
	durationPattern = regexp.MustCompile(`(?i)\b(?:for\s+|since\s+|past\s+|last\s+)?(?:\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|a few|few|several|couple of|a couple of)\s+(?:minutes?|hours?|days?|nights?|weeks?|months?|years?)\b|\bsince\s+(?:yesterday|last\s+\w+|this\s+morning)\b`)
)

// Keywords is a local recognizer for body parts and durations, used when no
// remote NER service is configured.
type Keywords struct{}

func (Keywords) Recognize(_ context.Context, text string) ([]Entity, error) {
	var entities []Entity
	for _, m := range anatomyPattern.FindAllString(text, -1) {
		entities = append(entities, Entity{Text: m, Kind: KindBodyPart})
	}
	for _, m := range durationPattern.FindAllString(text, -1) {
		entities = append(entities, Entity{Text: strings.TrimSpace(m), Kind: KindDuration})
	}
	return entities, nil
}

// alternation joins words into a regexp alternation, longest first so that
// multi-word terms win over their prefixes.
func alternation(words []string) string {
	sorted := append([]string(nil), words...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j]) > len(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
