// Package predict turns free-text symptom phrases into a ranked disease
// prediction with an explanation.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/Skufu/symptomsense/internal/explain"
	"github.com/Skufu/symptomsense/internal/model"
	"github.com/Skufu/symptomsense/internal/symptoms"
)

const (
	minProbability = 0.01
	maxPossible    = 3
)

// Entry is one disease with its probability in percent.
type Entry struct {
	Disease     string  `json:"disease"`
	Probability float64 `json:"probability"`
}

type Result struct {
	MostLikely      *Entry   `json:"most_likely"`
	Possible        []Entry  `json:"possible"`
	MatchedSymptoms []string `json:"matched_symptoms"`
	Explanation     string   `json:"explanation"`
	Unmatched       []string `json:"-"`
}

type Service struct {
	normalizer *symptoms.Normalizer
	vocab      *symptoms.Vocabulary
	classifier model.Classifier
	explainer  model.Explainer
	labels     *model.Labels
	logger     *zap.Logger
}

// NewService wires the prediction pipeline. explainer may be nil, in which
// case every result carries the "not available" explanation.
func NewService(
	normalizer *symptoms.Normalizer,
	vocab *symptoms.Vocabulary,
	classifier model.Classifier,
	explainer model.Explainer,
	labels *model.Labels,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		normalizer: normalizer,
		vocab:      vocab,
		classifier: classifier,
		explainer:  explainer,
		labels:     labels,
		logger:     logger,
	}
}

func (s *Service) Predict(ctx context.Context, phrases []string) (*Result, error) {
	norm := s.normalizer.NormalizeAll(phrases)
	if len(norm.Unmatched) > 0 {
		s.logger.Info("unmatched symptom phrases", zap.Strings("phrases", norm.Unmatched))
	}

	x := s.vocab.Vector(norm.Matched)
	probs, err := s.classifier.PredictProba(ctx, x)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	entries, err := s.rank(probs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Possible:        []Entry{},
		MatchedSymptoms: norm.Matched,
		Unmatched:       norm.Unmatched,
	}
	if len(entries) > 0 {
		top := entries[0]
		res.MostLikely = &top
		rest := entries[1:]
		if len(rest) > maxPossible {
			rest = rest[:maxPossible]
		}
		res.Possible = append(res.Possible, rest...)
	}

	res.Explanation = s.explain(ctx, x, probs, res.MostLikely)
	return res, nil
}

func (s *Service) rank(probs []float64) ([]Entry, error) {
	type scored struct {
		idx int
		p   float64
	}
	kept := make([]scored, 0, len(probs))
	for i, p := range probs {
		if p > minProbability {
			kept = append(kept, scored{idx: i, p: p})
		}
	}
	// Equal rounded percentages keep class order.
	sort.SliceStable(kept, func(a, b int) bool { return Percent(kept[a].p) > Percent(kept[b].p) })

	entries := make([]Entry, 0, len(kept))
	for _, k := range kept {
		name, ok := s.labels.Name(k.idx)
		if !ok {
			return nil, fmt.Errorf("classifier returned %d classes but class %d has no disease name", len(probs), k.idx)
		}
		entries = append(entries, Entry{Disease: name, Probability: Percent(k.p)})
	}
	return entries, nil
}

func (s *Service) explain(ctx context.Context, x, probs []float64, top *Entry) string {
	if s.explainer == nil {
		return explain.Unavailable
	}
	disease := ""
	if top != nil {
		disease = top.Disease
	}

	attr, err := s.explainer.Attribute(ctx, x)
	if err != nil {
		s.logger.Warn("attribution failed", zap.Error(err))
		if errors.Is(err, model.ErrAttributionShape) {
			return explain.ShapeError
		}
		return explain.Unavailable
	}

	vec, err := attr.ForClass(argmax(probs))
	if err != nil {
		s.logger.Warn("attribution shape mismatch", zap.Error(err))
		return explain.ShapeError
	}
	if len(vec) != s.vocab.Len() {
		s.logger.Warn("attribution shape mismatch",
			zap.Int("attribution_len", len(vec)),
			zap.Int("features", s.vocab.Len()))
		return explain.ShapeError
	}

	return explain.Explain(explain.Input{
		Vector:      x,
		Attribution: vec,
		Disease:     disease,
		Features:    s.vocab.Names(),
	})
}

// Percent converts a probability to a percentage rounded to two places.
func Percent(p float64) float64 {
	return math.Round(p*100*100) / 100
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
