package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Softmax is a multinomial logistic regression over the symptom vector.
// Attribution is exact for a linear model: the contribution of feature i to
// class c is W[i][c] * (x[i] - baseline[i]).
type Softmax struct {
	W        *mat.Dense    // features x classes
	B        *mat.VecDense // classes
	Baseline []float64
}

type softmaxFile struct {
	NFeatures int       `json:"n_features"`
	NClasses  int       `json:"n_classes"`
	W         []float64 `json:"w"`
	B         []float64 `json:"b"`
	Baseline  []float64 `json:"baseline,omitempty"`
}

// NewSoftmax builds a model from row-major weights (features x classes).
func NewSoftmax(nFeatures, nClasses int, w, b, baseline []float64) (*Softmax, error) {
	if nFeatures <= 0 || nClasses <= 0 {
		return nil, fmt.Errorf("softmax: invalid dimensions %dx%d", nFeatures, nClasses)
	}
	if len(w) != nFeatures*nClasses {
		return nil, fmt.Errorf("softmax: W has %d values, want %d", len(w), nFeatures*nClasses)
	}
	if len(b) != nClasses {
		return nil, fmt.Errorf("softmax: B has %d values, want %d", len(b), nClasses)
	}
	if baseline == nil {
		baseline = make([]float64, nFeatures)
	}
	if len(baseline) != nFeatures {
		return nil, fmt.Errorf("softmax: baseline has %d values, want %d", len(baseline), nFeatures)
	}
	return &Softmax{
		W:        mat.NewDense(nFeatures, nClasses, append([]float64(nil), w...)),
		B:        mat.NewVecDense(nClasses, append([]float64(nil), b...)),
		Baseline: append([]float64(nil), baseline...),
	}, nil
}

// LoadSoftmax reads a weight file written by the training tooling.
func LoadSoftmax(path string) (*Softmax, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var f softmaxFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return NewSoftmax(f.NFeatures, f.NClasses, f.W, f.B, f.Baseline)
}

// Features is the input width the model expects.
func (m *Softmax) Features() int {
	r, _ := m.W.Dims()
	return r
}

// Classes is the number of output classes.
func (m *Softmax) Classes() int {
	_, c := m.W.Dims()
	return c
}

func (m *Softmax) PredictProba(_ context.Context, x []float64) ([]float64, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}

	var scores mat.VecDense
	scores.MulVec(m.W.T(), mat.NewVecDense(len(x), x))
	scores.AddVec(&scores, m.B)

	n := scores.Len()
	out := make([]float64, n)
	maxVal := math.Inf(-1)
	for k := 0; k < n; k++ {
		maxVal = math.Max(maxVal, scores.AtVec(k))
	}
	sum := 0.0
	for k := 0; k < n; k++ {
		out[k] = math.Exp(scores.AtVec(k) - maxVal)
		sum += out[k]
	}
	for k := range out {
		out[k] /= sum
	}
	return out, nil
}

func (m *Softmax) Attribute(_ context.Context, x []float64) (Attribution, error) {
	if err := m.checkInput(x); err != nil {
		return Attribution{}, err
	}
	nFeatures, nClasses := m.W.Dims()
	vectors := make([][]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		v := make([]float64, nFeatures)
		for i := 0; i < nFeatures; i++ {
			v[i] = m.W.At(i, c) * (x[i] - m.Baseline[i])
		}
		vectors[c] = v
	}
	return PerClass(vectors), nil
}

func (m *Softmax) checkInput(x []float64) error {
	if len(x) != m.Features() {
		return fmt.Errorf("softmax: input has %d features, model expects %d", len(x), m.Features())
	}
	return nil
}
