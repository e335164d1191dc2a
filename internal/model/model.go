// Package model holds the disease classifier and its feature-attribution
// companion. Both are treated as black boxes behind narrow interfaces.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Classifier returns one probability per disease class for a 0/1 symptom
// vector in vocabulary order.
type Classifier interface {
	PredictProba(ctx context.Context, x []float64) ([]float64, error)
}

// Explainer returns per-feature attribution scores for x.
type Explainer interface {
	Attribute(ctx context.Context, x []float64) (Attribution, error)
}

// Labels maps class index to disease name.
type Labels struct {
	names map[int]string
}

// NewLabels copies names into a label mapping.
func NewLabels(names map[int]string) *Labels {
	l := &Labels{names: make(map[int]string, len(names))}
	for k, v := range names {
		l.names[k] = v
	}
	return l
}

// LoadLabels reads a JSON object of stringified class index to disease name.
func LoadLabels(path string) (*Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label mapping: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode label mapping %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, errors.New("label mapping is empty")
	}

	names := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("label mapping key %q is not a class index", k)
		}
		names[idx] = v
	}
	return NewLabels(names), nil
}

// Name returns the disease for class i.
func (l *Labels) Name(i int) (string, bool) {
	n, ok := l.names[i]
	return n, ok
}

// Len is the number of labelled classes.
func (l *Labels) Len() int {
	return len(l.names)
}

// Covers reports whether every class below n has a name.
func (l *Labels) Covers(n int) error {
	var missing []int
	for i := 0; i < n; i++ {
		if _, ok := l.names[i]; !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return fmt.Errorf("no disease name for classes %v", missing)
	}
	return nil
}
