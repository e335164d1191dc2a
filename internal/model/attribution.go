package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAttributionShape is returned when an attribution cannot be resolved to
// a single vector for the requested class.
var ErrAttributionShape = errors.New("attribution shape does not match the prediction")

type attributionKind int

const (
	kindNone attributionKind = iota
	kindPerClass
	kindSingle
)

// Attribution is either one score vector per class or a single vector that
// applies to whichever class was predicted.
type Attribution struct {
	kind     attributionKind
	perClass [][]float64
	single   []float64
}

// PerClass wraps one attribution vector per class.
func PerClass(vectors [][]float64) Attribution {
	return Attribution{kind: kindPerClass, perClass: vectors}
}

// Single wraps a class-independent attribution vector.
func Single(vector []float64) Attribution {
	return Attribution{kind: kindSingle, single: vector}
}

// IsZero reports whether no attribution was produced.
func (a Attribution) IsZero() bool {
	return a.kind == kindNone
}

// ForClass resolves the attribution vector for class idx. A per-class
// attribution holding a single vector is used for every class.
func (a Attribution) ForClass(idx int) ([]float64, error) {
	switch a.kind {
	case kindPerClass:
		if idx >= 0 && idx < len(a.perClass) {
			return a.perClass[idx], nil
		}
		if len(a.perClass) == 1 {
			return a.perClass[0], nil
		}
		return nil, fmt.Errorf("%w: class %d of %d", ErrAttributionShape, idx, len(a.perClass))
	case kindSingle:
		return a.single, nil
	default:
		return nil, ErrAttributionShape
	}
}

// UnmarshalJSON accepts either a list of vectors or a single vector.
func (a *Attribution) UnmarshalJSON(data []byte) error {
	var nested [][]float64
	if err := json.Unmarshal(data, &nested); err == nil {
		*a = PerClass(nested)
		return nil
	}
	var flat []float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("%w: %v", ErrAttributionShape, err)
	}
	*a = Single(flat)
	return nil
}

// MarshalJSON writes the attribution in the shape it was built with.
func (a Attribution) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case kindPerClass:
		return json.Marshal(a.perClass)
	case kindSingle:
		return json.Marshal(a.single)
	default:
		return []byte("null"), nil
	}
}
