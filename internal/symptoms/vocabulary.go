package symptoms

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Vocabulary is the ordered list of feature columns the classifier was
// trained on.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary validates names and builds the column index.
func NewVocabulary(names []string) (*Vocabulary, error) {
	if len(names) == 0 {
		return nil, errors.New("feature list is empty")
	}
	v := &Vocabulary{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("feature %d has an empty name", i)
		}
		if _, dup := v.index[n]; dup {
			return nil, fmt.Errorf("duplicate feature %q", n)
		}
		v.names[i] = n
		v.index[n] = i
	}
	return v, nil
}

// LoadVocabulary reads feature names from a CSV file. A multi-column first
// row is taken as the header of a data file; otherwise each line holds one
// name.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()

	names, err := readFeatureNames(f)
	if err != nil {
		return nil, fmt.Errorf("read features %s: %w", path, err)
	}
	return NewVocabulary(names)
}

func readFeatureNames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("feature file is empty")
		}
		return nil, err
	}
	if len(first) > 1 {
		return first, nil
	}

	names := []string{first[0]}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		names = append(names, rec[0])
	}
	return names, nil
}

// Names returns the columns in model order.
func (v *Vocabulary) Names() []string {
	return v.names
}

func (v *Vocabulary) Len() int {
	return len(v.names)
}

func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Index returns the column position of name.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

// Vector builds the 0/1 input vector for the matched columns. Unknown and
// repeated names are ignored.
func (v *Vocabulary) Vector(matched []string) []float64 {
	vec := make([]float64, len(v.names))
	for _, m := range matched {
		if i, ok := v.index[m]; ok {
			vec[i] = 1
		}
	}
	return vec
}
