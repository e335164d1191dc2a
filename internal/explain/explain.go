// Package explain turns a feature-attribution vector into a short sentence
// naming the symptoms that drove a prediction.
package explain

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// TopK is how many features an explanation names at most.
	TopK = 3

	Unavailable = "Explanation is not available due to a server limitation."
	ShapeError  = "Model explanation is unavailable (internal)"
)

// Input is everything the selector looks at for one prediction.
type Input struct {
	Vector      []float64
	Attribution []float64
	Disease     string
	Features    []string
}

// rule produces an explanation or declines.
type rule func(in Input, top []int) (string, bool)

// Explain names the features that pushed the prediction toward Disease. It
// always returns a non-empty sentence.
func Explain(in Input) string {
	if in.Attribution == nil {
		return Unavailable
	}
	top := TopIndices(in.Attribution, TopK)
	for _, r := range []rule{presentAndPositive, topRegardless, generic} {
		if text, ok := r(in, top); ok {
			return text
		}
	}
	return Unavailable
}

// TopIndices returns the indices of the k largest scores, highest first.
// Equal scores keep index order.
func TopIndices(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	return idx
}

func presentAndPositive(in Input, top []int) (string, bool) {
	var names []string
	for _, i := range top {
		if present(in.Vector, i) && in.Attribution[i] > 0 {
			if name, ok := featureName(in.Features, i); ok {
				names = append(names, name)
			}
		}
	}
	return sentence(names)
}

// topRegardless names the shortlist whatever the sign, as long as the user
// reported at least one of those symptoms.
func topRegardless(in Input, top []int) (string, bool) {
	anyPresent := false
	var names []string
	for _, i := range top {
		if present(in.Vector, i) {
			anyPresent = true
		}
		if name, ok := featureName(in.Features, i); ok {
			names = append(names, name)
		}
	}
	if !anyPresent {
		return "", false
	}
	return sentence(names)
}

func generic(in Input, _ []int) (string, bool) {
	if in.Disease == "" {
		return "The prediction was based on your provided symptoms.", true
	}
	return fmt.Sprintf("The prediction for <b>%s</b> was based on your provided symptoms.", in.Disease), true
}

func sentence(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	if len(names) > TopK {
		names = names[:TopK]
	}
	nice := make([]string, len(names))
	for i, n := range names {
		nice[i] = Humanize(n)
	}
	return "Most important symptoms for this prediction: " + strings.Join(nice, ", ") + ".", true
}

func present(vec []float64, i int) bool {
	return i < len(vec) && vec[i] == 1
}

func featureName(features []string, i int) (string, bool) {
	if i < 0 || i >= len(features) {
		return "", false
	}
	return features[i], true
}

// Humanize turns a column name such as "joint_pain" into "Joint pain".
func Humanize(name string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
