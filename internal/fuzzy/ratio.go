// Package fuzzy scores how alike two short strings are on a 0-100 scale.
//
// The scorers follow the fuzzywuzzy family (ratio, partial ratio, token sort,
// token set and the weighted WRatio that picks between them), with the base
// similarity taken from the Levenshtein edit distance.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Process lower-cases s, drops non-ASCII runes, turns every non-word rune
// into a space and trims the result.
func Process(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > unicode.MaxASCII {
			continue
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Ratio is the normalised edit similarity of a and b. Empty input scores 0.
func Ratio(a, b string) int {
	return intr(ratio(a, b))
}

func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// PartialRatio scores the shorter string against its best aligned window of
// the longer one.
func PartialRatio(a, b string) int {
	return intr(partialRatio(a, b))
}

func partialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == len(longer) {
		return ratio(a, b)
	}
	s := string(shorter)
	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		r := ratio(s, string(longer[i:i+len(shorter)]))
		if r > best {
			best = r
			if best >= 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their tokens.
func TokenSortRatio(a, b string) int {
	return intr(ratio(sortedTokens(a), sortedTokens(b)))
}

// PartialTokenSortRatio is TokenSortRatio with partial alignment.
func PartialTokenSortRatio(a, b string) int {
	return intr(partialRatio(sortedTokens(a), sortedTokens(b)))
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// remainder and keeps the best of the three pairings.
func TokenSetRatio(a, b string) int {
	return intr(tokenSet(a, b, ratio))
}

// PartialTokenSetRatio is TokenSetRatio with partial alignment.
func PartialTokenSetRatio(a, b string) int {
	return intr(tokenSet(a, b, partialRatio))
}

func tokenSet(a, b string, score func(string, string) float64) float64 {
	ta, tb := tokenSetOf(a), tokenSetOf(b)
	var inter, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return math.Max(score(sect, combinedA), math.Max(score(sect, combinedB), score(combinedA, combinedB)))
}

// WRatio weighs the other scorers by how different the string lengths are.
// Both inputs are run through Process first.
func WRatio(a, b string) int {
	pa, pb := Process(a), Process(b)
	if pa == "" || pb == "" {
		return 0
	}

	const unbaseScale = 0.95
	partialScale := 0.90
	tryPartial := true

	base := ratio(pa, pb)
	la, lb := float64(len([]rune(pa))), float64(len([]rune(pb)))
	lenRatio := math.Max(la, lb) / math.Min(la, lb)
	if lenRatio < 1.5 {
		tryPartial = false
	}
	if lenRatio > 8 {
		partialScale = 0.6
	}

	if tryPartial {
		partial := partialRatio(pa, pb) * partialScale
		ptsor := partialRatio(sortedTokens(pa), sortedTokens(pb)) * unbaseScale * partialScale
		ptser := tokenSet(pa, pb, partialRatio) * unbaseScale * partialScale
		return intr(max(base, partial, ptsor, ptser))
	}

	tsor := ratio(sortedTokens(pa), sortedTokens(pb)) * unbaseScale
	tser := tokenSet(pa, pb, ratio) * unbaseScale
	return intr(max(base, tsor, tser))
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSetOf(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Fields(s) {
		out[f] = struct{}{}
	}
	return out
}

func intr(v float64) int {
	return int(math.RoundToEven(v))
}
