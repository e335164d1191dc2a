package symptoms

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Strategy tries to resolve a cleaned phrase to a feature column.
type Strategy func(phrase string) (string, bool)

// FirstMatch runs strategies in order and returns the first resolution.
func FirstMatch(strategies ...Strategy) Strategy {
	return func(phrase string) (string, bool) {
		for _, s := range strategies {
			if name, ok := s(phrase); ok {
				return name, true
			}
		}
		return "", false
	}
}

// Normalizer maps raw user phrases to feature columns.
type Normalizer struct {
	table   *SynonymTable
	vocab   *Vocabulary
	resolve Strategy
}

// NewNormalizer tries the synonym table first and the literal
// lower_snake_case form second.
func NewNormalizer(table *SynonymTable, vocab *Vocabulary) *Normalizer {
	n := &Normalizer{table: table, vocab: vocab}
	n.resolve = FirstMatch(n.bySynonym, n.byLiteral)
	return n
}

func (n *Normalizer) bySynonym(phrase string) (string, bool) {
	canonical, ok := n.table.Canonical(phrase)
	if !ok || !n.vocab.Contains(canonical) {
		return "", false
	}
	return canonical, true
}

func (n *Normalizer) byLiteral(phrase string) (string, bool) {
	literal := strings.ReplaceAll(strings.ToLower(phrase), " ", "_")
	if !n.vocab.Contains(literal) {
		return "", false
	}
	return literal, true
}

// Normalize resolves raw to a feature column.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	phrase := cleanPhrase(raw)
	if phrase == "" {
		return "", false
	}
	return n.resolve(phrase)
}

// Result splits phrases into resolved columns and leftovers. Matched keeps
// input order and may repeat a column.
type Result struct {
	Matched   []string
	Unmatched []string
}

func (n *Normalizer) NormalizeAll(phrases []string) Result {
	res := Result{Matched: []string{}, Unmatched: []string{}}
	for _, p := range phrases {
		if name, ok := n.Normalize(p); ok {
			res.Matched = append(res.Matched, name)
			continue
		}
		res.Unmatched = append(res.Unmatched, p)
	}
	return res
}

func cleanPhrase(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
