package symptoms

import (
	"strings"

	"github.com/Skufu/symptomsense/internal/fuzzy"
)

const (
	// DefaultSuggestions is the number of suggestions returned when the
	// caller does not ask for a specific count.
	DefaultSuggestions = 5

	suggestCandidates = 6
	suggestCutoff     = 60
)

// SuggestionIndex fuzzy-matches partial input against every known term.
type SuggestionIndex struct {
	table *SynonymTable
}

func NewSuggestionIndex(table *SynonymTable) *SuggestionIndex {
	return &SuggestionIndex{table: table}
}

// Suggest returns up to max canonical names for query, best first.
func (s *SuggestionIndex) Suggest(query string, max int) []string {
	out := []string{}
	if strings.TrimSpace(query) == "" {
		return out
	}
	if max <= 0 {
		max = DefaultSuggestions
	}

	seen := make(map[string]struct{})
	for _, m := range fuzzy.ExtractBests(query, s.table.Terms(), suggestCandidates, suggestCutoff) {
		canonical, ok := s.table.Canonical(m.Choice)
		if !ok {
			canonical = m.Choice
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}

	if len(out) > max {
		out = out[:max]
	}
	return out
}

// Match returns the canonical name of the closest known term when it scores
// at least cutoff.
func (s *SuggestionIndex) Match(phrase string, cutoff int) (string, bool) {
	m, ok := fuzzy.ExtractOne(phrase, s.table.Keys(), cutoff)
	if !ok {
		return "", false
	}
	return s.table.Canonical(m.Choice)
}
