package fuzzy

import "sort"

// Match is a scored choice.
type Match struct {
	Choice string
	Index  int
	Score  int
}

// ExtractBests scores every choice against query with WRatio, drops those
// below cutoff and returns up to limit matches by descending score. Equal
// scores keep the order of choices. A limit of zero or less means no limit.
func ExtractBests(query string, choices []string, limit, cutoff int) []Match {
	if Process(query) == "" {
		return nil
	}

	matches := make([]Match, 0, len(choices))
	for i, choice := range choices {
		score := WRatio(query, choice)
		if score < cutoff {
			continue
		}
		matches = append(matches, Match{Choice: choice, Index: i, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// ExtractOne returns the single best choice scoring at least cutoff.
func ExtractOne(query string, choices []string, cutoff int) (Match, bool) {
	best := ExtractBests(query, choices, 1, cutoff)
	if len(best) == 0 {
		return Match{}, false
	}
	return best[0], true
}
