package symptoms

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const synonymsJSON = `{
	"fever": ["high temperature", "Pyrexia", "feeling hot"],
	"cough": ["coughing", "hacking"],
	"joint_pain": ["Aching Joints", "arthralgia"],
	"headache": ["head pain", "migraine"],
	"Runny Nose": ["rhinorrhea"]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixture(t *testing.T) (*SynonymTable, *Vocabulary) {
	t.Helper()
	table, err := LoadSynonymTable(writeFile(t, "synonyms.json", synonymsJSON))
	if err != nil {
		t.Fatalf("load synonyms: %v", err)
	}
	vocab, err := NewVocabulary([]string{"fever", "cough", "joint_pain", "headache", "runny_nose", "fatigue"})
	if err != nil {
		t.Fatalf("vocabulary: %v", err)
	}
	return table, vocab
}

func TestLoadSynonymTableKeepsOrder(t *testing.T) {
	table, _ := fixture(t)

	entries := table.Entries()
	want := []string{"fever", "cough", "joint_pain", "headache", "Runny Nose"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Canonical != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], e.Canonical)
		}
	}
	if terms := table.Terms(); terms[0] != "fever" || terms[1] != "high temperature" {
		t.Fatalf("unexpected term order: %v", terms[:2])
	}
	if got, ok := table.Canonical("PYREXIA"); !ok || got != "fever" {
		t.Fatalf("expected case-insensitive lookup, got %q %v", got, ok)
	}
}

func TestSynonymCollisionLastWriterWins(t *testing.T) {
	table := NewSynonymTable([]Entry{
		{Canonical: "fever", Synonyms: []string{"chills"}},
		{Canonical: "shivering", Synonyms: []string{"Chills"}},
	})
	if got, _ := table.Canonical("chills"); got != "shivering" {
		t.Fatalf("expected later entry to win, got %q", got)
	}
	if len(table.Collisions()) != 1 {
		t.Fatalf("expected one collision, got %+v", table.Collisions())
	}
	if len(table.Keys()) != 3 {
		t.Fatalf("expected 3 distinct keys, got %v", table.Keys())
	}
}

func TestDecodeSynonymsRejectsNonObject(t *testing.T) {
	if _, err := DecodeSynonyms(strings.NewReader(`["fever"]`)); err == nil {
		t.Fatal("expected error for array input")
	}
	if _, err := DecodeSynonyms(strings.NewReader(`{"fever": "hot"}`)); err == nil {
		t.Fatal("expected error for non-list synonyms")
	}
}

func TestMergeAppendsEntries(t *testing.T) {
	table, _ := fixture(t)
	merged := table.Merge([]Entry{{Canonical: "fatigue", Synonyms: []string{"feeling hot"}}})
	if got, _ := merged.Canonical("feeling hot"); got != "fatigue" {
		t.Fatalf("expected merged entry to win, got %q", got)
	}
	if got, _ := table.Canonical("feeling hot"); got != "fever" {
		t.Fatalf("original table must not change, got %q", got)
	}
}

func TestLoadVocabulary(t *testing.T) {
	t.Run("header row", func(t *testing.T) {
		v, err := LoadVocabulary(writeFile(t, "X.csv", "fever, cough ,fatigue\n1,0,1\n0,1,0\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Len() != 3 || v.Names()[1] != "cough" {
			t.Fatalf("unexpected names: %v", v.Names())
		}
	})

	t.Run("one per line", func(t *testing.T) {
		v, err := LoadVocabulary(writeFile(t, "features.csv", "fever\ncough\n\nfatigue\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Len() != 3 {
			t.Fatalf("expected 3 names, got %v", v.Names())
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		if _, err := LoadVocabulary(writeFile(t, "dup.csv", "fever,fever\n")); err == nil {
			t.Fatal("expected duplicate error")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadVocabulary(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestVocabularyVector(t *testing.T) {
	_, vocab := fixture(t)
	vec := vocab.Vector([]string{"cough", "fever", "cough", "unknown"})
	want := []float64{1, 1, 0, 0, 0, 0}
	for i := range want {
		if vec[i] != want[i] {
			t.Fatalf("vector mismatch at %d: %v", i, vec)
		}
	}
}

func TestNormalizeSynonymsResolveToCanonical(t *testing.T) {
	table, vocab := fixture(t)
	n := NewNormalizer(table, vocab)

	for _, e := range table.Entries() {
		if !vocab.Contains(e.Canonical) {
			continue
		}
		for _, s := range e.Synonyms {
			for _, variant := range []string{s, strings.ToUpper(s), strings.ToLower(s)} {
				got, ok := n.Normalize(variant)
				if !ok || got != e.Canonical {
					t.Fatalf("Normalize(%q) = %q %v, want %q", variant, got, ok, e.Canonical)
				}
			}
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	table, vocab := fixture(t)
	n := NewNormalizer(table, vocab)

	for _, phrase := range []string{"Fever", "aching joints", "Runny Nose", "Fatigue"} {
		first, ok := n.Normalize(phrase)
		if !ok {
			t.Fatalf("expected %q to resolve", phrase)
		}
		second, ok := n.Normalize(first)
		if !ok || second != first {
			t.Fatalf("Normalize(%q) = %q, not idempotent", first, second)
		}
	}
}

func TestNormalizeLiteralFallback(t *testing.T) {
	table, vocab := fixture(t)
	n := NewNormalizer(table, vocab)

	// "Runny Nose" is not itself a column, so the literal form is used.
	if got, ok := n.Normalize("Runny Nose"); !ok || got != "runny_nose" {
		t.Fatalf("expected runny_nose, got %q %v", got, ok)
	}
	if _, ok := n.Normalize("purple elbows"); ok {
		t.Fatal("expected unmatched phrase")
	}
	if _, ok := n.Normalize("   "); ok {
		t.Fatal("expected blank phrase to be unmatched")
	}
}

func TestNormalizeAll(t *testing.T) {
	table, vocab := fixture(t)
	n := NewNormalizer(table, vocab)

	res := n.NormalizeAll([]string{"Fever", "pyrexia", "Cough", "purple elbows"})
	if strings.Join(res.Matched, ",") != "fever,fever,cough" {
		t.Fatalf("unexpected matched: %v", res.Matched)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "purple elbows" {
		t.Fatalf("unexpected unmatched: %v", res.Unmatched)
	}
}

func TestFirstMatch(t *testing.T) {
	never := func(string) (string, bool) { return "", false }
	upper := func(s string) (string, bool) { return strings.ToUpper(s), true }
	lower := func(s string) (string, bool) { return strings.ToLower(s), true }

	if got, _ := FirstMatch(never, upper, lower)("Ab"); got != "AB" {
		t.Fatalf("expected first successful strategy, got %q", got)
	}
	if _, ok := FirstMatch(never)("x"); ok {
		t.Fatal("expected no match")
	}
}

func TestSuggestEmptyQuery(t *testing.T) {
	table, _ := fixture(t)
	idx := NewSuggestionIndex(table)
	if got := idx.Suggest("", 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := NewSuggestionIndex(NewSynonymTable(nil)).Suggest("", 5); len(got) != 0 {
		t.Fatalf("expected empty suggestions, got %v", got)
	}
}

func TestSuggestCanonicalAndDeduplicated(t *testing.T) {
	table, _ := fixture(t)
	idx := NewSuggestionIndex(table)

	got := idx.Suggest("head", 5)
	if len(got) == 0 || got[0] != "headache" {
		t.Fatalf("expected headache first, got %v", got)
	}
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s] {
			t.Fatalf("duplicate suggestion %q in %v", s, got)
		}
		seen[s] = true
	}
}

func TestSuggestRespectsMax(t *testing.T) {
	var entries []Entry
	for _, name := range []string{"pain a", "pain b", "pain c", "pain d", "pain e", "pain f", "pain g"} {
		entries = append(entries, Entry{Canonical: name})
	}
	idx := NewSuggestionIndex(NewSynonymTable(entries))

	for _, max := range []int{1, 2, 5} {
		if got := idx.Suggest("pain", max); len(got) > max {
			t.Fatalf("max %d exceeded: %v", max, got)
		}
	}
	if got := idx.Suggest("pain", 0); len(got) != DefaultSuggestions {
		t.Fatalf("expected default of %d, got %v", DefaultSuggestions, got)
	}
}

func TestMatch(t *testing.T) {
	table, _ := fixture(t)
	idx := NewSuggestionIndex(table)

	if got, ok := idx.Match("high temprature", 85); !ok || got != "fever" {
		t.Fatalf("expected fever, got %q %v", got, ok)
	}
	if _, ok := idx.Match("bank account", 85); ok {
		t.Fatal("expected no match")
	}
}
