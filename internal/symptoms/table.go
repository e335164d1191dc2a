// Package symptoms resolves user symptom phrasing to the feature columns of
// the disease classifier.
package symptoms

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one canonical symptom and its known synonyms.
type Entry struct {
	Canonical string
	Synonyms  []string
}

// Collision records a lower-cased term that was claimed by more than one
// canonical symptom. The later claim wins.
type Collision struct {
	Term     string
	Previous string
	Current  string
}

// SynonymTable maps user phrasing to canonical symptom names. It is built
// once and only read afterwards.
type SynonymTable struct {
	entries    []Entry
	terms      []string
	keys       []string
	reverse    map[string]string
	collisions []Collision
}

// NewSynonymTable builds the reverse index from entries in order.
func NewSynonymTable(entries []Entry) *SynonymTable {
	t := &SynonymTable{
		entries: make([]Entry, 0, len(entries)),
		reverse: make(map[string]string),
	}
	for _, e := range entries {
		syns := append([]string(nil), e.Synonyms...)
		t.entries = append(t.entries, Entry{Canonical: e.Canonical, Synonyms: syns})

		t.add(e.Canonical, e.Canonical)
		for _, s := range syns {
			t.add(s, e.Canonical)
		}
	}
	return t
}

func (t *SynonymTable) add(term, canonical string) {
	t.terms = append(t.terms, term)
	key := strings.ToLower(term)
	prev, seen := t.reverse[key]
	if !seen {
		t.keys = append(t.keys, key)
	} else if prev != canonical {
		t.collisions = append(t.collisions, Collision{Term: key, Previous: prev, Current: canonical})
	}
	t.reverse[key] = canonical
}

// Canonical resolves term (case-insensitively) to its canonical name.
func (t *SynonymTable) Canonical(term string) (string, bool) {
	c, ok := t.reverse[strings.ToLower(term)]
	return c, ok
}

// Terms returns every canonical name and synonym in load order. Repeated
// terms are kept.
func (t *SynonymTable) Terms() []string {
	return t.terms
}

// Keys returns the distinct lower-cased lookup keys in first-seen order.
func (t *SynonymTable) Keys() []string {
	return t.keys
}

// Entries returns a copy of the table contents.
func (t *SynonymTable) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Collisions lists terms that mapped to more than one canonical name.
func (t *SynonymTable) Collisions() []Collision {
	return t.collisions
}

// Len is the number of reverse-index keys.
func (t *SynonymTable) Len() int {
	return len(t.reverse)
}

// Merge returns a new table with extra appended after the current entries.
func (t *SynonymTable) Merge(extra []Entry) *SynonymTable {
	all := make([]Entry, 0, len(t.entries)+len(extra))
	all = append(all, t.entries...)
	all = append(all, extra...)
	return NewSynonymTable(all)
}

// LoadSynonymTable reads a JSON object of canonical name to synonym list.
func LoadSynonymTable(path string) (*SynonymTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open synonyms: %w", err)
	}
	defer f.Close()

	entries, err := DecodeSynonyms(f)
	if err != nil {
		return nil, fmt.Errorf("decode synonyms %s: %w", path, err)
	}
	return NewSynonymTable(entries), nil
}

// DecodeSynonyms decodes the synonym object keeping the document order of its
// keys, which decides which entry wins a collision.
func DecodeSynonyms(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}
		var syns []string
		if err := dec.Decode(&syns); err != nil {
			return nil, fmt.Errorf("synonyms for %q: %w", key, err)
		}
		entries = append(entries, Entry{Canonical: key, Synonyms: syns})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}
