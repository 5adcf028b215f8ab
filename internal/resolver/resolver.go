// Package resolver maps OCR transcripts onto the closest known name.
package resolver

import (
	"errors"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyVocabulary indicates a configuration without any names.
var ErrEmptyVocabulary = errors.New("vocabulary is empty")

// Match is the result of resolving one candidate.
type Match struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
	// Index is the position of Name in the vocabulary.
	Index int `json:"index"`
}

// Vocabulary is an immutable, ordered list of known names. It is safe for
// concurrent use.
type Vocabulary struct {
	names []string
}

// NewVocabulary snapshots names. Entries are trimmed and NFC-normalized;
// blank entries are skipped and duplicates keep their first position.
func NewVocabulary(names []string) (*Vocabulary, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = norm.NFC.String(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, ErrEmptyVocabulary
	}
	return &Vocabulary{names: out}, nil
}

// Len returns the number of names.
func (v *Vocabulary) Len() int { return len(v.names) }

// Names returns a copy of the names in vocabulary order.
func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}

// Resolve returns the name with the smallest Levenshtein distance to
// candidate. Ties go to the earliest name.
func (v *Vocabulary) Resolve(candidate string) Match {
	i, d := nearest(norm.NFC.String(candidate), v.names)
	return Match{Name: v.names[i], Distance: d, Index: i}
}

// Resolve is a convenience wrapper for one-off lookups. The entries are
// used as given: blanks and duplicates take part in the search and the
// returned name is the caller's entry. Only the comparison is NFC-normalized.
// It fails only when vocabulary has no entries.
func Resolve(candidate string, vocabulary []string) (string, error) {
	if len(vocabulary) == 0 {
		return "", ErrEmptyVocabulary
	}
	keys := make([]string, len(vocabulary))
	for i, n := range vocabulary {
		keys[i] = norm.NFC.String(n)
	}
	i, _ := nearest(norm.NFC.String(candidate), keys)
	return vocabulary[i], nil
}

// nearest returns the index and distance of the first of names closest to
// candidate. names must not be empty.
func nearest(candidate string, names []string) (int, int) {
	best, bestDist := 0, levenshtein.ComputeDistance(candidate, names[0])
	for i := 1; i < len(names) && bestDist > 0; i++ {
		if d := levenshtein.ComputeDistance(candidate, names[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
