// Package category holds the closed set of spending labels, turns raw model
// output into one of them, and maps labels to chart colours.
package category

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Outcome tells how a raw response was mapped to a label.
type Outcome string

const (
	OutcomeExact      Outcome = "exact"
	OutcomeNormalized Outcome = "normalized"
	OutcomeFallback   Outcome = "fallback"
)

// maxEditDistance bounds how far a response may be from a label and still
// count as that label ("Alimentacao" -> "Alimentação").
const maxEditDistance = 2

// answerPrefixes are lead-ins accepted before a label, in folded form:
// "Categoria: Moradia".
var answerPrefixes = []string{"categoria:", "category:", "resposta:", "categoria", "resposta"}

// Set is an allow-list of labels plus the catch-all used for anything else.
type Set struct {
	labels   []string
	fallback string
	folded   map[string]string // fold(label) -> label
}

// NewSet builds a Set. The fallback joins the allow-list if it is not
// already there.
func NewSet(labels []string, fallback string) (*Set, error) {
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		return nil, errors.New("fallback category is required")
	}

	s := &Set{fallback: fallback, folded: make(map[string]string, len(labels)+1)}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := fold(l)
		if prev, ok := s.folded[key]; ok {
			return nil, fmt.Errorf("duplicate category %q (same as %q)", l, prev)
		}
		s.folded[key] = l
		s.labels = append(s.labels, l)
	}
	if len(s.labels) == 0 {
		return nil, errors.New("at least one category is required")
	}
	if _, ok := s.folded[fold(fallback)]; !ok {
		s.folded[fold(fallback)] = fallback
		s.labels = append(s.labels, fallback)
	}
	return s, nil
}

// Labels returns the allow-list, fallback included, in configured order.
func (s *Set) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Fallback returns the catch-all label.
func (s *Set) Fallback() string { return s.fallback }

// Contains reports whether label is exactly one of the allowed labels.
func (s *Set) Contains(label string) bool {
	l, ok := s.folded[fold(label)]
	return ok && l == label
}

// Sanitize maps a raw model response onto the allow-list. Anything that
// cannot be matched becomes the fallback label.
func (s *Set) Sanitize(raw string) (string, Outcome) {
	text := Strip(firstLine(raw))
	if text == "" {
		return s.fallback, OutcomeFallback
	}
	for _, l := range s.labels {
		if l == text {
			return l, OutcomeExact
		}
	}

	key := fold(text)
	if l, ok := s.folded[key]; ok {
		return l, OutcomeNormalized
	}

	for _, prefix := range answerPrefixes {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			if l, ok := s.folded[strings.TrimSpace(rest)]; ok {
				return l, OutcomeNormalized
			}
		}
	}

	best := ""
	bestDist := maxEditDistance + 1
	for _, l := range s.labels {
		if d := levenshtein.ComputeDistance(key, fold(l)); d < bestDist {
			best, bestDist = l, d
		}
	}
	if best != "" {
		return best, OutcomeNormalized
	}
	return s.fallback, OutcomeFallback
}

// Strip removes quoting and punctuation artifacts around a label:
// "['Alimentação.']" -> "Alimentação".
func Strip(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '\'', '"', '.', ',', '`', '*':
			return -1
		}
		return r
	}, raw)
	return strings.Join(strings.Fields(cleaned), " ")
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// fold lowercases and drops accents so "SAÚDE" and "saude" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}
