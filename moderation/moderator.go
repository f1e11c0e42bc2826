// Package moderation censors forbidden words in outbound message text before
// persistence. Matching is case-insensitive and ignores separators inside
// words, so "b a d" still matches "bad".
package moderation

import (
	"chat-relay/errors"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// NewModerator builds the Aho-Corasick automaton over normalized word forms.
func NewModerator(censoredWords []string, censoredChar rune) (*Moderator, error) {
	if len(censoredWords) == 0 {
		return nil, errors.ErrEmptyCensoredWords
	}
	patterns := make([][]rune, len(censoredWords))
	for i, word := range censoredWords {
		patterns[i] = normalize([]rune(word), nil)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, censoredChar: censoredChar}, nil
}

// Censor replaces every matched span with the censor character, preserving the
// original length and spacing of the text.
func (m *Moderator) Censor(original string) string {
	origRunes := []rune(original)
	var origIdx []int
	normalized := normalize(origRunes, &origIdx)
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Map normalized positions back to the original rune range.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.censoredChar
		}
	}
	return string(origRunes)
}

// normalize lowercases and strips separators. When idx is non-nil it records,
// per kept rune, its position in the input so matches can be mapped back.
func normalize(input []rune, idx *[]int) []rune {
	out := make([]rune, 0, len(input))
	for i, r := range input {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		if idx != nil {
			*idx = append(*idx, i)
		}
	}
	return out
}
