package moderation

import (
	"chat-hub/errors"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator censors forbidden words in message contents before they are stored.
// Matching ignores case, punctuation and spacing, and understands common leet speak.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
	log          *slog.Logger
}

// textMapping pairs the normalized runes with their position in the original text.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton from the normalized censored words.
// Words that normalize to nothing, like pure punctuation, are ignored.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		if p := normalize([]rune(word)).normalized; len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderation automaton built", "patterns", len(patterns))
	return &Moderator{matcher: m, censoredChar: censoredChar, log: log}, nil
}

// Censor replaces every original character of a forbidden word, noise included, with the censored char.
// Text outside a match is left untouched. It returns the censored content and the matched words in text order.
func (m *Moderator) Censor(original string) (string, []string) {
	runes := []rune(original)
	mapping := normalize(runes)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	matches := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(matches) == 0 {
		return original, nil
	}

	found := make([]string, 0, len(matches))
	for _, match := range matches {
		last := match.Pos + len(match.Word) - 1
		if match.Pos < 0 || last >= len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[match.Pos]; i <= mapping.origIdx[last]; i++ {
			runes[i] = m.censoredChar
		}
		found = append(found, string(match.Word))
	}
	m.log.Debug("Message censored", "matches", len(found))
	return string(runes), found
}

// normalize builds the searchable text and remembers where each kept rune came from.
func normalize(input []rune) textMapping {
	mapping := textMapping{
		normalized: make([]rune, 0, len(input)),
		origIdx:    make([]int, 0, len(input)),
	}
	for i, r := range input {
		if clean := simplifyRune(r); !isNoise(clean) {
			mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
			mapping.origIdx = append(mapping.origIdx, i)
		}
	}
	return mapping
}

// simplifyRune maps leet speak characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
