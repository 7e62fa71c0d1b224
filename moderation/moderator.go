// Package moderation masks censored words in posted remarks before they
// reach the store. Disabled unless a word list is configured: the default
// board stores content verbatim.
package moderation

import (
	"bufio"
	"os"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"remarks/errors"
)

// Moderator runs an Aho-Corasick matcher over a normalized view of the text
// (lowercased, separators dropped) so spaced-out variants of a censored word
// are still caught, then masks the matching runes of the original text.
type Moderator struct {
	matcher  *goahocorasick.Machine
	maskRune rune
}

// LoadWords reads a newline-separated censored word list. Blank lines and
// lines starting with '#' are skipped.
func LoadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return words, nil
}

func NewModerator(words []string, maskRune rune) (*Moderator, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		normalized, _ := normalize(word)
		patterns[i] = normalized
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, maskRune: maskRune}, nil
}

// Censor replaces every rune of a matched word with the mask rune, keeping
// the surrounding text (including separators inside the match) untouched in
// length and position.
func (m *Moderator) Censor(original string) string {
	normalized, origIdx := normalize(original)
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original
	}

	runes := []rune(original)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = m.maskRune
		}
	}
	return string(runes)
}

// normalize lowercases the input and drops spacing and punctuation, keeping
// for each surviving rune its index in the original string.
func normalize(input string) ([]rune, []int) {
	original := []rune(input)
	normalized := make([]rune, 0, len(original))
	origIdx := make([]int, 0, len(original))
	for i, r := range original {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}
