// Package textproc implements text normalization shared by model training and message classification.
// The same Normalize function must be used on both sides, any difference in the steps degrades the model silently.
//
// Normalization steps, in this order:
//
//   - lowercase the whole text
//   - remove emoji, punctuation and symbol characters (removed, not replaced with space)
//   - split to tokens on whitespace
//   - drop english stop-words
//   - stem each remaining token with snowball (porter2) english stemmer
//   - join tokens with a single space
//
// Normalizer wraps Normalize with a bounded LRU cache, safe for concurrent use.
package textproc

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/kljensen/snowball/english"
)

// Normalize converts a raw message to the normalized form. It never fails, empty or
// punctuation-only input results in an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := stripPunct(strings.ToLower(text))
	tokens := strings.Fields(cleaned)
	res := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if IsStopWord(token) {
			continue
		}
		stem := english.Stem(token, true)
		if stem == "" {
			continue
		}
		res = append(res, stem)
	}
	return strings.Join(res, " ")
}

// stripPunct removes emoji, punctuation, symbols and invisible format characters.
// Whitespace is kept as is, to be used for tokenization.
func stripPunct(text string) string {
	text = gomoji.RemoveEmojis(text)
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.Is(unicode.Cf, r) || unicode.IsMark(r) {
			continue
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
