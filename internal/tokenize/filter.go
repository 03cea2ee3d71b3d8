package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// contentPOS are the top-level parts of speech that carry meaning for
// similarity scoring.
var contentPOS = map[string]struct{}{
	"名詞":  {}, // noun
	"動詞":  {}, // verb
	"形容詞": {}, // adjective
	"副詞":  {}, // adverb
}

// excludedSubPOS are sub-category tags whose tokens add noise: numerals and
// inflectional suffixes.
var excludedSubPOS = map[string]struct{}{
	"数":  {},
	"接尾": {},
}

// stopWords are high-frequency words with no topical signal, covering the
// mixed Japanese/English corpus.
var stopWords = map[string]struct{}{
	"する": {}, "なる": {}, "ある": {}, "いる": {}, "できる": {}, "やる": {},
	"こと": {}, "もの": {}, "ため": {}, "よう": {}, "それ": {}, "これ": {},
	"ところ": {}, "ほう": {}, "とき": {}, "さん": {}, "そう": {}, "どう": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {}, "on": {},
	"and": {}, "or": {}, "is": {}, "are": {}, "it": {}, "for": {}, "with": {},
	"this": {}, "that": {}, "be": {}, "as": {}, "at": {}, "by": {},
}

// MeaningfulWords filters tokens down to normalized content words: nouns,
// verbs, adjectives, and adverbs, excluding stop words, numerals,
// single-character tokens, and numeral/suffix sub-categories.
func MeaningfulWords(tokens []Token) []string {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok.POS) == 0 {
			continue
		}
		if _, ok := contentPOS[tok.POS[0]]; !ok {
			continue
		}
		if len(tok.POS) > 1 {
			if _, ok := excludedSubPOS[tok.POS[1]]; ok {
				continue
			}
		}
		word := tok.Word()
		if utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		if isNumeral(word) {
			continue
		}
		words = append(words, word)
	}
	return words
}

// isNumeral reports whether s consists only of digits, separators, and signs
// (e.g. "2024", "1,000", "3.14").
func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(".,+-", r):
		default:
			return false
		}
	}
	return hasDigit
}
