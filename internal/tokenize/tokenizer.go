// Package tokenize wraps morphological analysis behind a small interface so
// the similarity engine and index builder do not depend on a concrete
// analyzer. The production implementation is kagome with the IPA dictionary;
// SplitTokenizer is a whitespace fallback used for index building and tests.
package tokenize

import (
	"context"
	"strings"
	"unicode"
)

// Token is one analyzed token: the surface form as it appeared in the text,
// its part-of-speech feature path, and the normalized (dictionary base) form
// when the analyzer knows one.
type Token struct {
	Surface  string
	BaseForm string
	POS      []string
}

// Word returns the normalized lowercase word for the token: the base form
// when available, otherwise the surface form.
func (t Token) Word() string {
	if t.BaseForm != "" && t.BaseForm != "*" {
		return strings.ToLower(t.BaseForm)
	}
	return strings.ToLower(t.Surface)
}

// Tokenizer converts raw text into a token sequence. Implementations must
// honor ctx cancellation for long inputs.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]Token, error)
}

// SplitTokenizer splits on whitespace and tags every token as a general
// noun, so downstream part-of-speech filtering keeps everything. It is the
// deterministic fallback when morphological analysis is unavailable.
type SplitTokenizer struct{}

// Tokenize splits text on whitespace into noun-tagged tokens.
func (SplitTokenizer) Tokenize(ctx context.Context, text string) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields := strings.FieldsFunc(text, unicode.IsSpace)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, Token{Surface: f, POS: []string{"名詞", "一般"}})
	}
	return tokens, nil
}
