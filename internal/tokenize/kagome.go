package tokenize

import (
	"context"
	"fmt"
	"time"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// initTimeout bounds dictionary loading. Initialization past this bound is
// treated as fatal by the caller since nothing downstream is meaningful
// without the analyzer.
const initTimeout = 60 * time.Second

// Kagome is the production Tokenizer backed by the kagome morphological
// analyzer with the IPA dictionary. Initialize once and reuse; the
// underlying tokenizer is safe for concurrent use.
type Kagome struct {
	t *tokenizer.Tokenizer
}

// NewKagome loads the IPA dictionary and returns a ready tokenizer. The load
// runs in the background and is abandoned after initTimeout or when ctx is
// cancelled, whichever comes first.
func NewKagome(ctx context.Context) (*Kagome, error) {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	type loaded struct {
		t   *tokenizer.Tokenizer
		err error
	}
	ch := make(chan loaded, 1)
	go func() {
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		ch <- loaded{t: t, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("tokenizer initialization: %w", ctx.Err())
	case l := <-ch:
		if l.err != nil {
			return nil, fmt.Errorf("tokenizer initialization: %w", l.err)
		}
		return &Kagome{t: l.t}, nil
	}
}

// Tokenize analyzes text into morphemes. The analysis runs in a goroutine
// and the slower side is discarded when ctx expires first.
func (k *Kagome) Tokenize(ctx context.Context, text string) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan []Token, 1)
	go func() {
		morphemes := k.t.Tokenize(text)
		tokens := make([]Token, 0, len(morphemes))
		for _, m := range morphemes {
			tok := Token{Surface: m.Surface, POS: m.POS()}
			if base, ok := m.BaseForm(); ok {
				tok.BaseForm = base
			}
			tokens = append(tokens, tok)
		}
		ch <- tokens
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tokens := <-ch:
		return tokens, nil
	}
}
