package translate

import (
	"context"
	"fmt"
)

// Stub is the offline Translator: it tags the original text with the target
// language, e.g. "[es] Hello".
type Stub struct{}

// NewStub returns a Stub translator.
func NewStub() Stub {
	return Stub{}
}

// Translate implements Translator.
func (Stub) Translate(_ context.Context, text, source string, targets []string) (map[string]string, error) {
	out := map[string]string{source: text}
	for _, lang := range pendingTargets(source, targets) {
		out[lang] = fmt.Sprintf("[%s] %s", lang, text)
	}
	return out, nil
}
