package translate

import (
	"context"
	"time"

	"github.com/vovakirdan/babelchat/internal/metrics"
)

type instrumented struct {
	next     Translator
	provider string
}

// Instrument records the latency of every Translate call under provider.
func Instrument(next Translator, provider string) Translator {
	return &instrumented{next: next, provider: provider}
}

func (t *instrumented) Translate(ctx context.Context, text, source string, targets []string) (map[string]string, error) {
	start := time.Now()
	out, err := t.next.Translate(ctx, text, source, targets)
	metrics.TranslateDuration.WithLabelValues(t.provider).Observe(time.Since(start).Seconds())
	return out, err
}
