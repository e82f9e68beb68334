// Package translate turns a chat message into one text per display language.
//
// Every Translator returns a map that holds the source language mapped to the
// untouched input text, plus one entry per distinct target language. A failure
// for a single target never fails the call; the target gets Placeholder(text)
// instead.
package translate

import (
	"context"

	"github.com/samber/lo"
)

// Translator translates text from source into each of targets.
type Translator interface {
	Translate(ctx context.Context, text, source string, targets []string) (map[string]string, error)
}

// ErrorPrefix marks text that could not be translated.
const ErrorPrefix = "[Translation error] "

// Placeholder is substituted for a target language whose translation failed.
func Placeholder(text string) string {
	return ErrorPrefix + text
}

// pendingTargets returns the distinct non-empty targets other than source.
func pendingTargets(source string, targets []string) []string {
	return lo.Filter(lo.Uniq(targets), func(lang string, _ int) bool {
		return lang != "" && lang != source
	})
}
