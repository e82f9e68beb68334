package translate

import (
	"sort"
	"strings"
)

// Language is an entry of the supported language catalog.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var catalog = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
}

// Supported reports whether code is in the catalog.
func Supported(code string) bool {
	_, ok := catalog[strings.ToLower(code)]
	return ok
}

// Name returns the display name for code, or code itself when unknown.
func Name(code string) string {
	if name, ok := catalog[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Languages lists the catalog ordered by code.
func Languages() []Language {
	out := make([]Language, 0, len(catalog))
	for code, name := range catalog {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
