package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStubTranslate(t *testing.T) {
	req := require.New(t)

	out, err := NewStub().Translate(context.Background(), "Hello", "en", []string{"en", "es", "fr", "es"})
	req.NoError(err)
	req.Equal(map[string]string{
		"en": "Hello",
		"es": "[es] Hello",
		"fr": "[fr] Hello",
	}, out)
}

func TestStubTranslateIncludesSourceOutsideTargets(t *testing.T) {
	req := require.New(t)

	out, err := NewStub().Translate(context.Background(), "Hola", "es", []string{"en", "de"})
	req.NoError(err)
	req.Len(out, 3)
	req.Equal("Hola", out["es"])
	for lang, text := range out {
		req.NotEmpty(text, lang)
	}
}

func TestStubTranslateEmptyTargets(t *testing.T) {
	out, err := NewStub().Translate(context.Background(), "Hello", "en", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"en": "Hello"}, out)
}

func TestLanguageCatalog(t *testing.T) {
	req := require.New(t)

	req.True(Supported("es"))
	req.True(Supported("ES"))
	req.False(Supported("xx"))
	req.Equal("Japanese", Name("ja"))
	req.Equal("xx", Name("xx"))

	langs := Languages()
	req.Len(langs, 12)
	req.Equal("ar", langs[0].Code)
}

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func newCompletionServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Messages) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		system, text := body.Messages[0].Content, body.Messages[1].Content

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(system, "to Spanish (es)"):
			_ = json.NewEncoder(w).Encode(completion("  Hola  "))
		case strings.Contains(system, "to German (de)"):
			_ = json.NewEncoder(w).Encode(completion(""))
		case strings.Contains(system, "to Japanese (ja)"):
			time.Sleep(300 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(completion("こんにちは"))
		case strings.Contains(system, "to French (fr)"):
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		default:
			_ = json.NewEncoder(w).Encode(completion(text))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestOpenAITranslate(t *testing.T) {
	req := require.New(t)
	var calls atomic.Int32
	ts := newCompletionServer(t, &calls)

	provider, err := NewOpenAI(OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     ts.URL + "/v1",
		Temperature: 0.3,
		Timeout:     100 * time.Millisecond,
		Parallelism: 2,
	}, nil)
	req.NoError(err)

	out, err := provider.Translate(context.Background(), "Hello", "en", []string{"en", "es", "fr", "de", "ja"})
	req.NoError(err)

	req.Equal("Hello", out["en"])
	req.Equal("Hola", out["es"])
	req.Equal(Placeholder("Hello"), out["fr"])
	req.Equal("Hello", out["de"], "empty completion falls back to the original text")
	req.Equal(Placeholder("Hello"), out["ja"], "timed out request becomes a placeholder")
	req.Equal(int32(4), calls.Load(), "source language is never requested")
}

func TestOpenAITranslateWithoutTargetsMakesNoRequests(t *testing.T) {
	var calls atomic.Int32
	ts := newCompletionServer(t, &calls)

	provider, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: ts.URL + "/v1"}, nil)
	require.NoError(t, err)

	out, err := provider.Translate(context.Background(), "Hello", "en", []string{"en"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"en": "Hello"}, out)
	require.Zero(t, calls.Load())
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{}, nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSystemPrompt(t *testing.T) {
	prompt := systemPrompt("en", "xx")
	require.Equal(t, "You are a translator. Translate the following text from English (en) to xx. Provide only the translated text without explanations.", prompt)
}

func TestInstrumentPassesThrough(t *testing.T) {
	tr := Instrument(NewStub(), "stub")
	out, err := tr.Translate(context.Background(), "Hi", "en", []string{"ko"})
	require.NoError(t, err)
	require.Equal(t, "[ko] Hi", out["ko"])
}
