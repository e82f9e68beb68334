package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/babelchat/internal/metrics"
)

const providerOpenAI = "openai"

// ErrMissingAPIKey is returned by NewOpenAI when no credentials are configured.
var ErrMissingAPIKey = errors.New("openai api key is required")

// OpenAIConfig configures the chat-completion translator.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// Timeout bounds each per-language request. Zero means no timeout.
	Timeout time.Duration
	// Parallelism caps concurrent per-language requests. Zero or less means unbounded.
	Parallelism int
}

// OpenAI translates through a hosted chat-completion model, one request per
// target language.
type OpenAI struct {
	client *openai.Client
	cfg    OpenAIConfig
	log    *zerolog.Logger
}

// NewOpenAI builds the provider. BaseURL may point at any OpenAI-compatible endpoint.
func NewOpenAI(cfg OpenAIConfig, logger *zerolog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		log:    logger,
	}, nil
}

// Translate implements Translator. Requests for different targets run concurrently.
func (p *OpenAI) Translate(ctx context.Context, text, source string, targets []string) (map[string]string, error) {
	out := map[string]string{source: text}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if p.cfg.Parallelism > 0 {
		g.SetLimit(p.cfg.Parallelism)
	}

	for _, lang := range pendingTargets(source, targets) {
		g.Go(func() error {
			translated, err := p.translateOne(ctx, text, source, lang)
			outcome := metrics.OutcomeOK
			if err != nil {
				outcome = metrics.OutcomeFailed
				translated = Placeholder(text)
				p.log.Warn().Err(err).Str("source", source).Str("target", lang).Msg("translation failed")
			}
			metrics.Translations.WithLabelValues(providerOpenAI, lang, outcome).Inc()

			mu.Lock()
			out[lang] = translated
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

func (p *OpenAI) translateOne(ctx context.Context, text, source, target string) (string, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(source, target)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion %s->%s: %w", source, target, err)
	}
	if len(resp.Choices) == 0 {
		return text, nil
	}
	if translated := strings.TrimSpace(resp.Choices[0].Message.Content); translated != "" {
		return translated, nil
	}
	return text, nil
}

func systemPrompt(source, target string) string {
	return fmt.Sprintf(
		"You are a translator. Translate the following text from %s to %s. Provide only the translated text without explanations.",
		languageLabel(source), languageLabel(target),
	)
}

func languageLabel(code string) string {
	if name := Name(code); name != code {
		return fmt.Sprintf("%s (%s)", name, code)
	}
	return code
}
