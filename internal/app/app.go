package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/babelchat/internal/config"
	"github.com/vovakirdan/babelchat/internal/core"
	"github.com/vovakirdan/babelchat/internal/metrics"
	"github.com/vovakirdan/babelchat/internal/translate"
	transporthttp "github.com/vovakirdan/babelchat/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	translator, provider, err := newTranslator(cfg.Translation, logger)
	if err != nil {
		return nil, fmt.Errorf("init translator: %w", err)
	}
	logger.Info().Str("provider", provider).Msg("translation provider ready")

	registry := core.NewRegistry(core.WithMetrics(metrics.Rooms, metrics.RoomsReaped))
	hub := core.NewHub(registry, translate.Instrument(translator, provider), logger, core.Options{
		RejectUnknownRoom: cfg.RejectUnknownRoom,
		RoomIdleTTL:       cfg.RoomIdleTTL,
		ReapInterval:      cfg.RoomReapInterval,
	})
	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}, nil
}

// newTranslator picks the configured provider. An openai provider without an
// API key degrades to the stub so local runs work without credentials.
func newTranslator(cfg config.TranslationConfig, logger *zerolog.Logger) (translate.Translator, string, error) {
	if cfg.Provider != config.ProviderOpenAI {
		return translate.NewStub(), config.ProviderStub, nil
	}

	p, err := translate.NewOpenAI(translate.OpenAIConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		Parallelism: cfg.Parallelism,
	}, logger)
	if errors.Is(err, translate.ErrMissingAPIKey) {
		logger.Warn().Msg("openai api key not set, falling back to stub translator")
		return translate.NewStub(), config.ProviderStub, nil
	}
	if err != nil {
		return nil, "", err
	}
	return p, config.ProviderOpenAI, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
