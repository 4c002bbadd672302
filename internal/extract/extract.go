// Package extract turns annotated PGN text into flashcards through a hosted language model.
//
// Backends implement Extractor. Gateway wraps any of them with the rate-limit retry policy,
// and New builds the configured backend already wrapped.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/config"
)

// Extractor produces flashcards from PGN text.
type Extractor interface {
	Extract(ctx context.Context, pgn string) ([]card.Flashcard, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, pgn string) ([]card.Flashcard, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, pgn string) ([]card.Flashcard, error) {
	return f(ctx, pgn)
}

// defaultHTTPTimeout bounds a single provider call.
const defaultHTTPTimeout = 5 * time.Minute

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// New builds the backend selected by cfg.Provider wrapped in a retrying Gateway.
func New(cfg *config.Config) (*Gateway, error) {
	var backend Extractor
	switch cfg.Provider {
	case config.ProviderGemini, "":
		backend = NewGeminiClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderAnthropic:
		backend = NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderFixture:
		if cfg.FixturePath == "" {
			return nil, fmt.Errorf("fixture provider requires fixture_path")
		}
		backend = &FixtureExtractor{Path: cfg.FixturePath}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	policy := RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
	}
	return NewGateway(backend, policy), nil
}
