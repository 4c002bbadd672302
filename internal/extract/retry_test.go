package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/config"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
)

// scripted returns the queued errors in order, then the cards.
type scripted struct {
	errs  []error
	cards []card.Flashcard
	calls int
}

func (s *scripted) Extract(_ context.Context, _ string) ([]card.Flashcard, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.cards, nil
}

type recorder struct {
	delays []time.Duration
	logs   []string
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func (r *recorder) logf(format string, args ...any) {
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

func newTestGateway(next Extractor, rec *recorder) *Gateway {
	return NewGateway(next, DefaultRetryPolicy(), WithSleep(rec.sleep), WithLogf(rec.logf))
}

var oneCard = []card.Flashcard{{CardID: 1, Front: card.FrontContent{CommentText: "x"}}}

func TestGateway_RetriesRateLimitThenSucceeds(t *testing.T) {
	backend := &scripted{
		errs: []error{
			&APIError{Provider: "gemini", Status: 429, Code: "RESOURCE_EXHAUSTED", Message: "slow down"},
			fmt.Errorf("quota exceeded for project"),
		},
		cards: oneCard,
	}
	rec := &recorder{}

	cards, err := newTestGateway(backend, rec).Extract(context.Background(), "1. e4")
	require.NoError(t, err)
	require.Equal(t, oneCard, cards)
	require.Equal(t, 3, backend.calls)
	require.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, rec.delays)
	require.Len(t, rec.logs, 2)
}

func TestGateway_NonRateLimitFailsImmediately(t *testing.T) {
	boom := fmt.Errorf("connection refused")
	backend := &scripted{errs: []error{boom}, cards: oneCard}
	rec := &recorder{}

	_, err := newTestGateway(backend, rec).Extract(context.Background(), "1. e4")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, backend.calls)
	require.Empty(t, rec.delays)
}

func TestGateway_MalformedResponseIsNotRetried(t *testing.T) {
	backend := ExtractorFunc(func(context.Context, string) ([]card.Flashcard, error) {
		return decodeText("sorry, 429 positions is too many")
	})
	rec := &recorder{}

	_, err := newTestGateway(backend, rec).Extract(context.Background(), "pgn")
	require.True(t, errors.Is(err, errors.ErrMalformedResponse))
	require.Empty(t, rec.delays)
}

func TestGateway_ExhaustedReturnsLastError(t *testing.T) {
	first := &APIError{Provider: "gemini", Status: 429, Message: "first"}
	last := &APIError{Provider: "gemini", Status: 429, Message: "last"}
	backend := &scripted{errs: []error{first, first, last}}
	rec := &recorder{}

	_, err := newTestGateway(backend, rec).Extract(context.Background(), "pgn")
	require.Same(t, last, err)
	require.Equal(t, 3, backend.calls)
	require.Len(t, rec.delays, 2)
}

func TestGateway_SleepHonoursContext(t *testing.T) {
	backend := &scripted{errs: []error{&APIError{Status: 429}}, cards: oneCard}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGateway(backend, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}, WithLogf(func(string, ...any) {}))
	_, err := g.Extract(ctx, "pgn")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, backend.calls)
}

func TestNewGateway_ClampsAttempts(t *testing.T) {
	g := NewGateway(&scripted{}, RetryPolicy{})
	require.Equal(t, 1, g.Policy().MaxAttempts)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, 3*time.Second, p.Delay(0))
	require.Equal(t, 6*time.Second, p.Delay(1))
	require.Equal(t, 12*time.Second, p.Delay(2))
}

func TestNew_Providers(t *testing.T) {
	cfg := config.DefaultConfig()
	g, err := New(cfg)
	require.NoError(t, err)
	require.IsType(t, &GeminiClient{}, g.next)
	require.Equal(t, 3*time.Second, g.Policy().BaseDelay)

	cfg.Provider = config.ProviderAnthropic
	g, err = New(cfg)
	require.NoError(t, err)
	require.IsType(t, &AnthropicClient{}, g.next)

	cfg.Provider = config.ProviderFixture
	_, err = New(cfg)
	require.Error(t, err)

	cfg.Provider = "openai"
	_, err = New(cfg)
	require.Error(t, err)
}

func TestFixtureExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	data := `[{"card_id": 1, "front_content": {"comment_text": "Pins the knight"},
	  "back_content": {"position_fen": "8/8/8/8/8/8/8/8", "main_line_move": "Bb5",
	  "variations_text": "", "move_number": 3, "player_to_move": "White"}}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderFixture
	cfg.FixturePath = path
	g, err := New(cfg)
	require.NoError(t, err)

	cards, err := g.Extract(context.Background(), "ignored")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, "Pins the knight", cards[0].Front.CommentText)

	_, err = (&FixtureExtractor{Path: filepath.Join(t.TempDir(), "missing.json")}).Extract(context.Background(), "")
	require.Error(t, err)
}
