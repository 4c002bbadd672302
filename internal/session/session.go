// Package session holds the in-memory state of one flashcard session:
// the game record, the current batch, status flags and the render cache.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
	"github.com/evanzqian-eng/Chess-Genie/internal/export"
	"github.com/evanzqian-eng/Chess-Genie/internal/extract"
)

// MaxPGNBytes caps imported game records.
const MaxPGNBytes = 5 << 20

// SuccessHold is how long the export status shows success before returning to idle.
const SuccessHold = 3 * time.Second

// ExportStatus is the state of the export action.
type ExportStatus string

const (
	ExportIdle       ExportStatus = "idle"
	ExportGenerating ExportStatus = "generating"
	ExportSuccess    ExportStatus = "success"
)

// Batch is the card list produced by one extraction.
type Batch struct {
	ID        string           `json:"id"`
	Number    int              `json:"number"`
	Cards     []card.Flashcard `json:"cards"`
	CreatedAt time.Time        `json:"created_at"`
}

// Exporter renders a batch into a document.
type Exporter interface {
	Export(ctx context.Context, f export.Format, batch int, cards []card.Flashcard) (*export.Result, error)
}

// Snapshot is a copy of the session state safe to hand to views.
type Snapshot struct {
	PGN          string       `json:"pgn"`
	Batch        *Batch       `json:"batch,omitempty"`
	BatchCount   int          `json:"batch_count"`
	Busy         bool         `json:"busy"`
	ExportStatus ExportStatus `json:"export_status"`
	LastError    string       `json:"last_error,omitempty"`
	CachedBoards int          `json:"cached_boards"`
}

// Session is safe for concurrent use.
type Session struct {
	mu           sync.Mutex
	pgn          string
	batch        *Batch
	batchCount   int
	busy         bool
	gen          uint64
	exportStatus ExportStatus
	exportedAt   time.Time
	lastError    string

	cache     *board.Cache
	extractor extract.Extractor
	exporter  Exporter
	now       func() time.Time
	logf      func(format string, args ...any)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogf replaces log.Printf.
func WithLogf(fn func(format string, args ...any)) Option {
	return func(s *Session) { s.logf = fn }
}

// New returns an empty session. The cache is owned by the session and
// shared with whatever exporter and views render its boards.
func New(cache *board.Cache, extractor extract.Extractor, exporter Exporter, opts ...Option) *Session {
	s := &Session{
		exportStatus: ExportIdle,
		cache:        cache,
		extractor:    extractor,
		exporter:     exporter,
		now:          time.Now,
		logf:         log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the session's render cache.
func (s *Session) Cache() *board.Cache { return s.cache }

// SetPGN replaces the game record verbatim.
func (s *Session) SetPGN(pgn string) {
	s.mu.Lock()
	s.pgn = pgn
	s.mu.Unlock()
}

// PGN returns the current game record.
func (s *Session) PGN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pgn
}

// Import replaces the game record with the full contents of r.
func (s *Session) Import(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, MaxPGNBytes+1))
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("read game record: %v", err))
	}
	if len(data) > MaxPGNBytes {
		return errors.NewInvalidRequest(fmt.Sprintf("game record exceeds %d bytes", MaxPGNBytes))
	}
	s.SetPGN(string(data))
	return nil
}

// ImportFile replaces the game record with the contents of the file at path.
func (s *Session) ImportFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}
	f, err := openFileNoFollowRead(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Import(f)
}

// Extract turns the current game record into a new batch.
// The render cache is warmed for every card before the batch is returned.
func (s *Session) Extract(ctx context.Context) (*Batch, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, errors.NewBusy()
	}
	pgn := s.pgn
	if strings.TrimSpace(pgn) == "" {
		err := errors.NewInvalidRequest("game record is empty")
		s.lastError = err.Message
		s.mu.Unlock()
		return nil, err
	}
	s.busy = true
	s.lastError = ""
	gen := s.gen
	s.mu.Unlock()

	cards, err := s.extractor.Extract(ctx, pgn)
	if err == nil && len(cards) == 0 {
		err = errors.NewNoCards()
	}
	if err == nil {
		err = s.cache.Warm(card.FENs(cards))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	// a Reset while extracting discards the result and anything it warmed
	if s.gen != gen {
		s.cache.Clear()
		return nil, errors.NewInvalidRequest("session was reset during extraction")
	}
	if err != nil {
		if !errors.Is(err, errors.ErrNoCards) {
			s.logf("session: extraction failed: %v", err)
		}
		s.lastError = errors.UserMessage(err)
		return nil, errors.Classify(err)
	}

	s.batchCount++
	s.batch = &Batch{
		ID:        newBatchID(s.now()),
		Number:    s.batchCount,
		Cards:     cards,
		CreatedAt: s.now(),
	}
	return s.batch, nil
}

// Export renders the current batch as format.
func (s *Session) Export(ctx context.Context, format export.Format) (*export.Result, error) {
	s.mu.Lock()
	if s.batch == nil {
		s.mu.Unlock()
		return nil, errors.NewInvalidRequest("no cards to export; extract a game first")
	}
	if s.currentExportStatus() == ExportGenerating {
		s.mu.Unlock()
		return nil, errors.NewBusy()
	}
	batch := s.batch
	s.exportStatus = ExportGenerating
	s.mu.Unlock()

	res, err := s.exporter.Export(ctx, format, batch.Number, batch.Cards)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.exportStatus = ExportIdle
		s.logf("session: export %s failed: %v", format, err)
		if errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		return nil, errors.NewExportFailed(string(format), err)
	}
	s.exportStatus = ExportSuccess
	s.exportedAt = s.now()
	return res, nil
}

// Reset drops the game record and batch and clears the render cache.
// The batch counter keeps counting so later exports get fresh names.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pgn = ""
	s.batch = nil
	s.lastError = ""
	s.exportStatus = ExportIdle
	s.gen++
	s.cache.Clear()
}

// Batch returns the current batch, or nil.
func (s *Session) Batch() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		PGN:          s.pgn,
		Batch:        s.batch,
		BatchCount:   s.batchCount,
		Busy:         s.busy,
		ExportStatus: s.currentExportStatus(),
		LastError:    s.lastError,
		CachedBoards: s.cache.Len(),
	}
}

// currentExportStatus applies the success hold. Callers hold s.mu.
func (s *Session) currentExportStatus() ExportStatus {
	if s.exportStatus == ExportSuccess && s.now().Sub(s.exportedAt) >= SuccessHold {
		s.exportStatus = ExportIdle
	}
	return s.exportStatus
}

func newBatchID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
