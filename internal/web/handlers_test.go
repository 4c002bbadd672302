package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/config"
	"github.com/evanzqian-eng/Chess-Genie/internal/export"
	"github.com/evanzqian-eng/Chess-Genie/internal/extract"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
	"github.com/evanzqian-eng/Chess-Genie/internal/pdf"
	"github.com/evanzqian-eng/Chess-Genie/internal/session"
)

const italianFEN = "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"

func sampleCards() []card.Flashcard {
	return []card.Flashcard{
		{
			CardID: 1,
			Front:  card.FrontContent{CommentText: "The *knight* eyes e5."},
			Back: card.BackContent{
				PositionFEN:    italianFEN,
				MainLineMove:   "Nc6",
				VariationsText: "2... d6 3. d4",
				MoveNumber:     2,
				PlayerToMove:   "Black",
			},
		},
		{
			CardID: 2,
			Front:  card.FrontContent{CommentText: "Quiet."},
			Back:   card.BackContent{PositionFEN: "8/8/8/8/8/8/8/K6k w - - 0 1", MoveNumber: 50, PlayerToMove: "White"},
		},
	}
}

func setupTest(t *testing.T, ext extract.Extractor) *Handlers {
	t.Helper()
	cfg := config.DefaultConfig()
	g := layout.A4()

	raster, err := board.NewRasterizer(nil)
	if err != nil {
		t.Fatalf("rasterizer: %v", err)
	}
	cache := board.NewCache(board.NewRenderer(raster).Render, 96)
	exporter := export.NewService(g, cache, pdf.NewWriter(g, cache))
	sess := session.New(cache, ext, exporter, session.WithLogf(func(string, ...any) {}))

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		session:  sess,
		geometry: g,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, "test"),
	}
}

func okExtractor() extract.Extractor {
	return extract.ExtractorFunc(func(context.Context, string) ([]card.Flashcard, error) {
		return sampleCards(), nil
	})
}

// seedBatch runs one extraction so the session has cards.
func seedBatch(t *testing.T, h *Handlers) {
	t.Helper()
	h.session.SetPGN("1. e4 e5 2. Nf3 {comment} Nc6")
	if _, err := h.session.Extract(context.Background()); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// --- HandleIndex ---

func TestHandleIndex_Empty(t *testing.T) {
	h := setupTest(t, okExtractor())

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("expected full layout")
	}
	if !strings.Contains(body, "No cards yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleIndex_ShowsCards(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)

	rec := httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<em>knight</em>") {
		t.Error("expected comment rendered as markdown")
	}
	if !strings.Contains(body, "Move 2 | Black") {
		t.Error("expected card metadata")
	}
	if !strings.Contains(body, "/board.svg?fen=") {
		t.Error("expected board image source")
	}
	if !strings.Contains(body, "THE ANSWER:") || !strings.Contains(body, "2... d6 3. d4") {
		t.Error("expected answer for card 1")
	}
	if !strings.Contains(body, "No variation given.") {
		t.Error("expected empty answer note for card 2")
	}
	if !strings.Contains(body, "/export/pdf") || !strings.Contains(body, "/export/xlsx") {
		t.Error("expected export links")
	}
}

func TestHandleIndex_HtmxReturnsContentOnly(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleIndex(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("htmx response should not contain full layout")
	}
	if !strings.Contains(body, "card-1") {
		t.Error("htmx response should contain cards")
	}
}

// --- HandleSetPGN / HandleImport ---

func TestHandleSetPGN_Redirects(t *testing.T) {
	h := setupTest(t, okExtractor())

	rec := httptest.NewRecorder()
	h.HandleSetPGN(rec, formRequest("POST", "/pgn", url.Values{"pgn": {"1. d4 d5"}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := h.session.PGN(); got != "1. d4 d5" {
		t.Fatalf("pgn = %q", got)
	}
}

func TestHandleImport_Multipart(t *testing.T) {
	h := setupTest(t, okExtractor())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "game.pgn")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	pgn := "[Event \"Club\"]\n\n1. c4 {English} e5 *\n"
	_, _ = part.Write([]byte(pgn))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleImport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.PGN != pgn {
		t.Fatalf("pgn = %q, want verbatim file contents", snap.PGN)
	}
}

func TestHandleImport_RawBody(t *testing.T) {
	h := setupTest(t, okExtractor())

	req := httptest.NewRequest("POST", "/import", strings.NewReader("1. f4"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.HandleImport(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := h.session.PGN(); got != "1. f4" {
		t.Fatalf("pgn = %q", got)
	}
}

// --- HandleExtract ---

func TestHandleExtract_JSON(t *testing.T) {
	h := setupTest(t, okExtractor())

	req := formRequest("POST", "/extract", url.Values{"pgn": {"1. e4 e5 2. Nf3 {comment} Nc6"}})
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleExtract(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var batch session.Batch
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if batch.Number != 1 || len(batch.Cards) != 2 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if h.session.Cache().Len() != 2 {
		t.Fatalf("expected boards warmed, cache has %d", h.session.Cache().Len())
	}
}

func TestHandleExtract_HtmxReturnsCardsFragment(t *testing.T) {
	h := setupTest(t, okExtractor())
	h.session.SetPGN("1. e4")

	req := httptest.NewRequest("POST", "/extract", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleExtract(rec, req)

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(body, `id="cards"`) || strings.Contains(body, "<textarea") {
		t.Error("expected only the cards fragment")
	}
}

func TestHandleExtract_EmptyPGN_JSONError(t *testing.T) {
	h := setupTest(t, okExtractor())

	req := httptest.NewRequest("POST", "/extract", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleExtract(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"]["code"] != "INVALID_REQUEST" {
		t.Fatalf("code = %v", resp["error"]["code"])
	}
}

func TestHandleExtract_FailureShownOnPage(t *testing.T) {
	h := setupTest(t, extract.ExtractorFunc(func(context.Context, string) ([]card.Flashcard, error) {
		return nil, fmt.Errorf("RESOURCE_EXHAUSTED: quota")
	}))

	rec := httptest.NewRecorder()
	h.HandleExtract(rec, formRequest("POST", "/extract", url.Values{"pgn": {"1. e4"}}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleIndex(rec, httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(rec.Body.String(), "API Quota Exceeded") {
		t.Error("expected rate-limit message on page")
	}
}

// --- HandleReset ---

func TestHandleReset_ClearsSession(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)

	req := httptest.NewRequest("POST", "/reset", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleReset(rec, req)

	if rec.Header().Get("HX-Redirect") != "/" {
		t.Error("expected HX-Redirect header")
	}
	snap := h.session.Snapshot()
	if snap.Batch != nil || snap.CachedBoards != 0 {
		t.Fatalf("expected empty session, got %+v", snap)
	}
}

// --- HandlePrint / HandleExport ---

func TestHandlePrint(t *testing.T) {
	h := setupTest(t, okExtractor())

	rec := httptest.NewRecorder()
	h.HandlePrint(rec, httptest.NewRequest("GET", "/print", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 before extraction", rec.Code)
	}

	seedBatch(t, h)
	rec = httptest.NewRecorder()
	h.HandlePrint(rec, httptest.NewRequest("GET", "/print", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Count(body, `class="page page-`) != 2 {
		t.Error("expected one prompt and one answer page")
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Error("expected embedded board")
	}
}

func TestHandleExport_PDF(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)

	req := httptest.NewRequest("GET", "/export/pdf", nil)
	req.SetPathValue("format", "pdf")
	rec := httptest.NewRecorder()
	h.HandleExport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Chess_Genie_Cards_1.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF body")
	}
}

func TestHandleExport_UnknownFormat(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)

	req := httptest.NewRequest("GET", "/export/docx", nil)
	req.SetPathValue("format", "docx")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleExport(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleExport_NoBatch(t *testing.T) {
	h := setupTest(t, okExtractor())

	req := httptest.NewRequest("GET", "/export/json", nil)
	req.SetPathValue("format", "json")
	rec := httptest.NewRecorder()
	h.HandleExport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "extract a game first") {
		t.Error("expected error page message")
	}
}

// --- boards ---

func TestHandleBoard_SVGAndPNGShareCacheEntry(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)
	renders := h.session.Cache().Renders()
	target := "/board.svg?fen=" + url.QueryEscape(italianFEN)

	rec := httptest.NewRecorder()
	h.HandleBoardSVG(rec, httptest.NewRequest("GET", target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/svg+xml" || !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatal("expected SVG body")
	}

	// same placement, different trailing fields
	other := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b - - 0 9"
	rec = httptest.NewRecorder()
	h.HandleBoardPNG(rec, httptest.NewRequest("GET", "/board.png?fen="+url.QueryEscape(other), nil))
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("expected PNG body")
	}
	if got := h.session.Cache().Renders(); got != renders {
		t.Fatalf("renders = %d, want %d", got, renders)
	}
}

func TestHandleBoard_OutsideBatchNotCached(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)
	cached := h.session.Cache().Len()

	for i := 1; i <= 3; i++ {
		fen := fmt.Sprintf("8/8/8/8/8/8/8/%dK%d", i-1, 7-i)
		rec := httptest.NewRecorder()
		h.HandleBoardSVG(rec, httptest.NewRequest("GET", "/board.svg?fen="+url.QueryEscape(fen), nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}
	if got := h.session.Cache().Len(); got != cached {
		t.Fatalf("cache grew to %d entries, want %d", got, cached)
	}
}

func TestHandleBoard_PlacementTooLong(t *testing.T) {
	h := setupTest(t, okExtractor())
	fen := strings.Repeat("8/", 200) + "8"
	rec := httptest.NewRecorder()
	h.HandleBoardPNG(rec, httptest.NewRequest("GET", "/board.png?fen="+url.QueryEscape(fen), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if h.session.Cache().Len() != 0 {
		t.Fatal("rejected board must not be cached")
	}
}

func TestHandleBoard_MissingFEN(t *testing.T) {
	h := setupTest(t, okExtractor())
	rec := httptest.NewRecorder()
	h.HandleBoardSVG(rec, httptest.NewRequest("GET", "/board.svg", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// --- API ---

func TestHandleAPICards(t *testing.T) {
	h := setupTest(t, okExtractor())

	rec := httptest.NewRecorder()
	h.HandleAPICards(rec, httptest.NewRequest("GET", "/api/cards", nil))
	if !strings.Contains(rec.Body.String(), `"cards":[]`) {
		t.Fatalf("expected empty card list, got %s", rec.Body.String())
	}

	seedBatch(t, h)
	rec = httptest.NewRecorder()
	h.HandleAPICards(rec, httptest.NewRequest("GET", "/api/cards", nil))
	var resp struct {
		Batch int              `json:"batch"`
		Cards []card.Flashcard `json:"cards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Batch != 1 || len(resp.Cards) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleAPIPages(t *testing.T) {
	h := setupTest(t, okExtractor())
	seedBatch(t, h)

	rec := httptest.NewRecorder()
	h.HandleAPIPages(rec, httptest.NewRequest("GET", "/api/pages", nil))
	var resp struct {
		Pages []layout.Page `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Pages) != 2 || resp.Pages[0].Kind != layout.PromptPage || resp.Pages[1].Kind != layout.AnswerPage {
		t.Fatalf("unexpected pages %+v", resp.Pages)
	}
	if len(resp.Pages[1].Blocks) != 2 || !resp.Pages[1].Blocks[1].Empty() {
		t.Fatal("expected bare frame for card without answer")
	}
}

// --- error rendering ---

func TestErrorRendering_HtmxFragment(t *testing.T) {
	h := setupTest(t, okExtractor())

	req := httptest.NewRequest("GET", "/print", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandlePrint(rec, req)

	body := rec.Body.String()
	if !strings.HasPrefix(body, `<div class="error-message">`) {
		t.Errorf("expected error fragment, got %q", body)
	}
}

// --- routing ---

func TestServerRoutesAndHeaders(t *testing.T) {
	h := setupTest(t, okExtractor())
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		t.Fatalf("static sub-FS: %v", err)
	}
	srv := httptest.NewServer(newHandler(h, staticSub, []string{"http://localhost:3000"}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/static/app.css")
	if err != nil {
		t.Fatalf("get css: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("css status = %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Security-Policy"), "img-src 'self' data:") {
		t.Error("expected CSP allowing data images")
	}

	req, _ := http.NewRequest("GET", srv.URL+"/api/cards", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get cards: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	resp, err = http.Get(srv.URL + "/export/pdf")
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("export without batch status = %d, want 400", resp.StatusCode)
	}
}

func TestFormatChars(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}
	for _, tt := range tests {
		if got := formatChars(tt.in); got != tt.want {
			t.Errorf("formatChars(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
