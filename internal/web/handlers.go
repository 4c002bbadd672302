package web

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/config"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
	"github.com/evanzqian-eng/Chess-Genie/internal/export"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
	"github.com/evanzqian-eng/Chess-Genie/internal/printview"
	"github.com/evanzqian-eng/Chess-Genie/internal/session"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	session  *session.Session
	geometry layout.Geometry
	cfg      *config.Config
	renderer *Renderer
}

// HandleIndex handles GET /: the editor, status and card list.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "index", h.indexData())
}

// HandleSetPGN handles POST /pgn: replace the game record with the posted text.
func (h *Handlers) HandleSetPGN(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, session.MaxPGNBytes+4096)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	h.session.SetPGN(r.FormValue("pgn"))
	h.respondState(w, r)
}

// HandleImport handles POST /import: replace the game record with an uploaded file.
// A multipart "file" field is read when present, otherwise the raw body.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, session.MaxPGNBytes+64<<10)

	err := r.ParseMultipartForm(session.MaxPGNBytes)
	switch {
	case stderrors.Is(err, http.ErrNotMultipart):
		// raw body upload
	case err != nil:
		h.renderer.renderError(w, r, errors.NewInvalidRequest(fmt.Sprintf("invalid upload: %v", err)))
		return
	default:
		file, _, err := r.FormFile("file")
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("file is required"))
			return
		}
		defer file.Close()
		if err := h.session.Import(file); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		h.respondState(w, r)
		return
	}

	if err := h.session.Import(r.Body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respondState(w, r)
}

// HandleExtract handles POST /extract: run extraction on the current game record.
func (h *Handlers) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil && r.Form.Has("pgn") {
		h.session.SetPGN(r.FormValue("pgn"))
	}

	batch, err := h.session.Extract(r.Context())
	if err != nil {
		// Plain form posts land back on the page, which shows the recorded message.
		if !isHTMX(r) && !wantsJSON(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case isHTMX(r):
		h.renderer.renderBlock(w, http.StatusOK, "index", "cards", h.indexData())
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, batch)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// HandleReset handles POST /reset: clear the session and the render cache.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	h.respondState(w, r)
}

// HandlePrint handles GET /print: the print-styled view of the current batch.
func (h *Handlers) HandlePrint(w http.ResponseWriter, r *http.Request) {
	batch := h.session.Batch()
	if batch == nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("no cards to print; extract a game first"))
		return
	}

	var buf bytes.Buffer
	opts := printview.Options{Title: export.Title(batch.Number), Screen: true}
	if err := printview.Render(&buf, h.geometry.Paginate(batch.Cards), h.session.Cache(), h.geometry, opts); err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleExport handles GET /export/{format}: download the current batch.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	res, err := h.session.Export(r.Context(), format)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// HandleBoardSVG handles GET /board.svg?fen=: a board as SVG.
func (h *Handlers) HandleBoardSVG(w http.ResponseWriter, r *http.Request) {
	h.serveBoard(w, r, "image/svg+xml", func(svg, _ []byte) []byte { return svg })
}

// HandleBoardPNG handles GET /board.png?fen=: a board as PNG.
func (h *Handlers) HandleBoardPNG(w http.ResponseWriter, r *http.Request) {
	h.serveBoard(w, r, "image/png", func(_, png []byte) []byte { return png })
}

func (h *Handlers) serveBoard(w http.ResponseWriter, r *http.Request, contentType string, pick func(svg, png []byte) []byte) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("fen is required"))
		return
	}

	if err := board.CheckPlacement(fen); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}

	// batch boards come from the cache; anything else is drawn and not kept
	art, err := h.session.Cache().Get(fen)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	// the image depends only on the placement in the URL
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pick(art.SVG, art.PNG))
}

// HandleAPICards handles GET /api/cards: the current batch as JSON.
func (h *Handlers) HandleAPICards(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	cards := []card.Flashcard{}
	batch := 0
	if snap.Batch != nil {
		cards = snap.Batch.Cards
		batch = snap.Batch.Number
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"batch":         batch,
		"cards":         cards,
		"busy":          snap.Busy,
		"export_status": snap.ExportStatus,
		"last_error":    snap.LastError,
	})
}

// HandleAPIPages handles GET /api/pages: the current batch laid out as pages.
func (h *Handlers) HandleAPIPages(w http.ResponseWriter, r *http.Request) {
	batch := h.session.Batch()
	if batch == nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("no cards to lay out; extract a game first"))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"geometry": h.geometry,
		"pages":    h.geometry.Paginate(batch.Cards),
	})
}

// respondState answers a state-changing request: JSON callers get the snapshot,
// htmx callers the refreshed page content, everyone else a redirect home.
func (h *Handlers) respondState(w http.ResponseWriter, r *http.Request) {
	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, h.session.Snapshot())
	case isHTMX(r):
		h.renderer.renderPage(w, r, "index", h.indexData())
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handlers) indexData() IndexPageData {
	snap := h.session.Snapshot()
	data := IndexPageData{
		PageData: PageData{
			Title:   "Chess Genie",
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Session:  snap,
		Formats:  export.Formats,
		Provider: h.cfg.Provider,
	}
	if snap.Batch != nil {
		data.Cards = cardViews(snap.Batch.Cards)
	}
	return data
}

func cardViews(cards []card.Flashcard) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{
			ID:          c.CardID,
			CommentHTML: renderMarkdown(c.Front.CommentText),
			Meta:        c.Back.Meta(),
			FEN:         c.Back.PositionFEN,
			BoardSrc:    "/board.svg?fen=" + url.QueryEscape(c.Back.PositionFEN),
			MainLine:    c.Back.MainLineMove,
			Answer:      c.Back.VariationsText,
			HasAnswer:   c.Back.HasAnswer(),
		}
	}
	return views
}
