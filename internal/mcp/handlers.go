package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
	"github.com/evanzqian-eng/Chess-Genie/internal/export"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
	"github.com/evanzqian-eng/Chess-Genie/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	session  *session.Session
	renderer *board.Renderer
	geometry layout.Geometry
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sess *session.Session, renderer *board.Renderer, g layout.Geometry) *Handlers {
	return &Handlers{session: sess, renderer: renderer, geometry: g}
}

// Request types for each tool

// BoardRenderRequest represents the arguments for board_render.
type BoardRenderRequest struct {
	FEN    string `json:"fen"`
	Format string `json:"format,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// ExtractRequest represents the arguments for cards_extract.
type ExtractRequest struct {
	PGN *string `json:"pgn,omitempty"`
}

// ImportRequest represents the arguments for cards_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// PaginateRequest represents the arguments for cards_paginate.
type PaginateRequest struct {
	Cards json.RawMessage `json:"cards,omitempty"`
}

// ExportRequest represents the arguments for cards_export.
type ExportRequest struct {
	Format string `json:"format"`
	Path   string `json:"path,omitempty"`
}

// Output types

// PaginateOutput is the cards_paginate result.
type PaginateOutput struct {
	Geometry layout.Geometry `json:"geometry"`
	Pages    []layout.Page   `json:"pages"`
}

// ExportOutput is the cards_export result.
type ExportOutput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
	Path        string `json:"path,omitempty"`
	// Data is base64 for binary formats and plain text for html and json.
	Data string `json:"data,omitempty"`
}

// Handler implementations

// HandleBoardRender handles the board_render tool call.
func (h *Handlers) HandleBoardRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BoardRenderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.FEN) == "" {
		return errorResult(errors.NewInvalidRequest("fen is required")), nil
	}

	if input.Format != "" && input.Format != "svg" && input.Format != "png" {
		return errorResult(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q; use svg or png", input.Format))), nil
	}
	if err := board.CheckPlacement(input.FEN); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var art *board.Artifact
	cache := h.session.Cache()
	if input.Size == 0 || input.Size == cache.Size() {
		art, err = cache.Get(input.FEN)
	} else {
		if err := board.CheckSize(input.Size); err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		art, err = h.renderer.Render(input.FEN, input.Size)
	}
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}

	if input.Format == "png" {
		return mcp.NewToolResultImage(art.Placement, base64.StdEncoding.EncodeToString(art.PNG), "image/png"), nil
	}
	return mcp.NewToolResultText(string(art.SVG)), nil
}

// HandleExtract handles the cards_extract tool call.
func (h *Handlers) HandleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExtractRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.PGN != nil {
		h.session.SetPGN(*input.PGN)
	}

	batch, err := h.session.Extract(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(batch)
}

// HandleImport handles the cards_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.session.ImportFile(input.Path); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"path":  input.Path,
		"bytes": len(h.session.PGN()),
	})
}

// HandlePaginate handles the cards_paginate tool call.
func (h *Handlers) HandlePaginate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PaginateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var cards []card.Flashcard
	if len(input.Cards) > 0 && string(input.Cards) != "null" {
		cards, err = card.Decode(input.Cards)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
	} else {
		batch := h.session.Batch()
		if batch == nil {
			return errorResult(errors.NewInvalidRequest("no cards given and no current batch")), nil
		}
		cards = batch.Cards
	}

	return successResult(PaginateOutput{
		Geometry: h.geometry,
		Pages:    h.geometry.Paginate(cards),
	})
}

// HandleExport handles the cards_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	format, err := export.ParseFormat(input.Format)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Path != "" {
		if err := validateExportPath(input.Path, format); err != nil {
			return errorResult(err), nil
		}
	}

	res, err := h.session.Export(ctx, format)
	if err != nil {
		return errorResult(err), nil
	}

	out := ExportOutput{
		Filename:    res.Filename,
		ContentType: res.ContentType,
		Bytes:       len(res.Data),
	}
	if input.Path != "" {
		if err := os.WriteFile(input.Path, res.Data, 0o644); err != nil {
			return errorResult(errors.NewExportFailed(string(format), err)), nil
		}
		out.Path = input.Path
		return successResult(out)
	}

	switch format {
	case export.FormatHTML, export.FormatJSON:
		out.Data = string(res.Data)
	default:
		out.Data = base64.StdEncoding.EncodeToString(res.Data)
	}
	return successResult(out)
}

// HandleStatus handles the session_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.session.Snapshot())
}

// HandleReset handles the session_reset tool call.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.session.Reset()
	return successResult(map[string]any{"reset": true})
}

// validateExportPath rejects traversal and extensions that do not match the format.
func validateExportPath(path string, format export.Format) error {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return errors.NewInvalidRequest("path must not contain directory traversal (..)")
		}
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); !strings.EqualFold(ext, string(format)) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have .%s extension", format))
	}
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var gErr *errors.GenieError
	if stderrors.As(err, &gErr) {
		message := gErr.Message
		if gErr.Code == errors.ErrInternal {
			message = "an internal error occurred"
		} else if wrapped := err.Error(); wrapped != gErr.Error() {
			// keep context added by wrapping
			message = strings.TrimSuffix(wrapped, gErr.Error()) + message
		}
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": message,
			"status":  gErr.Status,
		}
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
