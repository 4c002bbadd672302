package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
)

var boardRenderToolDef = mcp.NewTool("board_render",
	mcp.WithDescription("Render a chess position from a FEN string as an SVG document or PNG image. Only the piece-placement field is read."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("fen", mcp.Required(), mcp.Description("FEN string; text after the first space is ignored")),
	mcp.WithString("format", mcp.Enum("svg", "png"), mcp.DefaultString("svg"), mcp.Description("Output encoding")),
	mcp.WithNumber("size", mcp.Min(board.MinSize), mcp.Max(board.MaxSize), mcp.Description("Pixel size; omit to use the cached canonical size")),
)

var cardsExtractToolDef = mcp.NewTool("cards_extract",
	mcp.WithDescription("Extract study flashcards from an annotated PGN game record. Replaces the current batch on success."),
	mcp.WithString("pgn", mcp.Description("PGN text with comments in {braces}; omit to use the session's current record")),
)

var cardsImportToolDef = mcp.NewTool("cards_import",
	mcp.WithDescription("Replace the session's game record with the contents of a local PGN file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .pgn or text file")),
)

var cardsPaginateToolDef = mcp.NewTool("cards_paginate",
	mcp.WithDescription("Lay out cards as alternating prompt and answer pages of up to three cards, with block coordinates in millimetres."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("cards", mcp.Description("Flashcards to lay out; omit to use the current batch"), mcp.Items(map[string]any{"type": "object"})),
)

var cardsExportToolDef = mcp.NewTool("cards_export",
	mcp.WithDescription("Export the current batch as pdf, html, xlsx or json. Writes to path when given, otherwise returns the document inline."),
	mcp.WithString("format", mcp.Required(), mcp.Enum("pdf", "html", "xlsx", "json")),
	mcp.WithString("path", mcp.Description("Output file path; its extension must match the format")),
)

var sessionStatusToolDef = mcp.NewTool("session_status",
	mcp.WithDescription("Report the session state: batch, counters, busy flag, export status and last error."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sessionResetToolDef = mcp.NewTool("session_reset",
	mcp.WithDescription("Clear the game record and current batch and empty the board render cache. The batch counter is kept."),
	mcp.WithDestructiveHintAnnotation(true),
)
