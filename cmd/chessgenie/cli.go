package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/evanzqian-eng/Chess-Genie/internal/board"
	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/config"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
	"github.com/evanzqian-eng/Chess-Genie/internal/export"
	"github.com/evanzqian-eng/Chess-Genie/internal/extract"
	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
	"github.com/evanzqian-eng/Chess-Genie/internal/mcp"
	"github.com/evanzqian-eng/Chess-Genie/internal/session"
	"github.com/evanzqian-eng/Chess-Genie/internal/web"
)

// runtime holds the components shared by every front end.
type runtime struct {
	cfg      *config.Config
	geometry layout.Geometry
	renderer *board.Renderer
	cache    *board.Cache
	exporter *export.Service
	session  *session.Session
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	raster, err := board.LoadRasterizer(cfg.BoardFont)
	if err != nil {
		return nil, err
	}
	renderer := board.NewRenderer(raster)
	cache := board.NewCache(renderer.Render, cfg.BoardSize)
	g := layout.A4()

	engine, err := export.NewEngine(cfg, g, cache)
	if err != nil {
		return nil, err
	}
	exporter := export.NewService(g, cache, engine)

	extractor, err := extract.New(cfg)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	return &runtime{
		cfg:      cfg,
		geometry: g,
		renderer: renderer,
		cache:    cache,
		exporter: exporter,
		session:  session.New(cache, extractor, exporter),
	}, nil
}

func (rt *runtime) Close() error {
	return rt.exporter.Close()
}

// runMCP serves the MCP tools over stdio.
func runMCP(cfg *config.Config) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return mcp.Run(rt.session, rt.renderer, rt.geometry, cfg, Version)
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "chessgenie",
		Usage:   "Turn annotated chess games into printable flashcards",
		Version: Version,
		Commands: []*cli.Command{
			extractCmd(cfg),
			exportCmd(cfg),
			renderCmd(cfg),
			paginateCmd(cfg),
			serveCmd(cfg),
			mcpCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// extractCmd creates the extract command.
func extractCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract flashcards from a game record (reads PGN from --file or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "PGN file to read"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Also write the cards as JSON to this path"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(cfg)
			if err != nil {
				return outputError(err)
			}
			defer rt.Close()

			batch, err := extractBatch(c, rt, c.String("file"))
			if err != nil {
				return outputError(err)
			}

			if out := c.String("out"); out != "" {
				data, err := card.Encode(batch.Cards)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return outputError(errors.NewInternal(err))
				}
			}
			return outputJSON(batch)
		},
	}
}

// exportOutput is printed by the export command.
type exportOutput struct {
	Path        string `json:"path"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
	Cards       int    `json:"cards"`
}

// exportCmd creates the export command.
func exportCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write cards as pdf, html, xlsx or json (reads cards JSON from --cards or stdin, or extracts --pgn)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"F"}, Value: "pdf", Usage: "Output format: pdf|html|xlsx|json"},
			&cli.StringFlag{Name: "cards", Aliases: []string{"c"}, Usage: "Cards JSON file"},
			&cli.StringFlag{Name: "pgn", Usage: "PGN file to extract before exporting"},
			&cli.IntFlag{Name: "batch", Aliases: []string{"b"}, Value: 1, Usage: "Batch number used in the file name and title"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (defaults to the batch file name)"},
		},
		Action: func(c *cli.Context) error {
			format, err := export.ParseFormat(c.String("format"))
			if err != nil {
				return outputError(err)
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return outputError(err)
			}
			defer rt.Close()

			var (
				res   *export.Result
				count int
			)
			if pgn := c.String("pgn"); pgn != "" {
				batch, err := extractBatch(c, rt, pgn)
				if err != nil {
					return outputError(err)
				}
				count = len(batch.Cards)
				res, err = rt.session.Export(c.Context, format)
				if err != nil {
					return outputError(err)
				}
			} else {
				if c.Int("batch") < 1 {
					return outputError(errors.NewInvalidRequest("batch must be at least 1"))
				}
				cards, err := readCards(c.String("cards"))
				if err != nil {
					return outputError(err)
				}
				count = len(cards)
				res, err = rt.exporter.Export(c.Context, format, c.Int("batch"), cards)
				if err != nil {
					return outputError(errors.NewExportFailed(string(format), err))
				}
			}

			path := c.String("out")
			if path == "" {
				path = res.Filename
			}
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return outputError(errors.NewExportFailed(string(format), err))
			}

			return outputJSON(exportOutput{
				Path:        path,
				Format:      string(res.Format),
				ContentType: res.ContentType,
				Bytes:       len(res.Data),
				Cards:       count,
			})
		},
	}
}

// renderCmd creates the render command.
func renderCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a board diagram for a FEN position",
		ArgsUsage: "<fen>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"F"}, Value: "svg", Usage: "Image format: svg|png"},
			&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "Edge length in pixels (defaults to board_size)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (svg prints to stdout when omitted)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("fen is required"))
			}
			fen := strings.Join(c.Args().Slice(), " ")

			format := c.String("format")
			if format != "svg" && format != "png" {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q; use svg or png", format)))
			}
			out := c.String("out")
			if format == "png" && out == "" {
				return outputError(errors.NewInvalidRequest("png output requires --out"))
			}
			size := c.Int("size")
			if size == 0 {
				size = cfg.BoardSize
			}
			if err := board.CheckSize(size); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			if err := board.CheckPlacement(fen); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			raster, err := board.LoadRasterizer(cfg.BoardFont)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			art, err := board.NewRenderer(raster).Render(fen, size)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			data := art.SVG
			if format == "png" {
				data = art.PNG
			}
			if out == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{
				"path":      out,
				"placement": art.Placement,
				"size":      art.Size,
				"bytes":     len(data),
			})
		},
	}
}

// paginateCmd creates the paginate command.
func paginateCmd(_ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "paginate",
		Usage: "Lay cards out as print pages (reads cards JSON from --cards or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cards", Aliases: []string{"c"}, Usage: "Cards JSON file"},
		},
		Action: func(c *cli.Context) error {
			cards, err := readCards(c.String("cards"))
			if err != nil {
				return outputError(err)
			}
			g := layout.A4()
			return outputJSON(map[string]any{
				"geometry": g,
				"pages":    g.Paginate(cards),
			})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(cfg)
			if err != nil {
				return outputError(err)
			}
			defer rt.Close()

			srv := web.NewServer(rt.session, rt.geometry, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(c *cli.Context) error {
			return runMCP(cfg)
		},
	}
}

// Helper functions

// extractBatch loads the game record from path (or stdin) and runs extraction.
func extractBatch(c *cli.Context, rt *runtime, path string) (*session.Batch, error) {
	if path != "" {
		if err := rt.session.ImportFile(path); err != nil {
			return nil, err
		}
	} else {
		if !stdinHasData() {
			return nil, errors.NewInvalidRequest("PGN must be given with --file or piped via stdin")
		}
		if err := rt.session.Import(os.Stdin); err != nil {
			return nil, err
		}
	}
	return rt.session.Extract(c.Context)
}

// readCards decodes cards JSON from path, or from stdin when path is empty.
func readCards(path string) ([]card.Flashcard, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			if stderrors.Is(err, os.ErrNotExist) {
				return nil, errors.NewNotFound("file", path)
			}
			return nil, errors.NewInternal(err)
		}
	} else {
		if !stdinHasData() {
			return nil, errors.NewInvalidRequest("cards JSON must be given with --cards or piped via stdin")
		}
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	cards, err := card.Decode(data)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errors.NewNoCards()
	}
	return cards, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var gErr *errors.GenieError
	if stderrors.As(err, &gErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
