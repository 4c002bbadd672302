package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/evanzqian-eng/Chess-Genie/internal/layout"
	"github.com/evanzqian-eng/Chess-Genie/internal/printview"
)

const mmPerInch = 25.4

// ChromiumEngine prints the HTML print view with a shared headless Chromium instance.
type ChromiumEngine struct {
	BrowserPath string
	Timeout     time.Duration
	Args        []string

	geometry layout.Geometry
	boards   BoardSource

	initOnce      sync.Once
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromiumEngine returns an engine that prints pages laid out with g.
func NewChromiumEngine(g layout.Geometry, boards BoardSource, browserPath string) *ChromiumEngine {
	return &ChromiumEngine{
		BrowserPath: browserPath,
		Timeout:     time.Minute,
		geometry:    g,
		boards:      boards,
	}
}

// Render implements Engine.
func (e *ChromiumEngine) Render(ctx context.Context, title string, pages []layout.Page) ([]byte, error) {
	var html bytes.Buffer
	if err := printview.Render(&html, pages, e.boards, e.geometry, printview.Options{Title: title}); err != nil {
		return nil, err
	}
	return e.PrintHTML(ctx, html.Bytes())
}

// PrintHTML converts an HTML document into PDF bytes.
func (e *ChromiumEngine) PrintHTML(ctx context.Context, htmlInput []byte) ([]byte, error) {
	if err := e.ensureBrowser(); err != nil {
		return nil, fmt.Errorf("chromium engine init failed: %w", err)
	}

	tabCtx, cancel := chromedp.NewContext(e.browserCtx)
	defer cancel()

	execCtx, cancelReq := context.WithCancel(tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-execCtx.Done():
		}
	}()
	if e.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(execCtx, e.Timeout)
		defer cancelTimeout()
	}

	var pdf []byte
	err := chromedp.Run(execCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(htmlInput)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = e.printParams().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromium pdf render failed: %w", err)
	}
	return pdf, nil
}

// printParams prints edge to edge at the geometry's page size; the print view positions everything itself.
func (e *ChromiumEngine) printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPreferCSSPageSize(true).
		WithPaperWidth(e.geometry.PageWidth / mmPerInch).
		WithPaperHeight(e.geometry.PageHeight / mmPerInch).
		WithMarginTop(0).
		WithMarginBottom(0).
		WithMarginLeft(0).
		WithMarginRight(0).
		WithScale(1)
}

// Close releases Chromium resources if they have been initialized.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	if e.browserCancel != nil {
		e.browserCancel()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

func (e *ChromiumEngine) ensureBrowser() error {
	e.initOnce.Do(func() {
		options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if e.BrowserPath != "" {
			options = append(options, chromedp.ExecPath(e.BrowserPath))
		}
		options = append(options, allocatorOptionsFromArgs(e.Args)...)

		e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		e.browserCtx, e.browserCancel = chromedp.NewContext(e.allocCtx)
	})
	if e.allocCtx == nil || e.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

func allocatorOptionsFromArgs(args []string) []chromedp.ExecAllocatorOption {
	options := make([]chromedp.ExecAllocatorOption, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			options = append(options, chromedp.Flag(name, value))
			continue
		}
		options = append(options, chromedp.Flag(arg, true))
	}
	return options
}
