package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrPDFDisabled is returned when PDF rendering is not configured
var ErrPDFDisabled = errors.New("pdf rendering is disabled")

// A4 in inches, as expected by Page.printToPDF
const (
	a4Width  = 8.27
	a4Height = 11.69
	margin   = 0.4
)

// ChromePDF converts HTML to PDF with a headless Chrome per call
type ChromePDF struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChromePDF starts an exec allocator. Chrome itself is launched lazily
// on the first render.
func NewChromePDF(timeout time.Duration, logger *zap.Logger) *ChromePDF {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromePDF{allocCtx: allocCtx, allocCancel: cancel, timeout: timeout, logger: logger}
}

// HTMLToPDF prints html on A4 paper
func (c *ChromePDF) HTMLToPDF(ctx context.Context, html []byte) ([]byte, error) {
	if len(html) == 0 {
		return nil, errors.New("html is empty")
	}
	browserCtx, cancelBrowser := chromedp.NewContext(c.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.logger.Debug(fmt.Sprintf(format, args...))
		}))
	defer cancelBrowser()

	// chromedp contexts derive from the allocator, so the caller's deadline is
	// applied by watching ctx separately
	runCtx, cancel := context.WithTimeout(browserCtx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("pdf rendering timed out after %v: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	c.logger.Debug("Rendered PDF", zap.Int("bytes", len(pdf)), zap.Duration("elapsed", time.Since(start)))
	return pdf, nil
}

// Close shuts the allocator down
func (c *ChromePDF) Close() {
	c.allocCancel()
}

// DisabledPDF is used when PDF rendering is switched off
type DisabledPDF struct{}

// HTMLToPDF always fails with ErrPDFDisabled
func (DisabledPDF) HTMLToPDF(context.Context, []byte) ([]byte, error) {
	return nil, ErrPDFDisabled
}
