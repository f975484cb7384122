package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const DefaultRenderTimeout = 30 * time.Second

// ChromeRenderer imprime un document HTML en PDF avec Chrome headless
type ChromeRenderer struct {
	execPath string
	timeout  time.Duration
}

// NewChromeRenderer : execPath vide laisse chromedp chercher Chrome dans le PATH
func NewChromeRenderer(execPath string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &ChromeRenderer{execPath: execPath, timeout: timeout}
}

func (r *ChromeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.DisableGPU, chromedp.NoSandbox)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome: %w", err)
	}
	return pdf, nil
}
