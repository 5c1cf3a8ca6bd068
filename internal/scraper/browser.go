package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserPool manages a headless Chrome allocator shared by page fetches
type BrowserPool struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

// BrowserConfig configures browser behavior
type BrowserConfig struct {
	Timeout       time.Duration
	UserAgent     string
	ProxyURL      string
	DisableImages bool
	WindowWidth   int
	WindowHeight  int
}

// DefaultBrowserConfig returns sensible defaults
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Timeout:       15 * time.Second,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		DisableImages: true,
		WindowWidth:   1366,
		WindowHeight:  768,
	}
}

// NewBrowserPool creates a new browser pool. Chrome is started lazily on the
// first fetch.
func NewBrowserPool(logger *zap.Logger, config *BrowserConfig) *BrowserPool {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.UserAgent(config.UserAgent),
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
	}

	if config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(config.ProxyURL))
	}

	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserPool{
		allocCtx: allocCtx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Close shuts down the browser pool
func (p *BrowserPool) Close() {
	p.cancel()
}

// FetchPage navigates to url and returns the rendered document HTML.
// ctx cancellation closes the tab.
func (p *BrowserPool) FetchPage(ctx context.Context, url string, waitSelector string) (string, error) {
	p.logger.Debug("Fetching page in browser", zap.String("url", url))

	tabCtx, cancel := chromedp.NewContext(p.allocCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string

	actions := []chromedp.Action{
		chromedp.Navigate(url),
	}

	if waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return "", err
	}

	p.logger.Debug("Page rendered", zap.String("url", url), zap.Int("length", len(html)))
	return html, nil
}

// BrowserSource is a PageSource that renders the page in headless Chrome,
// for deployments where the plain GET gets a script-only shell.
type BrowserSource struct {
	pool    *BrowserPool
	url     string
	timeout time.Duration
}

// NewBrowserSource creates a source for url backed by pool
func NewBrowserSource(pool *BrowserPool, url string, timeout time.Duration) *BrowserSource {
	return &BrowserSource{
		pool:    pool,
		url:     url,
		timeout: timeout,
	}
}

// FetchPage implements PageSource
func (b *BrowserSource) FetchPage(ctx context.Context) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	html, err := b.pool.FetchPage(ctx, b.url, "")
	if err != nil {
		return "", transportError(b.url, err)
	}
	return html, nil
}
