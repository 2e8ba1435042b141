package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserConfig selects how the browser is obtained.
type BrowserConfig struct {
	// RemoteURL is the CDP HTTP endpoint of an already running browser.
	// Empty launches a private browser process.
	RemoteURL   string
	Headless    bool
	WindowSize  [2]int
	EvalTimeout time.Duration
}

// Browser owns one browser connection. Sessions created from it live in
// separate browser contexts and share no cookies or storage.
type Browser struct {
	cfg         BrowserConfig
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// Connect allocates the browser and starts it.
func Connect(ctx context.Context, cfg BrowserConfig, logger *slog.Logger) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = 15 * time.Second
	}
	if cfg.WindowSize == [2]int{} {
		cfg.WindowSize = [2]int{1920, 1080}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		logger.Info("connecting to browser", "url", cfg.RemoteURL)
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.WindowSize(cfg.WindowSize[0], cfg.WindowSize[1]),
		)
		logger.Info("launching browser", "headless", cfg.Headless)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chromedp", "message", fmt.Sprintf(format, args...))
		}),
	)

	// The first Run allocates the browser and must not carry a deadline,
	// otherwise the browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Browser{
		cfg:         cfg,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
		logger:      logger,
	}, nil
}

// NewSession opens a tab in a fresh browser context. The returned cancel
// closes the tab and disposes the context.
func (b *Browser) NewSession(ctx context.Context, logger *slog.Logger) (*Chrome, context.CancelFunc, error) {
	if logger == nil {
		logger = b.logger
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	if err := ctx.Err(); err != nil {
		cancel()
		return nil, nil, err
	}
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to open browser session: %w", err)
	}

	return &Chrome{ctx: tabCtx, evalTimeout: b.cfg.EvalTimeout, logger: logger}, cancel, nil
}

// Close shuts the browser down, or disconnects from a remote one.
func (b *Browser) Close() {
	b.cancel()
	b.allocCancel()
}
