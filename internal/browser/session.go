// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heartofbedrock/AI-survey-solver/internal/config"
)

// Session owns one automated Chrome window (allocator plus a single tab) and
// exposes the page primitives the rest of the program needs. It is always
// passed explicitly; nothing in this package keeps ambient global state.
type Session struct {
	id     string
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// NewSession launches the browser process and connects to a fresh tab.
// The window is visible unless browser.headless is set.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	log := logger.Named("browser").With(zap.String("session_id", sessionID))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(argFlag(arg)))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, v ...interface{}) {
			log.Debug(fmt.Sprintf(format, v...))
		}),
	)

	s := &Session{
		id:          sessionID,
		cfg:         cfg,
		logger:      log,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      tabCancel,
	}

	// Running an empty task forces the browser process to start now, so a
	// broken Chrome installation fails here and not mid-workflow.
	startCtx, cancel := context.WithTimeout(tabCtx, cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads the given URL and waits, up to the configured navigation
// timeout, for the document body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating.", zap.String("url", url))
	err := s.run(ctx, s.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Eval runs a JavaScript expression against the loaded page. When out is
// non-nil the result is unmarshaled into it. Promises are awaited.
func (s *Session) Eval(ctx context.Context, js string, out interface{}) error {
	err := s.run(ctx, s.cfg.FindTimeout,
		chromedp.Evaluate(js, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// Text returns the trimmed text content of the first element matching the CSS
// selector. A selector that matches nothing within the find timeout is
// surfaced as an error rather than an empty string.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.run(ctx, s.cfg.FindTimeout,
		chromedp.Text(selector, &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("element %q not found: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Click clicks the first element matching the CSS selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, s.cfg.FindTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// ClickMatching clicks the first element matching the XPath expression. Used
// for text based lookups such as the "Next" button.
func (s *Session) ClickMatching(ctx context.Context, xpath string) error {
	if err := s.run(ctx, s.cfg.FindTimeout, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		return fmt.Errorf("click on %q failed: %w", xpath, err)
	}
	return nil
}

// Highlight draws a colored border around the matched element. XPath
// expressions (prefixed with "//") are resolved via document.evaluate,
// anything else is treated as a CSS selector.
func (s *Session) Highlight(ctx context.Context, selector, color string) error {
	var js string
	if strings.HasPrefix(selector, "//") {
		js = fmt.Sprintf(`(function() {
			var r = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
			if (r.singleNodeValue) { r.singleNodeValue.style.border = '3px solid %s'; }
		})()`, selector, color)
	} else {
		js = fmt.Sprintf(`(function() {
			var el = document.querySelector(%q);
			if (el) { el.style.border = '3px solid %s'; }
		})()`, selector, color)
	}
	if err := s.Eval(ctx, js, nil); err != nil {
		return err
	}
	s.logger.Debug("Element highlighted.", zap.String("selector", selector), zap.String("color", color))
	return nil
}

// Scroll moves the viewport down by the given number of pixels.
func (s *Session) Scroll(ctx context.Context, pixels int) error {
	return s.Eval(ctx, fmt.Sprintf("window.scrollBy(0, %d)", pixels), nil)
}

// Screenshot captures a full-page snapshot as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.cfg.NavigationTimeout, chromedp.FullScreenshot(&buf, 90))
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// Close tears down the tab and the browser process. It is safe to call more
// than once; the browser is released exactly once regardless of how the run
// ended.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")
		if s.cancel != nil {
			s.cancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
	return s.closeErr
}

// run executes chromedp actions on a context that honors the session
// lifetime, the caller's cancellation and the per-operation timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var tcancel context.CancelFunc
		opCtx, tcancel = context.WithTimeout(opCtx, timeout)
		defer tcancel()
	}
	return chromedp.Run(opCtx, actions...)
}

// argFlag turns a raw command line argument into a chromedp flag name and
// value. Valued arguments such as --proxy-server=host:port keep their value;
// bare arguments become boolean switches.
func argFlag(arg string) (string, interface{}) {
	arg = strings.TrimPrefix(arg, "--")
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}

// combineContext derives a context from primary (which carries the CDP target
// information) that is additionally canceled when secondary is.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}
