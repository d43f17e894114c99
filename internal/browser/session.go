// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/orbi-cli/internal/config"
)

// LaunchError indicates the headless browser process could not be started.
// All other session failures are plain errors; callers only need to
// distinguish "no browser at all" from "browser misbehaved".
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch browser: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Session owns a single headless Chrome tab and the allocator behind it.
// All page operations run against the session's chromedp context; operation
// contexts only bound individual calls, they never outlive the session.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	// dialogs buffers the text of native JS dialogs that the listener has
	// already accepted. Capacity 8 is far beyond anything the site produces.
	dialogs chan string

	closeOnce sync.Once
}

// Open launches a headless Chrome instance and returns a ready Session.
// A failure to start or reach the browser is reported as *LaunchError.
//
// The allocator is rooted on context.Background deliberately: cancelling the
// caller's context must not hard-kill the browser mid-operation. Cooperative
// shutdown happens through Close.
func Open(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	log := logger.Named("browser").With(zap.String("session_id", sessionID))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	s := &Session{
		id:          sessionID,
		logger:      log,
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      tabCancel,
		dialogs:     make(chan string, 8),
	}

	// Auto-accept native dialogs so they never block the tab. The handler
	// must run on its own goroutine; dispatching from inside the listener
	// deadlocks chromedp's event loop.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if dialog, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			log.Debug("Accepting native dialog", zap.String("message", dialog.Message))
			select {
			case s.dialogs <- dialog.Message:
			default:
				log.Warn("Dialog buffer full. Dropping dialog text.", zap.String("message", dialog.Message))
			}
			go func() {
				if err := chromedp.Run(tabCtx, page.HandleJavaScriptDialog(true)); err != nil {
					log.Warn("Failed to accept dialog.", zap.Error(err))
				}
			}()
		}
	})

	// Probe the browser with a trivial run so launch failures surface here
	// rather than on the first real operation.
	probeCtx, probeCancel := combineContext(tabCtx, parent)
	defer probeCancel()
	probeCtx, probeTimeout := context.WithTimeout(probeCtx, cfg.NavigationTimeout)
	defer probeTimeout()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		allocCancel()
		return nil, &LaunchError{Err: err}
	}

	log.Info("Browser session started.",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.WindowWidth),
		zap.Int("height", cfg.WindowHeight),
	)
	return s, nil
}

// ID returns the session identifier used in log correlation.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads the URL and waits for the document to become ready.
// There is no retry; the site either serves the page or the run fails.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))

	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()
	navCtx, navCancel := context.WithTimeout(opCtx, s.cfg.NavigationTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to '%s' timed out after %s: %w", url, s.cfg.NavigationTimeout, err)
		}
		return fmt.Errorf("navigation to '%s' failed: %w", url, err)
	}
	return nil
}

// CurrentURL reports the tab's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	opCtx, opCancel := s.actionContext(ctx)
	defer opCancel()

	var url string
	if err := chromedp.Run(opCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	return url, nil
}

// PageSource returns the serialized HTML of the current document.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	opCtx, opCancel := s.actionContext(ctx)
	defer opCancel()

	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Click waits for the element to become visible and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element", zap.String("selector", selector))

	opCtx, opCancel := s.actionContext(ctx)
	defer opCancel()

	err := chromedp.Run(opCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click failed for selector '%s': %w", selector, err)
	}
	return nil
}

// SendKeys types text into the element without clearing it first.
func (s *Session) SendKeys(ctx context.Context, selector, text string) error {
	s.logger.Debug("Typing into element", zap.String("selector", selector), zap.Int("text_length", len(text)))

	opCtx, opCancel := s.actionContext(ctx)
	defer opCancel()

	err := chromedp.Run(opCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("type failed for selector '%s': %w", selector, err)
	}
	return nil
}

// ClearAndType focuses the element, clears any existing value and types the
// replacement text.
func (s *Session) ClearAndType(ctx context.Context, selector, text string) error {
	s.logger.Debug("Clearing and typing into element", zap.String("selector", selector))

	opCtx, opCancel := s.actionContext(ctx)
	defer opCancel()

	err := chromedp.Run(opCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("clear-and-type failed for selector '%s': %w", selector, err)
	}
	return nil
}

// WaitVisible blocks until the element is visible or the timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, timeout)
	defer waitCancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element '%s' not visible within %s: %w", selector, timeout, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page and unmarshals the JSON
// result into res. Pass nil to discard the result.
func (s *Session) Evaluate(ctx context.Context, expression string, res interface{}) error {
	opCtx, opCancel := s.actionContext(ctx)
	defer opCancel()

	if err := chromedp.Run(opCtx, chromedp.Evaluate(expression, res)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// TryDismissDialog reports whether a native dialog was accepted since the
// last call, returning its message text. Dialogs are accepted by the event
// listener the moment they open; this merely drains the record.
func (s *Session) TryDismissDialog() (string, bool) {
	select {
	case msg := <-s.dialogs:
		return msg, true
	default:
		return "", false
	}
}

// Close shuts down the tab and the browser process. Safe to call multiple
// times; only the first call does any work.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")

		// chromedp.Cancel waits for the browser to exit gracefully where
		// plain context cancellation would orphan the process.
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.logger.Warn("Graceful browser shutdown failed.", zap.Error(err))
		}

		s.cancel()
		s.allocCancel()
	})
}

// actionContext derives a bounded per-operation context from the session's
// chromedp context and the caller's context.
func (s *Session) actionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	boundCtx, boundCancel := context.WithTimeout(opCtx, s.cfg.ActionTimeout)
	return boundCtx, func() {
		boundCancel()
		opCancel()
	}
}

// combineContext creates a context canceled when either input is canceled.
// chromedp operations must derive from the session context chain, so the
// caller's context is folded in as a secondary cancellation source.
func combineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
