// internal/worker/worker.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/orbi-cli/internal/config"
)

// Session is the browser surface actions run against. Satisfied by
// browser.Session; tests substitute a fake.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, text string) error
	ClearAndType(ctx context.Context, selector, text string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Evaluate(ctx context.Context, expression string, res interface{}) error
	TryDismissDialog() (string, bool)
	Close()
}

// SessionFactory opens a fresh browser session for one run.
type SessionFactory func(ctx context.Context) (Session, error)

// Action is one automated task executed inside the worker template.
// Run must return ErrCancelled when it observes a cancellation request.
type Action interface {
	Name() string
	NeedsLogin() bool
	Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error)
}

// Credentials are the forum login credentials for a run.
type Credentials struct {
	Username string
	Password string
}

// Config carries everything a worker needs besides the action itself.
type Config struct {
	Credentials Credentials
	Site        config.SiteConfig
	Pacing      config.PacingConfig
	Factory     SessionFactory
	Logger      *zap.Logger
}

// Worker runs a single Action on its own goroutine: open session, log in if
// the action needs it, run the action, and normalize every exit path (error,
// cancellation, panic) into exactly one Outcome. The session is closed on
// every path before the outcome is emitted.
type Worker struct {
	action Action
	cfg    Config
	runID  string
	logger *zap.Logger

	progress chan Progress
	outcome  chan Outcome
	done     chan struct{}

	cancelled atomic.Bool
	startOnce sync.Once
	emitOnce  sync.Once
}

// New builds a worker for the given action. It does not start it.
func New(action Action, cfg Config) *Worker {
	runID := uuid.New().String()
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		action: action,
		cfg:    cfg,
		runID:  runID,
		logger: logger.Named("worker").With(
			zap.String("run_id", runID),
			zap.String("action", action.Name()),
		),
		progress: make(chan Progress, 64),
		outcome:  make(chan Outcome, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the run. Subsequent calls are no-ops.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

// Cancel requests cooperative cancellation. The flag is polled at loop tops
// and sleep ticks; an in-flight browser call is never aborted. Calling
// Cancel after the run finished does nothing.
func (w *Worker) Cancel() {
	if w.cancelled.CompareAndSwap(false, true) {
		w.logger.Info("Cancellation requested.")
	}
}

// Cancelled reports whether cancellation has been requested.
func (w *Worker) Cancelled() bool {
	return w.cancelled.Load()
}

// Progress returns the progress event stream. Closed after the outcome is
// emitted.
func (w *Worker) Progress() <-chan Progress {
	return w.progress
}

// Outcome returns the terminal result channel. Exactly one value is sent.
func (w *Worker) Outcome() <-chan Outcome {
	return w.outcome
}

// Done is closed when the run has fully finished, session teardown included.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.progress)

	// execute returns only after its defers ran, so the session is closed
	// before the outcome becomes observable.
	w.emit(w.execute(ctx))
}

func (w *Worker) execute(ctx context.Context) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Worker panicked.", zap.Any("panic", r), zap.Stack("stack"))
			out = Outcome{Success: false, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	rt := &Runtime{worker: w}
	rt.Progressf("starting %s", w.action.Name())

	sess, err := w.cfg.Factory(ctx)
	if err != nil {
		w.logger.Error("Failed to open browser session.", zap.Error(err))
		return Outcome{Success: false, Message: err.Error()}
	}
	defer sess.Close()

	if w.action.NeedsLogin() {
		if err := w.login(ctx, sess, rt); err != nil {
			return w.failure(err)
		}
	}

	if w.cancelled.Load() {
		return w.failure(ErrCancelled)
	}

	result, err := w.action.Run(ctx, sess, rt)
	if err != nil {
		return w.failure(err)
	}
	return result
}

// failure maps a run error to its failure outcome. Cancellation takes
// priority: a run that errored after a cancel request still reports the
// cancellation to the observer.
func (w *Worker) failure(err error) Outcome {
	if errors.Is(err, ErrCancelled) || w.cancelled.Load() {
		return Outcome{Success: false, Message: ErrCancelled.Error()}
	}
	w.logger.Error("Worker failed.", zap.Error(err))
	return Outcome{Success: false, Message: err.Error()}
}

// emit delivers the terminal outcome at most once.
func (w *Worker) emit(out Outcome) {
	w.emitOnce.Do(func() {
		w.logger.Info("Worker finished.",
			zap.Bool("success", out.Success),
			zap.String("message", out.Message),
		)
		w.outcome <- out
	})
}

// login opens the login page, submits the credentials and verifies the
// redirect left the login host. Still on the login host means the site
// rejected the credentials; that is terminal, never retried.
func (w *Worker) login(ctx context.Context, sess Session, rt *Runtime) error {
	rt.Progressf("logging in")

	if err := sess.Navigate(ctx, w.cfg.Site.LoginURL); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := sess.SendKeys(ctx, `input[name="username"]`, w.cfg.Credentials.Username); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	// Enter submits the form; the site has no reliable submit button id.
	if err := sess.SendKeys(ctx, `input[name="password"]`, w.cfg.Credentials.Password+"\n"); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if !rt.Sleep(w.cfg.Pacing.LoginSettle) {
		return ErrCancelled
	}

	url, err := sess.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify login: %w", err)
	}
	if strings.Contains(url, "login") {
		return NewAuthError()
	}

	rt.Progressf("login successful")
	return nil
}

// Runtime is the per-run surface handed to actions: progress reporting,
// cancellation polling and configuration access.
type Runtime struct {
	worker *Worker
}

// Progressf emits a progress event and mirrors it to the log. A full buffer
// drops the event rather than stalling the run.
func (rt *Runtime) Progressf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	rt.worker.logger.Info(msg)
	ev := Progress{Time: time.Now(), Message: msg}
	select {
	case rt.worker.progress <- ev:
	default:
		rt.worker.logger.Warn("Progress buffer full. Dropping event.", zap.String("message", msg))
	}
}

// Cancelled reports whether the run should stop at the next safe point.
func (rt *Runtime) Cancelled() bool {
	return rt.worker.cancelled.Load()
}

// Sleep waits for d, ticking once per second so a cancellation request is
// observed promptly. Returns false if cancelled before the wait elapsed.
func (rt *Runtime) Sleep(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if rt.Cancelled() {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
	}
}

// Site returns the forum endpoints for this run.
func (rt *Runtime) Site() config.SiteConfig {
	return rt.worker.cfg.Site
}

// Pacing returns the inter-action delays for this run.
func (rt *Runtime) Pacing() config.PacingConfig {
	return rt.worker.cfg.Pacing
}

// Logger returns the run-scoped logger.
func (rt *Runtime) Logger() *zap.Logger {
	return rt.worker.logger
}
