// internal/worker/comment.go
package worker

import (
	"context"
	"fmt"
	"strings"
)

// CommentAction posts the same comment on one article a fixed number of
// times. Individual post failures are reported as progress and skipped; the
// run only aborts on a missing article or cancellation.
type CommentAction struct {
	ArticleID string
	Text      string
	Count     int
}

func (a *CommentAction) Name() string { return "comment" }

func (a *CommentAction) NeedsLogin() bool { return true }

// Validate rejects parameter combinations before a browser is opened.
func (a *CommentAction) Validate() error {
	if a.ArticleID == "" {
		return fmt.Errorf("article id is required")
	}
	if a.Text == "" {
		return fmt.Errorf("comment text is required")
	}
	if a.Count < 1 || a.Count > 100 {
		return fmt.Errorf("comment count must be between 1 and 100, got %d", a.Count)
	}
	return nil
}

func (a *CommentAction) Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error) {
	articleURL := fmt.Sprintf("%s/%s", rt.Site().BaseURL, a.ArticleID)
	rt.Progressf("opening article %s", articleURL)
	if err := sess.Navigate(ctx, articleURL); err != nil {
		return Outcome{}, fmt.Errorf("failed to open article: %w", err)
	}
	if !rt.Sleep(rt.Pacing().PageSettle) {
		return Outcome{}, ErrCancelled
	}

	if missing, err := a.articleMissing(ctx, sess); err != nil {
		return Outcome{}, err
	} else if missing {
		return Outcome{}, &NotFoundError{Resource: "article " + a.ArticleID}
	}

	for i := 0; i < a.Count; i++ {
		if rt.Cancelled() {
			return Outcome{}, ErrCancelled
		}
		rt.Progressf("posting comment %d/%d", i+1, a.Count)

		if err := a.postOnce(ctx, sess); err != nil {
			rt.Progressf("comment %d/%d failed: %v", i+1, a.Count, err)
			if !rt.Sleep(rt.Pacing().ActionDelay) {
				return Outcome{}, ErrCancelled
			}
			continue
		}

		rt.Progressf("comment %d/%d posted", i+1, a.Count)
		if !rt.Sleep(rt.Pacing().ActionDelay) {
			return Outcome{}, ErrCancelled
		}
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("posted %d comments on article %s", a.Count, a.ArticleID),
		Count:   a.Count,
	}, nil
}

// articleMissing detects the site's soft 404: an error redirect or a "404"
// marker in the served page.
func (a *CommentAction) articleMissing(ctx context.Context, sess Session) (bool, error) {
	url, err := sess.CurrentURL(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to verify article page: %w", err)
	}
	if strings.Contains(url, "error") {
		return true, nil
	}
	source, err := sess.PageSource(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read article page: %w", err)
	}
	return strings.Contains(source, "404"), nil
}

func (a *CommentAction) postOnce(ctx context.Context, sess Session) error {
	if err := sess.ClearAndType(ctx, `[name="content"]`, a.Text); err != nil {
		return &TransientError{Op: "fill comment field", Err: err}
	}
	if err := sess.Click(ctx, ".send"); err != nil {
		return &TransientError{Op: "submit comment", Err: err}
	}
	return nil
}
