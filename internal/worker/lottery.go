// internal/worker/lottery.go
package worker

import (
	"context"
	"fmt"
)

// LotteryAction clicks the lottery balloon a fixed number of times and
// accepts the result dialog after each click. A click counts as successful
// only when both the click and the dialog handling finished without error;
// a missing dialog is not an error.
type LotteryAction struct {
	Clicks int
}

func (a *LotteryAction) Name() string { return "lottery" }

func (a *LotteryAction) NeedsLogin() bool { return true }

func (a *LotteryAction) Validate() error {
	if a.Clicks < 1 || a.Clicks > 100 {
		return fmt.Errorf("click count must be between 1 and 100, got %d", a.Clicks)
	}
	return nil
}

func (a *LotteryAction) Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error) {
	rt.Progressf("opening lottery page")
	if err := sess.Navigate(ctx, rt.Site().BaseURL+"/amusement/lottery"); err != nil {
		return Outcome{}, fmt.Errorf("failed to open lottery page: %w", err)
	}
	if !rt.Sleep(rt.Pacing().PageSettle) {
		return Outcome{}, ErrCancelled
	}

	successCount := 0
	for i := 0; i < a.Clicks; i++ {
		if rt.Cancelled() {
			return Outcome{}, ErrCancelled
		}
		rt.Progressf("lottery click %d/%d", i+1, a.Clicks)

		if err := sess.Click(ctx, ".balloon"); err != nil {
			rt.Progressf("lottery click %d/%d failed: %v", i+1, a.Clicks, err)
			if !rt.Sleep(rt.Pacing().ActionDelay) {
				return Outcome{}, ErrCancelled
			}
			continue
		}

		// Give the result dialog a moment to open before draining it.
		if !rt.Sleep(rt.Pacing().DialogSettle) {
			return Outcome{}, ErrCancelled
		}
		if msg, ok := sess.TryDismissDialog(); ok {
			rt.Progressf("dialog accepted: %s", msg)
		}

		successCount++
		rt.Progressf("lottery click %d/%d succeeded", i+1, a.Clicks)
		if !rt.Sleep(rt.Pacing().ActionDelay) {
			return Outcome{}, ErrCancelled
		}
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("lottery finished: %d/%d clicks succeeded", successCount, a.Clicks),
		Count:   successCount,
	}, nil
}
