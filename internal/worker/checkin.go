// internal/worker/checkin.go
package worker

import (
	"context"
	"fmt"
	"time"
)

// TargetTime is a wall-clock time of day for the timed check-in submit.
type TargetTime struct {
	Hour   int
	Minute int
	Second int
}

// NextOccurrence resolves a time of day to its next occurrence: today if
// still ahead, otherwise the same time tomorrow.
func NextOccurrence(now time.Time, t TargetTime) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, t.Second, 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// CheckinAction performs the daily attendance check-in, optionally waiting
// until a target time of day before clicking submit. The forum resets the
// check-in at midnight, hence the default target of 00:00:00.
type CheckinAction struct {
	// Message is the greeting to post with the check-in. Empty means "q".
	Message string
	// Target is the submit time of day. Nil submits immediately.
	Target *TargetTime
}

func (a *CheckinAction) Name() string { return "checkin" }

func (a *CheckinAction) NeedsLogin() bool { return true }

func (a *CheckinAction) Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error) {
	rt.Progressf("opening attendance page")
	if err := sess.Navigate(ctx, rt.Site().BaseURL+"/amusement/attendance"); err != nil {
		return Outcome{}, fmt.Errorf("failed to open attendance page: %w", err)
	}
	if !rt.Sleep(rt.Pacing().PageSettle) {
		return Outcome{}, ErrCancelled
	}

	message := a.Message
	if message == "" {
		message = "q"
	}
	// A missing greeting field only costs the message, not the check-in.
	if err := sess.SendKeys(ctx, ".greets-wrap .input-wrap", message); err != nil {
		rt.Progressf("failed to fill greeting message: %v", err)
	} else {
		rt.Progressf("greeting message filled: %s", message)
	}

	if a.Target != nil {
		target := NextOccurrence(time.Now(), *a.Target)
		rt.Progressf("waiting until %s to submit", target.Format("15:04:05"))
		if err := a.waitUntil(rt, target); err != nil {
			return Outcome{}, err
		}
	}

	if rt.Cancelled() {
		return Outcome{}, ErrCancelled
	}

	if err := sess.Click(ctx, ".greets-wrap button.submit"); err != nil {
		return Outcome{}, fmt.Errorf("failed to click attendance button: %w", err)
	}
	rt.Progressf("attendance button clicked")
	rt.Sleep(rt.Pacing().PageSettle)

	return Outcome{Success: true, Message: "attendance check completed"}, nil
}

// waitUntil counts down to the target in one-second ticks, reporting every
// ten seconds and every second inside the final ten.
func (a *CheckinAction) waitUntil(rt *Runtime, target time.Time) error {
	for {
		if rt.Cancelled() {
			return ErrCancelled
		}
		remaining := time.Until(target)
		if remaining <= 0 {
			return nil
		}
		secs := int(remaining.Round(time.Second).Seconds())
		if secs%10 == 0 || secs < 10 {
			rt.Progressf("%d seconds until submit", secs)
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
	}
}
