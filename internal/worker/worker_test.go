// internal/worker/worker_test.go
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerEmitsSingleOutcome(t *testing.T) {
	sess := newFakeSession()
	action := &stubAction{
		name:  "noop",
		login: true,
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			rt.Progressf("working")
			return Outcome{Success: true, Message: "done"}, nil
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())

	out := waitOutcome(t, w)
	assert.True(t, out.Success)
	assert.Equal(t, "done", out.Message)

	<-w.Done()
	assert.Equal(t, 1, sess.closed(), "session must be closed exactly once")

	// Exactly one outcome; the channel holds nothing further.
	select {
	case extra, ok := <-w.Outcome():
		if ok {
			t.Fatalf("unexpected second outcome: %+v", extra)
		}
	default:
	}
}

func TestWorkerSessionClosedBeforeOutcome(t *testing.T) {
	sess := newFakeSession()
	action := &stubAction{
		name: "noop",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			return Outcome{Success: true, Message: "done"}, nil
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())

	waitOutcome(t, w)
	assert.Equal(t, 1, sess.closed(), "session must be closed by the time the outcome is observable")
	<-w.Done()
}

func TestWorkerLaunchFailure(t *testing.T) {
	launchErr := errors.New("failed to launch browser: no chrome binary")
	factory := func(ctx context.Context) (Session, error) {
		return nil, launchErr
	}

	w := New(&stubAction{name: "noop"}, testConfig(factory))
	w.Start(context.Background())

	out := waitOutcome(t, w)
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "failed to launch browser")
	<-w.Done()
}

func TestWorkerAuthFailure(t *testing.T) {
	sess := newFakeSession()
	// Still on the login host after submitting credentials.
	sess.currentURL = "https://login.orbi.kr/login"

	ran := false
	action := &stubAction{
		name:  "needs-auth",
		login: true,
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			ran = true
			return Outcome{Success: true}, nil
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())

	out := waitOutcome(t, w)
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "invalid credentials or login rejected")
	assert.False(t, ran, "action must not run after rejected login")

	<-w.Done()
	assert.Equal(t, 1, sess.closed())
	assert.Equal(t, "user", sess.typed[`input[name="username"]`])
	assert.Equal(t, "pass\n", sess.typed[`input[name="password"]`])
}

func TestWorkerSkipsLoginWhenNotNeeded(t *testing.T) {
	sess := newFakeSession()
	action := &stubAction{
		name: "public",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			return Outcome{Success: true, Message: "ok"}, nil
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())
	waitOutcome(t, w)
	<-w.Done()

	assert.Empty(t, sess.navigatedURLs(), "no login navigation expected")
}

func TestWorkerCancelDuringAction(t *testing.T) {
	sess := newFakeSession()
	started := make(chan struct{})
	action := &stubAction{
		name: "loop",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			close(started)
			for !rt.Cancelled() {
				time.Sleep(10 * time.Millisecond)
			}
			return Outcome{}, ErrCancelled
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())

	<-started
	w.Cancel()
	w.Cancel() // idempotent

	out := waitOutcome(t, w)
	assert.False(t, out.Success)
	assert.Equal(t, "cancelled by user", out.Message)

	<-w.Done()
	assert.Equal(t, 1, sess.closed())
}

func TestWorkerCancelMapsActionError(t *testing.T) {
	// An action that fails for another reason after a cancel request still
	// reports the cancellation.
	sess := newFakeSession()
	action := &stubAction{
		name: "flaky",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			return Outcome{}, errors.New("element vanished")
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Cancel()
	w.Start(context.Background())

	out := waitOutcome(t, w)
	assert.False(t, out.Success)
	assert.Equal(t, "cancelled by user", out.Message)
	<-w.Done()
}

func TestWorkerPanicRecovery(t *testing.T) {
	sess := newFakeSession()
	action := &stubAction{
		name: "boom",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			panic("selector logic broke")
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())

	out := waitOutcome(t, w)
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "internal error")
	assert.Contains(t, out.Message, "selector logic broke")

	<-w.Done()
	assert.Equal(t, 1, sess.closed(), "session must be closed even on panic")
}

func TestWorkerCancelAfterCompletionIsNoop(t *testing.T) {
	sess := newFakeSession()
	action := &stubAction{
		name: "quick",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			return Outcome{Success: true, Message: "ok"}, nil
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())
	out := waitOutcome(t, w)
	<-w.Done()
	require.True(t, out.Success)

	w.Cancel()
	select {
	case extra, ok := <-w.Outcome():
		if ok {
			t.Fatalf("cancel after completion produced an outcome: %+v", extra)
		}
	default:
	}
}

func TestWorkerProgressOrderedAndClosed(t *testing.T) {
	sess := newFakeSession()
	action := &stubAction{
		name: "talkative",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			rt.Progressf("step 1")
			rt.Progressf("step 2")
			rt.Progressf("step 3")
			return Outcome{Success: true, Message: "ok"}, nil
		},
	}

	w := New(action, testConfig(factoryFor(sess)))
	w.Start(context.Background())

	msgs := drainProgress(w)
	waitOutcome(t, w)
	<-w.Done()

	require.GreaterOrEqual(t, len(msgs), 4)
	assert.Equal(t, "starting talkative", msgs[0])
	assert.Equal(t, []string{"step 1", "step 2", "step 3"}, msgs[len(msgs)-3:])
}

func TestWorkerRepeatedRunsCloseEverySession(t *testing.T) {
	var opened, closed atomic.Int32
	factory := func(ctx context.Context) (Session, error) {
		opened.Add(1)
		sess := newFakeSession()
		return &countingSession{fakeSession: sess, closedCounter: &closed}, nil
	}
	action := &stubAction{
		name: "quick",
		run: func(ctx context.Context, s Session, rt *Runtime) (Outcome, error) {
			return Outcome{Success: true, Message: "ok"}, nil
		},
	}

	for i := 0; i < 5; i++ {
		w := New(action, testConfig(factory))
		w.Start(context.Background())
		waitOutcome(t, w)
		<-w.Done()
	}

	assert.Equal(t, int32(5), opened.Load())
	assert.Equal(t, opened.Load(), closed.Load(), "every opened session must be closed")
}

type countingSession struct {
	*fakeSession
	closedCounter *atomic.Int32
}

func (c *countingSession) Close() {
	c.closedCounter.Add(1)
	c.fakeSession.Close()
}

func TestRuntimeSleepHonoursCancel(t *testing.T) {
	w := New(&stubAction{name: "noop"}, testConfig(factoryFor(newFakeSession())))
	rt := &Runtime{worker: w}

	w.Cancel()
	start := time.Now()
	ok := rt.Sleep(30 * time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}
