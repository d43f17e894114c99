// internal/worker/lottery_test.go
package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotteryValidate(t *testing.T) {
	assert.NoError(t, (&LotteryAction{Clicks: 1}).Validate())
	assert.NoError(t, (&LotteryAction{Clicks: 100}).Validate())
	assert.Error(t, (&LotteryAction{Clicks: 0}).Validate())
	assert.Error(t, (&LotteryAction{Clicks: 101}).Validate())
}

func TestLotteryCountsOnlySuccessfulClicks(t *testing.T) {
	sess := newFakeSession()
	attempt := 0
	sess.clickErr = func(selector string) error {
		attempt++
		if attempt == 2 {
			return errors.New("balloon not found")
		}
		return nil
	}
	sess.dialogs = []string{"you won 10 points", "you won 5 points"}

	action := &LotteryAction{Clicks: 3}
	rt := runtimeFor(testConfig(factoryFor(sess)))

	out, err := action.Run(context.Background(), sess, rt)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "lottery finished: 2/3 clicks succeeded", out.Message)
	assert.Equal(t, 2, out.Count)
}

func TestLotteryMissingDialogIsNotAnError(t *testing.T) {
	sess := newFakeSession()
	action := &LotteryAction{Clicks: 2}
	rt := runtimeFor(testConfig(factoryFor(sess)))

	out, err := action.Run(context.Background(), sess, rt)
	require.NoError(t, err)
	assert.Equal(t, "lottery finished: 2/2 clicks succeeded", out.Message)
}
