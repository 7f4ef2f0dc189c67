package util

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDatabaseLocked(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked"), true},
		{errors.New("step: SQLITE_BUSY"), true},
		{errors.New("no such table"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDatabaseLocked(tt.err), "%v", tt.err)
	}
}

func fastRetry() LockRetry {
	return LockRetry{Attempts: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoValue_RetriesLockErrors(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	got, err := DoValue(ctx, fastRetry(), func() (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("database is locked")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLockRetry_DoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("constraint failed")
	err := fastRetry().Do(context.Background(), func() error {
		calls.Add(1)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLockRetry_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	err := fastRetry().Do(context.Background(), func() error {
		calls.Add(1)
		return errors.New("SQLITE_BUSY")
	})
	require.Error(t, err)
	assert.True(t, IsDatabaseLocked(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPollUntil(t *testing.T) {
	var n atomic.Int32
	err := PollUntil(context.Background(), PollConfig{Timeout: time.Second, Interval: 5 * time.Millisecond}, func() bool {
		return n.Add(1) >= 3
	})
	assert.NoError(t, err)

	err = PollUntil(context.Background(), PollConfig{Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond}, func() bool {
		return false
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(0))
	assert.False(t, IsProcessRunning(-1))
}
