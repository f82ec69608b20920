package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 100 * time.Millisecond},
		{"negative failures", -1, 100 * time.Millisecond},
		{"one failure", 1, 200 * time.Millisecond},
		{"three failures", 3, 800 * time.Millisecond},
		{"capped", 5, maxBackoff},
		{"many failures capped", 40, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateBackoff(tt.failures, base))
		})
	}
}

type fakePinger struct {
	failFor int
	calls   int
}

var errRefused = errors.New("connection refused")

func (p *fakePinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failFor {
		return errRefused
	}
	return nil
}

func TestWaitForHost_RetriesUntilReachable(t *testing.T) {
	p := &fakePinger{failFor: 2}
	require.NoError(t, WaitForHost(context.Background(), p, 5*time.Second))
	assert.Equal(t, 3, p.calls)
}

func TestWaitForHost_ZeroWaitTriesOnce(t *testing.T) {
	p := &fakePinger{failFor: 10}
	err := WaitForHost(context.Background(), p, 0)
	require.ErrorIs(t, err, errRefused)
	assert.Equal(t, 1, p.calls)
}

func TestWaitForHost_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakePinger{failFor: 10}
	assert.ErrorIs(t, WaitForHost(ctx, p, time.Minute), context.Canceled)
}
