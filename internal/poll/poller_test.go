package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

// fakeClock records requested sleeps and returns immediately.
type fakeClock struct {
	sleeps []time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	return nil
}

func succeededAfter(n int, url string) CheckFunc {
	calls := 0
	return func(context.Context) (*Update, error) {
		calls++
		if calls < n {
			return &Update{Status: StatusRunning}, nil
		}
		return &Update{Status: StatusSucceeded, Result: &capability.Result{URL: url}}, nil
	}
}

func TestPollerSucceeds(t *testing.T) {
	clock := &fakeClock{}
	p := New(2*time.Second, 10, WithClock(clock))

	res, err := p.Wait(context.Background(), capability.ProviderRunway, succeededAfter(3, "https://cdn.example/video.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/video.mp4", res.URL)

	// Two sleeps separate three checks; none after the terminal one.
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, clock.sleeps)
}

func TestPollerTimeoutAfterExactBudget(t *testing.T) {
	clock := &fakeClock{}
	p := New(time.Second, 5, WithClock(clock))

	checks := 0
	_, err := p.Wait(context.Background(), capability.ProviderHeyGen, func(context.Context) (*Update, error) {
		checks++
		return &Update{Status: StatusRunning}, nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTimeout))
	assert.Equal(t, 5, checks, "never-terminal job stops after exactly the attempt budget")
	assert.Len(t, clock.sleeps, 4, "no sleep after the final check")
}

func TestPollerProviderFailure(t *testing.T) {
	p := New(time.Second, 5, WithClock(&fakeClock{}))

	_, err := p.Wait(context.Background(), capability.ProviderHeyGen, func(context.Context) (*Update, error) {
		return &Update{Status: StatusFailed, FailureMessage: "render farm rejected the job"}, nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProvider))
	assert.False(t, errors.Is(err, apperrors.ErrTimeout), "provider failure is not a timeout")
	assert.Contains(t, err.Error(), "render farm rejected the job")
}

func TestPollerEmptySuccessIsFailure(t *testing.T) {
	p := New(time.Second, 5, WithClock(&fakeClock{}))

	_, err := p.Wait(context.Background(), capability.ProviderRunway, func(context.Context) (*Update, error) {
		return &Update{Status: StatusSucceeded}, nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyResult))
}

func TestPollerToleratesCheckErrors(t *testing.T) {
	clock := &fakeClock{}
	p := New(time.Second, 10, WithClock(clock))

	calls := 0
	res, err := p.Wait(context.Background(), capability.ProviderRunway, func(context.Context) (*Update, error) {
		calls++
		if calls <= 2 {
			return nil, errors.New("connection reset")
		}
		return &Update{Status: StatusSucceeded, Result: &capability.Result{URL: "https://cdn.example/a.png"}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.NotNil(t, res)
}

func TestPollerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(time.Second, 10, WithClock(&fakeClock{}))

	calls := 0
	_, err := p.Wait(ctx, capability.ProviderHeyGen, func(context.Context) (*Update, error) {
		calls++
		if calls == 2 {
			cancel()
			return nil, ctx.Err()
		}
		return &Update{Status: StatusRunning}, nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, calls)
}

func TestPollerHooks(t *testing.T) {
	var attempts []int
	var progress []int
	p := New(time.Second, 10,
		WithClock(&fakeClock{}),
		WithAttemptHook(func(_ capability.ProviderID, attempt int) {
			attempts = append(attempts, attempt)
		}),
		WithProgress(func(attempt int, u *Update) {
			progress = append(progress, u.Progress)
		}),
	)

	calls := 0
	_, err := p.Wait(context.Background(), capability.ProviderHeyGen, func(context.Context) (*Update, error) {
		calls++
		if calls < 3 {
			return &Update{Status: StatusRunning, Progress: calls * 30}, nil
		}
		return &Update{Status: StatusSucceeded, Progress: 100, Result: &capability.Result{URL: "https://cdn.example/v.mp4"}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []int{30, 60, 100}, progress)
}

func TestRealClockRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealClock{}.Sleep(ctx, time.Minute)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
