package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("redis: connection refused")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(opts ...Option) (*CircuitBreaker, *clock, *[]string) {
	var transitions []string
	c := &clock{t: time.Date(2020, 9, 14, 8, 0, 0, 0, time.UTC)}
	opts = append(opts, WithOnStateChange(func(_ string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))
	cb := New("tutor-cache", opts...)
	cb.now = c.now
	return cb, c, &transitions
}

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	ctx := context.Background()
	cb, _, transitions := newTestBreaker(WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejected(err))
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, *transitions)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	cb, _, _ := newTestBreaker(WithFailureThreshold(2))

	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, succeed))
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	ctx := context.Background()
	cb, c, transitions := newTestBreaker(WithFailureThreshold(1), WithTimeout(10*time.Second))

	_ = cb.Execute(ctx, fail)
	c.advance(5 * time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)

	c.advance(5 * time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, *transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	cb, c, _ := newTestBreaker(WithFailureThreshold(1), WithTimeout(time.Second))

	_ = cb.Execute(ctx, fail)
	c.advance(time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenTrialBudget(t *testing.T) {
	ctx := context.Background()
	cb, c, _ := newTestBreaker(WithFailureThreshold(1), WithTimeout(time.Second))

	_ = cb.Execute(ctx, fail)
	c.advance(time.Second)

	err := cb.Execute(ctx, func(ctx context.Context) error {
		// A second caller arrives while the trial request is in flight.
		assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrTooManyRequests)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	ctx := context.Background()
	miss := errors.New("cache miss")
	cb, _, _ := newTestBreaker(
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, miss) }),
	)

	assert.ErrorIs(t, cb.Execute(ctx, func(context.Context) error { return miss }), miss)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCacheBreaker(t *testing.T) {
	cb := CacheBreaker("tutor-cache", nil)

	assert.Equal(t, "tutor-cache", cb.Name())
	assert.Equal(t, 3, cb.config.FailureThreshold)
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
