package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDo_FirstTry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastPolicy(), func(context.Context) (string, error) {
		calls++
		return "frame", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "frame", v)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	v, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, Transient(errors.New("busy"), 503)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, Transient(errors.New("down"), 502)
	})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStops(t *testing.T) {
	calls := 0
	notFound := errors.New("not found")
	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, notFound
	})
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, p, func(context.Context) (int, error) {
		calls++
		return 0, Transient(errors.New("busy"), 429)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 800*time.Millisecond, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(10))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, 250*time.Millisecond, p.BaseDelay)
}
