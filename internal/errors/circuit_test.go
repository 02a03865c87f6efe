package errors

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("upstream")
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("upstream", WithMaxFailures(3))

	fail := func() error { return stderrors.New("refused") }
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}

	assert.Equal(t, StateOpen, cb.State())

	// Further calls fail fast without invoking fn.
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("upstream",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))

	_ = cb.Execute(func() error { return stderrors.New("refused") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A successful probe closes the circuit again.
	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker("upstream",
		WithMaxFailures(1),
		WithResetTimeout(5*time.Millisecond))

	_ = cb.Execute(func() error { return stderrors.New("refused") })
	time.Sleep(10 * time.Millisecond)

	err := cb.Execute(func() error { return stderrors.New("still down") })
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("upstream", WithMaxFailures(5))

	_ = cb.Execute(func() error { return stderrors.New("blip") })
	_ = cb.Execute(func() error { return stderrors.New("blip") })
	require.Equal(t, 2, cb.Failures())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}
