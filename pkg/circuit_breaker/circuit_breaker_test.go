package circuit_breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()

	errService := errors.New("service error")
	ok := func() error { return nil }
	fail := func() error { return errService }

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cb := circuit_breaker.New(circuit_breaker.Config{
		RecordLength:     10,
		Timeout:          2 * time.Second,
		Percentile:       0.3,
		RecoveryRequests: 2,
	}, circuit_breaker.WithNow(clock))

	for i := 0; i < 20; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, circuit_breaker.Closed, cb.State())

	// two failures out of ten stay under the threshold
	require.ErrorIs(t, cb.Call(fail), errService)
	require.ErrorIs(t, cb.Call(fail), errService)
	require.Equal(t, circuit_breaker.Closed, cb.State())

	require.ErrorIs(t, cb.Call(fail), errService)
	require.Equal(t, circuit_breaker.Open, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.False(t, called)

	now = now.Add(3 * time.Second)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, circuit_breaker.HalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	require.Equal(t, circuit_breaker.Closed, cb.State())
}

func Test_circuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := circuit_breaker.New(circuit_breaker.Config{
		RecordLength:     2,
		Timeout:          time.Second,
		Percentile:       0.5,
		RecoveryRequests: 5,
	}, circuit_breaker.WithNow(func() time.Time { return now }))

	fail := func() error { return errors.New("boom") }
	require.Error(t, cb.Call(fail))
	require.Equal(t, circuit_breaker.Open, cb.State())

	now = now.Add(2 * time.Second)
	require.Error(t, cb.Call(fail))
	require.Equal(t, circuit_breaker.Open, cb.State())

	cb.Reset()
	require.Equal(t, circuit_breaker.Closed, cb.State())
}
