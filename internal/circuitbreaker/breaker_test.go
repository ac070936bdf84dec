package circuitbreaker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recorder-notifier/internal/common/errors"
	"recorder-notifier/internal/common/logging"
)

func TestBreaker_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("passes through success", func(t *testing.T) {
		breaker := New("test", DefaultConfig(), logging.GetGlobalLogger())

		err := breaker.Execute(ctx, func() error { return nil })
		assert.NoError(t, err)
		assert.Equal(t, "closed", breaker.State())
	})

	t.Run("passes through failures until it opens", func(t *testing.T) {
		config := Config{
			MaxFailures:           3,
			Timeout:               time.Minute,
			MaxConcurrentRequests: 1,
		}
		breaker := New("test", config, logging.GetGlobalLogger())

		failure := errors.DeliveryError("downstream down", nil)
		for i := 0; i < 3; i++ {
			err := breaker.Execute(ctx, func() error { return failure })
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
		}

		assert.Equal(t, "open", breaker.State())

		// Once open, calls fail fast with a delivery-class error so the
		// sender still sees a retryable status.
		called := false
		err := breaker.Execute(ctx, func() error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
	})
}
