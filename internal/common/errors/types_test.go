package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := DeliveryError("telegram request failed", fmt.Errorf("connection refused")).
		WithContext("status", 502)

	msg := err.Error()
	assert.Contains(t, msg, "delivery")
	assert.Contains(t, msg, "telegram request failed")
	assert.Contains(t, msg, "cause=connection refused")
	assert.Contains(t, msg, "status=502")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ConnectionError("redis unreachable", cause)

	assert.True(t, stderrors.Is(err, cause))
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(ValidationError("missing EventId"), ErrTypeValidation))
	assert.False(t, IsType(ValidationError("missing EventId"), ErrTypeDelivery))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeValidation))
	assert.False(t, IsType(nil, ErrTypeValidation))
}

func TestGetType(t *testing.T) {
	assert.Equal(t, ErrTypeStore, GetType(StoreError("down", nil)))
	assert.Equal(t, ErrTypeInternal, GetType(fmt.Errorf("plain")))
	assert.Equal(t, ErrorType(""), GetType(nil))
}
