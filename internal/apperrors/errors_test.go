package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	base := NotFound("payment.not_found", "payment txn_1 not found")
	wrapped := fmt.Errorf("refund: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Upstream("payment.gateway_unavailable", "authorize", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream")
	assert.Contains(t, err.Error(), "dial tcp")
}
