package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesOriginalCode(t *testing.T) {
	clone := Clone(ErrInvalidCredentials, "nope")
	assert.True(t, errors.Is(clone, ErrInvalidCredentials))
	assert.False(t, errors.Is(clone, ErrSessionExpired))
	assert.Equal(t, "nope", clone.Message)
	assert.Equal(t, "unable to sign in, check your credentials", ErrInvalidCredentials.Message)
}

func TestWrapAsKeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := WrapAs(ErrNetworkOrServer, cause)
	assert.True(t, errors.Is(err, ErrNetworkOrServer))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("step: %w", ErrUnauthenticated)
	assert.Equal(t, ErrUnauthenticated.Code, FromError(wrapped).Code)
}

func TestIsSessionLoss(t *testing.T) {
	assert.True(t, IsSessionLoss(fmt.Errorf("x: %w", ErrUnauthenticated)))
	assert.True(t, IsSessionLoss(Clone(ErrSessionExpired, "")))
	assert.False(t, IsSessionLoss(ErrInvalidCredentials))
	assert.False(t, IsSessionLoss(nil))
}
