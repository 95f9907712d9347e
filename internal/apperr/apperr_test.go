package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("loading page: %w", NotFound("tenant.resolve", "site not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUnavailableIsRetryable(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("backend.fetch_tenant", cause)

	assert.True(t, err.Retryable())
	assert.ErrorIs(t, err, cause)
	assert.False(t, Forbidden("cart.add", "cart disabled").Retryable())
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{NotFound("op", "x"), http.StatusNotFound},
		{Unavailable("op", nil), http.StatusServiceUnavailable},
		{Forbidden("op", "x"), http.StatusForbidden},
		{Validation("op", "x"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err))
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "cart disabled", UserMessage(Forbidden("cart.add", "cart disabled")))
	assert.Equal(t, "something went wrong", UserMessage(errors.New("db timeout")))
}
