package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("update cat: %w", Denied("not the owner"))

	assert.ErrorIs(t, err, ErrAuthorizationDenied)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStatusFromKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindAuthorizationDenied, http.StatusForbidden},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindNotFound, http.StatusNotFound},
		{KindValidationFailed, http.StatusBadRequest},
		{KindMethodNotAllowed, http.StatusMethodNotAllowed},
		{KindUpstreamFailure, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromKind(tt.kind))
		})
	}
}

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	err := RateLimited("scope_quota_exceeded", 42*time.Second)

	assert.Equal(t, http.StatusTooManyRequests, err.Status())
	assert.Equal(t, 42*time.Second, err.RetryAfter)
	assert.Equal(t, "scope_quota_exceeded", err.Reason)
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	raw := errors.New("boom")

	e := From(raw)
	require.NotNil(t, e)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, e, raw)

	nf := NotFound("no cat")
	assert.Same(t, nf, From(fmt.Errorf("wrapped: %w", nf)))
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream(cause, "store unavailable")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstreamFailure)
	assert.Contains(t, err.Error(), "store unavailable")
}
