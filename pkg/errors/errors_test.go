package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{CodeValidation, http.StatusBadRequest, "validation failed", false, true},
		{CodeUnauthorized, http.StatusUnauthorized, "authentication required", false, false},
		{CodeForbidden, http.StatusForbidden, "access denied", false, false},
		{CodeNotFound, http.StatusNotFound, "resource not found", false, false},
		{CodeConflict, http.StatusConflict, "conflict detected", false, true},
		{CodeStateConflict, http.StatusUnprocessableEntity, "state transition disallowed", false, true},
		{CodeIdempotency, http.StatusConflict, "idempotency key reused", false, true},
		{CodeRateLimit, http.StatusTooManyRequests, "rate limit exceeded", false, false},
		{CodeInternal, http.StatusInternalServerError, "internal server error", true, false},
		{CodeDependency, http.StatusServiceUnavailable, "dependency unavailable", true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			m := MetadataFor(tt.code)
			require.Equal(t, tt.status, m.HTTPStatus)
			require.Equal(t, tt.publicMsg, m.PublicMessage)
			require.Equal(t, tt.retryable, m.Retryable)
			require.Equal(t, tt.detailsOK, m.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())
	require.Equal(t, "VALIDATION_ERROR: missing foo", base.Error())

	base.WithDetails(map[string]any{"field": "foo"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())
	require.Equal(t, "CONFLICT: ctx: boom", wrapped.Error())

	require.Nil(t, Wrap(CodeInternal, nil, "no cause").Unwrap())
	require.Equal(t, "cart abc not found", Newf(CodeNotFound, "cart %s not found", "abc").Message())
	require.Equal(t, "load order 7", Wrapf(CodeDependency, cause, "load order %d", 7).Message())
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	require.Equal(t, CodeInternal, e.Code())
	require.Empty(t, e.Error())
	require.Nil(t, e.WithDetails("x"))
	require.Nil(t, e.Unwrap())
}

func TestAsAndIsCodeFollowWrappedChain(t *testing.T) {
	require.Nil(t, As(nil))
	require.Nil(t, As(stdErrors.New("plain")))

	inner := New(CodeConflict, "product referenced by order items")
	outer := fmt.Errorf("delete product: %w", inner)
	require.Same(t, inner, As(outer))
	require.True(t, IsCode(outer, CodeConflict))
	require.False(t, IsCode(outer, CodeNotFound))
	require.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
}

func TestIsRetryable(t *testing.T) {
	require.False(t, IsRetryable(nil))
	require.True(t, IsRetryable(stdErrors.New("connection reset")))
	require.True(t, IsRetryable(Wrap(CodeDependency, stdErrors.New("redis down"), "rate limit")))
	require.False(t, IsRetryable(New(CodeValidation, "bad")))
}
