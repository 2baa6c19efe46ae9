package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidLat,
		Message: "Latitude must be between -90 and 90",
	}

	assert.Equal(t, "validation_invalid_latitude: Latitude must be between -90 and 90", appErr.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeInternalDB, "failed to list favorites", underlying)

	assert.Same(t, underlying, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, underlying))
}

func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeNotFoundCity, "city not found", nil)
	wrapped := fmt.Errorf("fetching weather: %w", appErr)

	var target *AppError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, ErrCodeNotFoundCity, target.Code)
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidCity, http.StatusBadRequest},
		{ErrCodeNotFoundCity, http.StatusNotFound},
		{ErrCodeNotFoundFavorite, http.StatusNotFound},
		{ErrCodeConflictConcurrent, http.StatusConflict},
		{ErrCodeUpstreamWeather, http.StatusBadGateway},
		{ErrCodeUpstreamUnreachable, http.StatusBadGateway},
		{ErrCodeUpstreamCircuitOpen, http.StatusServiceUnavailable},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestErrorCodeIsUnreachable(t *testing.T) {
	assert.True(t, ErrCodeUpstreamUnreachable.IsUnreachable())
	assert.True(t, ErrCodeUpstreamCircuitOpen.IsUnreachable())
	assert.False(t, ErrCodeUpstreamBadStatus.IsUnreachable())
	assert.False(t, ErrCodeUpstreamBadResponse.IsUnreachable())
}

func TestAppErrorWithDetails_DoesNotMutateOriginal(t *testing.T) {
	orig := NewAppErrorWithDetails(ErrCodeValidationMissingField, "missing", nil, map[string]any{"field": "city"})

	extended := orig.WithDetails(map[string]any{"hint": "use lat/lon"})

	assert.Len(t, orig.Details, 1)
	assert.Equal(t, "city", extended.Details["field"])
	assert.Equal(t, "use lat/lon", extended.Details["hint"])
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("wrap: %w", NewAppError(ErrCodeUpstreamBadStatus, "bad", nil)))
	assert.True(t, ok)
	assert.Equal(t, ErrCodeUpstreamBadStatus, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}
