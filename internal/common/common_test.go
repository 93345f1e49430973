package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday midnight", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"sunday late", time.Date(2024, 1, 14, 23, 59, 59, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"crosses month", time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)},
		{"crosses year", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
		{"non utc input", time.Date(2024, 1, 8, 1, 0, 0, 0, time.FixedZone("CET", 2*3600)), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.in)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestArchiveCutoff(t *testing.T) {
	now := time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), ArchiveCutoff(now))
}

func TestAppError_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidationError("x").HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, NewUnauthorizedError("x").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, NewForbiddenError("x").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("x").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, NewConflictError("x").HTTPStatus())
	assert.Equal(t, http.StatusConflict, NewConflictError("x").WithStatus(http.StatusConflict).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewInternalError(errors.New("boom")).HTTPStatus())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("listing tasks: %w", NewInternalError(cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindInternal))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("task not found")))
}

func TestValidateUUID(t *testing.T) {
	id := uuid.New()

	got, err := ValidateUUID(" "+id.String()+" ", "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ValidateUUID("", "id")
	assert.True(t, IsKind(err, KindValidation))

	_, err = ValidateUUID("not-a-uuid", "id")
	assert.EqualError(t, err, "id must be a valid UUID")
}

func TestUserIDContext(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	got, ok := GetUserIDFromContext(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestTrimOptional(t *testing.T) {
	blank := "   "
	text := "  buy milk "

	assert.Nil(t, TrimOptional(nil))
	assert.Nil(t, TrimOptional(&blank))
	assert.Equal(t, "buy milk", *TrimOptional(&text))
}
