package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementError_Message(t *testing.T) {
	err := newInsufficientStockError("Book X", 1, 4)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Contains(t, err.Error(), "INSUFFICIENT_STOCK")
	assert.Contains(t, err.Error(), `"Book X"`)
	assert.Contains(t, err.Error(), "available=1")
	assert.Contains(t, err.Error(), "requested=4")
}

func TestPlacementError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := newDatabaseError(cause)

	assert.True(t, errors.Is(err, cause))
}

func TestAsPlacementError(t *testing.T) {
	inner := newBookNotFoundError("some-id")
	wrapped := fmt.Errorf("tx failed: %w", inner)

	placementErr, ok := AsPlacementError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeBookNotFound, placementErr.Code)

	_, ok = AsPlacementError(errors.New("plain"))
	assert.False(t, ok)
}
