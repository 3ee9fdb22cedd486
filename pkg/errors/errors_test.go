package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("approve deposit: %w", NotFound("deposit", nil))

	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeConflict))
	assert.True(t, stderrors.Is(err, &AppError{Code: CodeNotFound}))
	assert.Equal(t, http.StatusNotFound, Status(err))
}

func TestStatusDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Status(stderrors.New("boom")))
	assert.Equal(t, http.StatusConflict, Status(Conflict("already rejected")))
	assert.Equal(t, http.StatusServiceUnavailable, Status(TransportUnavailable("socket closed", nil)))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := StorageCorrupt("deposits", stderrors.New("unexpected EOF"))
	assert.Contains(t, err.Error(), "STORAGE_CORRUPT")
	assert.Contains(t, err.Error(), "unexpected EOF")
	assert.ErrorIs(t, err, err.Err)
}
