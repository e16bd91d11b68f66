package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndDropsContext(t *testing.T) {
	base := ErrTooManyRequests
	clone := Clone(base, "wait").WithExtension("tryAgainIn", "00:01:00")

	assert.Equal(t, "wait", clone.Message)
	assert.Equal(t, http.StatusTooManyRequests, clone.Status)
	assert.Nil(t, base.Extensions)
	assert.True(t, errors.Is(clone, ErrTooManyRequests))
	assert.False(t, errors.Is(clone, ErrBadRequest))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("ctx: %w", Clone(ErrNotFound, "user not found"))
	assert.Equal(t, ErrNotFound.Code, FromError(wrapped).Code)
}

func TestWithField(t *testing.T) {
	err := Clone(ErrResourceValidation, "").WithField("cvv", "CVV must be 3 or 4 digits")
	assert.Equal(t, []string{"CVV must be 3 or 4 digits"}, err.Fields["cvv"])
}
