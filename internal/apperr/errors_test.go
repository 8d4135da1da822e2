package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundWrapsSentinel(t *testing.T) {
	err := NotFound("appointment")
	assert.Equal(t, "appointment not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("load: %w", err), ErrNotFound))
}

func TestValidationSentinelsKeepIdentity(t *testing.T) {
	errSlotTaken := Validation("slot already reserved")
	wrapped := fmt.Errorf("reserve: %w", errSlotTaken)

	assert.True(t, errors.Is(wrapped, errSlotTaken))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsValidation(ErrConflict))
	assert.Equal(t, "bad range 3", Validationf("bad range %d", 3).Error())
}
