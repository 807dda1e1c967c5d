package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(fmt.Errorf("%w: table t", ErrNotFound)))
	assert.True(t, Recoverable(fmt.Errorf("%w: table t", ErrAlreadyExists)))
	assert.True(t, Recoverable(fmt.Errorf("wrap: %w", fmt.Errorf("%w: x", ErrSchemaMismatch))))
	assert.True(t, Recoverable(ErrValueTooLarge))
	assert.True(t, Recoverable(errors.New("usage: select <table>")))

	assert.False(t, Recoverable(fmt.Errorf("%w: write page 3", ErrIO)))
	assert.False(t, Recoverable(ErrCorruption))
	assert.False(t, Recoverable(nil))
}
