package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
	assert.Equal(t, "✓ Logged in", FormatSuccess("Logged in"))
	assert.Equal(t, "⚠ No browser", FormatWarning("No browser"))
}

