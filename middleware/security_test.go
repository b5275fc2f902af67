package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePasswordStrength(t *testing.T) {
	ok, errs := ValidatePasswordStrength("Str0ngPass")
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs = ValidatePasswordStrength("short1A")
	assert.False(t, ok)
	assert.NotEmpty(t, errs)

	ok, _ = ValidatePasswordStrength("alllowercase1")
	assert.False(t, ok)

	ok, _ = ValidatePasswordStrength("ALLUPPERCASE1")
	assert.False(t, ok)

	ok, _ = ValidatePasswordStrength("NoDigitsHere")
	assert.False(t, ok)

	ok, _ = ValidatePasswordStrength(strings.Repeat("Aa1", 50))
	assert.False(t, ok)
}
