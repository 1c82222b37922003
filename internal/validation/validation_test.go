package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"notblank"`
	Password string `json:"password" validate:"password"`
}

func TestCustomRules(t *testing.T) {
	require.NoError(t, Struct(signup{Name: "Awa", Password: "abc123"}))

	errs := FieldErrors(Struct(signup{Name: "   ", Password: "abcdef"}))
	require.Len(t, errs, 2)
	assert.Equal(t, "name", errs[0].Field())
	assert.Equal(t, "notblank", errs[0].Tag())
	assert.Equal(t, "password", errs[1].Field())
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(nil))
	assert.Nil(t, FieldErrors(assert.AnError))
}
