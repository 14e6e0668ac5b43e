package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/validate"
)

type signupForm struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructValid(t *testing.T) {
	err := validate.Struct(signupForm{
		Name:     "Fasil",
		Email:    "fasil@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := validate.Struct(signupForm{Name: "F", Email: "not-an-email"})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at least 2", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["password"])
}
