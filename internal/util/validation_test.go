package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foundernet/chat-server-go/internal/errors"
)

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
	Age   int    `json:"age" validate:"min=15,max=25"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("passes valid input", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Email: "a@b.co", Code: "012345", Age: 20})
		assert.NoError(t, err)
	})

	t.Run("reports fields by json name", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Email: "nope", Code: "12", Age: 30})
		require.Error(t, err)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)

		details, ok := appErr.Details.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "must be a valid email address", details["email"])
		assert.Equal(t, "must have length 6", details["code"])
		assert.Equal(t, "must be at most 25", details["age"])
	})
}
