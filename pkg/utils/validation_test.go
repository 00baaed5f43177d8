package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	UserID string `form:"user_id" validate:"required,max=8,nocontrol"`
	Locale string `json:"locale,omitempty" validate:"omitempty,alpha,len=2"`
}

func TestValidateStructUsesWireNames(t *testing.T) {
	err := ValidateStruct(sample{})
	require.Error(t, err)
	assert.Equal(t, "user_id is required", err.Error())

	err = ValidateStruct(sample{UserID: "123456789", Locale: "d1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_id must be at most 8 characters")
	assert.Contains(t, err.Error(), "locale must contain letters only")

	assert.NoError(t, ValidateStruct(sample{UserID: "u1", Locale: "da"}))
}

func TestValidateStructNoControl(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{UserID: "åse"}))

	for _, id := range []string{"a\nb", "a\x00", "\tx"} {
		err := ValidateStruct(sample{UserID: id})
		require.Error(t, err, "%q", id)
		assert.Equal(t, "user_id must not contain control characters", err.Error())
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "user_id is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"user_id is required"}`, rec.Body.String())
}
