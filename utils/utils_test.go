package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jane4246/coffee-advisory/globals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusBadRequest, "Invalid diagnosis data")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Invalid diagnosis data"}`, rec.Body.String())
}

type sample struct {
	Method string  `json:"diagnosisMethod" validate:"required,oneof=image voice text"`
	Notes  string  `json:"notes" validate:"max=5"`
	URL    *string `json:"imageUrl,omitempty" validate:"omitempty,max=3"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	long := "abcdef"
	err := Validate(sample{Method: "fax", Notes: "too long", URL: &long})
	require.Error(t, err)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "must be one of: image voice text", fe["diagnosisMethod"])
	assert.Equal(t, "must be at most 5 characters", fe["notes"])
	assert.Contains(t, fe, "imageUrl")

	out, err := json.Marshal(fe)
	require.NoError(t, err)
	assert.Contains(t, string(out), "diagnosisMethod")
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(sample{Method: "text"}))
	err := Validate(sample{})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "is required", fe["diagnosisMethod"])
}

func TestGetUserIDFromContext(t *testing.T) {
	assert.Empty(t, GetUserIDFromContext(context.Background()))
	ctx := WithUserID(context.Background(), "u-1")
	assert.Equal(t, "u-1", GetUserIDFromContext(ctx))
	assert.Equal(t, "u-1", ctx.Value(globals.UserIDKey))
}
