package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string  `json:"name" validate:"required,min=3"`
	Status string  `json:"status" validate:"required,oneof=owned playing"`
	Hours  float64 `json:"hours" validate:"gte=0"`
}

func TestValidationMessages_UsesJSONNames(t *testing.T) {
	err := ValidateStruct(sample{Name: "ab", Status: "lost", Hours: -1})
	require.Error(t, err)

	messages := ValidationMessages(err)
	assert.Equal(t, "name must be at least 3", messages["name"])
	assert.Equal(t, "status must be one of: owned playing", messages["status"])
	assert.Equal(t, "hours must be greater than or equal to 0", messages["hours"])
}

func TestValidationMessages_NonValidationError(t *testing.T) {
	assert.Nil(t, ValidationMessages(errors.New("boom")))
}

func TestValidationErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ValidationErrorResponse(c, ValidateStruct(sample{Status: "owned"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "name is required", body.Errors["name"])
}
