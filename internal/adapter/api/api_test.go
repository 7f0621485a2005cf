package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type withdrawRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Note   string  `json:"note,omitempty" validate:"max=5"`
}

func TestValidatorUsesJSONFieldNames(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	e.POST("/withdraw", func(c echo.Context) error {
		return c.Validate(&withdrawRequest{Amount: 0})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/withdraw", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"VALIDATION_ERROR"`)
	assert.Contains(t, rec.Body.String(), "amount must be greater than 0")
}

func TestErrorHandlerWrapsRouteNotFound(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
