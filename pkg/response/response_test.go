package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercadobetel/pdv/app/models"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(&models.StockError{}))
	assert.Equal(t, http.StatusNotFound, StatusOf(&models.NotFoundError{Entity: "product", Key: "1"}))
	assert.Equal(t, http.StatusBadRequest, StatusOf(&models.MalformedDataError{Source: "backup", Err: errors.New("x")}))
	assert.Equal(t, http.StatusOK, StatusOf(&models.StorageError{Key: "k", Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestFromErrorCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, &models.InsufficientPaymentError{
		Total: decimal.RequireFromString("8.99"), Tendered: decimal.NewFromInt(5), Shortfall: decimal.RequireFromString("3.99"),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]any{"shortfall": "3.99"}, decode(t, rec)["errors"])

	rec = httptest.NewRecorder()
	FromError(rec, &models.ValidationError{Field: "price", Message: "must be greater than zero"})
	assert.Equal(t, map[string]any{"price": "must be greater than zero"}, decode(t, rec)["errors"])

	rec = httptest.NewRecorder()
	FromError(rec, errors.New("secret driver detail"))
	assert.Equal(t, "Internal server error", decode(t, rec)["message"])
}

func TestSavedWarnsOnStorageError(t *testing.T) {
	rec := httptest.NewRecorder()
	Saved(rec, http.StatusCreated, map[string]int{"id": 1}, &models.StorageError{Key: "pdv_products", Err: errors.New("disk full")})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["warning"], "disk full")
	assert.NotNil(t, body["data"])
}
