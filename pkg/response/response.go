// Package response writes the JSON envelope every API handler answers with
// and maps domain errors onto HTTP status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mercadobetel/pdv/app/models"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Saved answers a mutation that succeeded in memory. A persistence failure
// becomes a warning on an otherwise successful response.
func Saved(w http.ResponseWriter, status int, data interface{}, err error) {
	body := envelope{Status: status, Data: data}
	if err != nil {
		body.Warning = "change applied but not persisted: " + err.Error()
	}
	write(w, status, body)
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// ValidationError sends a 422 with field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// StatusOf maps a domain error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrMalformedData):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStorage):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with its mapped status. Field and stock details are
// carried in errors.
func FromError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	body := envelope{Status: status, Message: err.Error()}

	var (
		field *models.ValidationError
		stock *models.StockError
		line  *models.InsufficientStockError
		pay   *models.InsufficientPaymentError
	)
	switch {
	case errors.As(err, &stock):
		body.Errors = stock.Shortages
	case errors.As(err, &line):
		body.Errors = []models.StockShortage{{ProductID: line.ProductID, Name: line.Name, Requested: line.Requested, Available: line.Available}}
	case errors.As(err, &pay):
		body.Errors = map[string]string{"shortfall": pay.Shortfall.StringFixed(2)}
	case errors.As(err, &field) && field.Field != "":
		body.Errors = map[string]string{field.Field: field.Message}
	}
	if status == http.StatusInternalServerError {
		body.Message = "Internal server error"
	}
	write(w, status, body)
}

// Attachment sends a file download.
func Attachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
