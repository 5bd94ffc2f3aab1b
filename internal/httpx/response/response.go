package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vadim/planer/internal/apperror"
)

// ErrorBody is the uniform error response shape
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// OK sends a 200 OK response with JSON body
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response with JSON body
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps a domain error to the uniform error body
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperror.From(err)
	status := ae.Kind.HTTPStatus()
	JSON(w, status, ErrorBody{
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
		Method:     r.Method,
		Message:    ae.Message,
		Error:      ae.Kind.Label(),
	})
}

// BadRequest sends a 400 with the uniform error body
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, apperror.BadRequest(message))
}
