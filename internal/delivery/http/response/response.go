package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response body shape
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// Success writes a success response with data
func Success(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created writes a created response with data
func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, Envelope{
		Success: false,
		Message: message,
	})
}

// ValidationError writes a 400 response carrying field-level errors
func ValidationError(w http.ResponseWriter, message string, errs interface{}) {
	JSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}
