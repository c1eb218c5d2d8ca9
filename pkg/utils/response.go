package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON response with status.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Error writes {"detail": message} with status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Detail: message})
}
