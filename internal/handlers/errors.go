package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse defines the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// NotFound answers paths with no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "not found", http.StatusNotFound)
}

// MethodNotAllowed answers known paths requested with an unregistered method.
// chi sets the Allow header before calling it.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "method not allowed", http.StatusMethodNotAllowed)
}
