package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var healthBody = mustMarshal(HealthResponse{Status: "OK", Message: "API is running"})

// Health reports that the process is up. It ignores the query string, headers and body.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(healthBody)
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
