package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the JSON error envelope returned by all HTTP error
// responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// writeError writes a JSON error response with the given HTTP status code
// and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}

// writeJSON writes payload as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[APIServer] failed to write response: %v", err)
	}
}
