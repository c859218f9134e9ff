// Package handler implements the HTTP endpoints of the trip assistant.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/trip-assistant/internal/model"
)

// maxBodyBytes bounds request bodies read by handlers.
const maxBodyBytes = 64 << 10

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a flat JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}
