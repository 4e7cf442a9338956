package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/compose-network/spi-annotator/server/api/middleware"
)

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error body carrying the request id.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(middleware.RequestIDKey).(string)

	WriteJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": requestID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
	})
}
