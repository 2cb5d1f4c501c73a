package transport

import (
	"encoding/json"
	"net/http"
)

// requestIDHeader matches the header the request-id middleware sets on the
// response before handlers run.
const requestIDHeader = "X-Request-ID"

type ErrorResponse struct {
	Error     string            `json:"error"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes an ErrorResponse carrying the request id, so clients
// can quote it when reporting a failure.
func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: w.Header().Get(requestIDHeader),
	})
}
