package httpx

import (
	"encoding/json"
	"net/http"
)

// APIError is the JSON error envelope returned by API endpoints. Details is
// omitted in production responses; upstream specifics stay in the server log.
type APIError struct {
	Code    string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. It sets
// Content-Type and no-cache headers, since everything this service returns is
// session-scoped.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError writes a machine-readable API error with no detail.
func WriteError(w http.ResponseWriter, status int, code string) {
	WriteJSON(w, status, APIError{Code: code})
}

// WriteErrorDetails writes an API error including a detail string. Callers
// must only pass details in development environments.
func WriteErrorDetails(w http.ResponseWriter, status int, code, details string) {
	WriteJSON(w, status, APIError{Code: code, Details: details})
}
