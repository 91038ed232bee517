// Package shared holds the JSON helpers every handler uses, so error
// envelopes stay identical across the API surface.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "attribune/pkg/domain-errors"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the shared JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": dErrors.MessageOf(err),
	})
}
