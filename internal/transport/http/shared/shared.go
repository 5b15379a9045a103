// Package shared centralizes JSON response helpers so every handler returns
// the same envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "employee-compass/pkg/domain-errors"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":             string(code),
		"error_description": safeMessage(err),
	})
}

// safeMessage exposes domain error messages and hides internal ones.
func safeMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		return de.Message
	}
	return "internal error"
}
