/**
 * @description
 * JSON response helpers and the wire-level error codes shared by every handler.
 * Error bodies always carry the `{"error": "<code>"}` shape the FiatConnect
 * client SDKs switch on.
 */

package api

import (
	"encoding/json"
	"net/http"
)

// Wire-level error codes.
const (
	ErrorResourceExists    = "ResourceExists"
	ErrorResourceNotFound  = "ResourceNotFound"
	ErrorInvalidParameters = "InvalidParameters"
	ErrorQuoteExpired      = "QuoteExpired"
	ErrorUnauthorized      = "Unauthorized"
	ErrorSessionExpired    = "SessionExpired"
)

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
