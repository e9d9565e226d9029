package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rendis/triago/pkg/schema"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response. The message must already be
// safe for users: no internal paths or wrapped causes.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// asTriagoError unwraps err into a *TriagoError.
func asTriagoError(err error, target **schema.TriagoError) bool {
	return errors.As(err, target)
}
