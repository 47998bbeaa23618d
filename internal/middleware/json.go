package middleware

import (
	"encoding/json"
	"net/http"

	"teahouse/internal/model"
)

// writeEnvelope writes the shared failure envelope. Middleware cannot import
// the handler package, so it keeps its own copy of the error writer.
func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.NewAPIResponse(status, nil, message))
}
