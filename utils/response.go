package utils

import (
	"encoding/json"
	"net/http"

	"github.com/jane4246/coffee-advisory/globals"
	"go.uber.org/zap"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		globals.Logger.Warn("encode response", zap.Error(err))
	}
}

type M map[string]interface{}

// DecodeJSON reads a single JSON object from the request body. Unknown
// fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
