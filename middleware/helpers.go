package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeError mirrors the handlers' {"error": ...} envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
	}
}
