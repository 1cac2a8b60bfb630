package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, code int, errMsg, detail string) {
	body := map[string]any{"error": errMsg}
	if detail != "" {
		body["message"] = detail
	}
	writeJSON(w, code, body)
}

func slogError(r *http.Request, msg string, err error) {
	slog.Error(msg, "request_id", middleware.GetReqID(r.Context()), "error", err)
}
