package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/provider"
	"github.com/evanofslack/clouddns-console/internal/zone"
)

type response struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, sc account.Scope, message string, data any) {
	writeJSON(w, http.StatusOK, response{Message: message, Warning: sc.Warning, Data: data})
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, sc account.Scope, err error) {
	code := http.StatusBadGateway
	var verr *zone.ValidationError
	var partial *zone.PartialError
	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
	case errors.Is(err, provider.ErrNotFound), errors.Is(err, provider.ErrUnknownAccount):
		code = http.StatusNotFound
	case errors.As(err, &partial):
		writeJSON(w, code, response{Message: err.Error(), Warning: sc.Warning, Data: partial.Target})
		return
	}
	if code == http.StatusBadGateway {
		slog.Error("Provider operation failed", "account", sc.AccountID, "error", err)
	}
	writeJSON(w, code, response{Message: err.Error(), Warning: sc.Warning})
}
