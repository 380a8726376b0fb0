package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
)

// errorBody is the wire shape of every non-2xx response.
type errorBody struct {
	Type      string                 `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps any error onto the envelope. AppError carries its own
// type, code, and status; everything else is masked as a 500 so internal
// detail never leaks.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		logger.ErrorContext(r.Context(), "unhandled error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
			slog.String("request_id", RequestID(r.Context())),
		)
		appErr = domainerrors.NewInternalError("internal server error")
	} else if appErr.StatusCode >= 500 {
		logger.ErrorContext(r.Context(), "internal error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
			slog.String("request_id", RequestID(r.Context())),
		)
	}

	writeJSON(w, appErr.StatusCode, errorResponse{Error: errorBody{
		Type:      string(appErr.Type),
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: RequestID(r.Context()),
	}})
}
