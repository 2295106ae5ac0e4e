package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lipsync/db"
	"lipsync/internal/app/lipsync"
	"lipsync/pkg/slg"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON encodes before writing the header so an unencodable value still
// produces an error response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "err", err)

		status = http.StatusInternalServerError
		body, _ = json.Marshal(&errorResponse{
			Error:   "failed to encode response",
			Details: err.Error(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "processing failed"

	switch {
	case errors.Is(err, lipsync.ErrInvalidRequest):
		status, msg = http.StatusBadRequest, "invalid request"
	case db.ErrCode(err) == db.ErrCodeNoRows:
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, lipsync.ErrAlignmentFailed):
		msg = "alignment failed"
	}

	if status == http.StatusInternalServerError {
		slg.GetSlog(r.Context()).Error("Request failed", "path", r.URL.Path, "err", err)
	}

	writeJSON(w, status, &errorResponse{
		Error:   msg,
		Details: err.Error(),
	})
}
