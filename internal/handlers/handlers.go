package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vkazakov/fifteen-server/internal/fifteen"
	"github.com/vkazakov/fifteen-server/internal/repository"
	"github.com/vkazakov/fifteen-server/internal/session"
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, logger *slog.Logger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error(
			"unable to send response",
			slog.Any("response", v),
			slog.Any("error", err),
		)
	}
}

// ErrorBody is the uniform error payload: a stable machine code plus a
// human-readable message.
type ErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

var errNotAuthorized = errors.New("authentication required")

// wireError maps domain errors onto wire codes and HTTP statuses.
// Unmapped errors are reported as internal.
func wireError(err error) (int, ErrorBody) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, fifteen.ErrInvalidMove):
		status, code = http.StatusConflict, "invalid_move"
	case errors.Is(err, fifteen.ErrNothingToUndo):
		status, code = http.StatusConflict, "nothing_to_undo"
	case errors.Is(err, fifteen.ErrNothingToRedo):
		status, code = http.StatusConflict, "nothing_to_redo"
	case errors.Is(err, fifteen.ErrAlreadySolved):
		status, code = http.StatusConflict, "already_solved"
	case errors.Is(err, session.ErrSessionNotActive):
		status, code = http.StatusConflict, "session_not_active"
	case errors.Is(err, session.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrGameNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrSessionBusy):
		status, code = http.StatusTooManyRequests, "session_busy"
	case errors.Is(err, repository.ErrImageNotFound):
		status, code = http.StatusNotFound, "image_missing"
	case errors.Is(err, repository.ErrImageLimit):
		status, code = http.StatusConflict, "image_limit"
	case errors.Is(err, errNotAuthorized):
		status, code = http.StatusUnauthorized, "not_authorized"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}
	return status, ErrorBody{Code: code, Error: err.Error()}
}

func sendError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := wireError(err)
	w.WriteHeader(status)
	sendJSONOrLog(w, logger, body)
}

func sendValidationError(w http.ResponseWriter, logger *slog.Logger, err error) {
	w.WriteHeader(http.StatusBadRequest)
	sendJSONOrLog(w, logger, ErrorBody{
		Code:  "validation_error",
		Error: err.Error(),
	})
}
