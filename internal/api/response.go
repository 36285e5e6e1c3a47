package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details []errors.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}

// writeError maps err onto the error envelope. Errors that are not AppErrors are
// reported as INTERNAL_ERROR with their text as message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := errorBody{Error: errorDetail{Message: errors.Message(err), Code: "INTERNAL_ERROR"}}

	if appErr, ok := errors.As(err); ok {
		body.Error.Code = appErr.Code
		body.Error.Details = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", err, "status", status)
	} else {
		logger.Debug(r.Context(), "request rejected", "status", status, "error", err)
	}

	writeJSON(w, status, body)
}

func validationError(msg string, fields ...errors.FieldError) error {
	return errors.ErrValidation.WithMessage(msg).WithFields(fields...)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return validationError("Request body is required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return validationError("Request body is required")
		}
		return validationError(fmt.Sprintf("Invalid JSON body: %v", err))
	}
	return nil
}
