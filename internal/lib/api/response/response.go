package response

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"atelier/internal/lib/apperr"
	"atelier/internal/lib/logger/sl"
)

// ErrorResponse is the envelope every failed request answers with.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindBusinessRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error renders err as the JSON envelope. Internal errors are logged at error
// level with their cause and never leak it to the client.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	appErr := apperr.As(err)
	status := StatusFor(appErr.Kind)

	if status == http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Warn("request rejected", slog.String("code", appErr.Code), slog.String("message", appErr.Message))
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Message: appErr.Message,
		Error:   appErr.Code,
		Details: appErr.Details,
	})
}

// DecodeJSON reads the request body into v. An empty body leaves v untouched,
// since every field of the production requests is optional or checked later.
func DecodeJSON(r *http.Request, v any) error {
	err := render.DecodeJSON(r.Body, v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("invalid JSON body: " + err.Error())
}

// IDParam parses a positive int64 path parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}
