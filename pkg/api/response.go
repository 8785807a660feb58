package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/graphprod/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, statusFor(code), errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeLabelNotFound, errors.ErrCodeUnmappedLabel, errors.ErrCodeEmptyGraph:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGraph, errors.ErrCodeInvalidRule,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidName, errors.ErrCodeInvalidPath,
		errors.ErrCodeNotContiguous:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
