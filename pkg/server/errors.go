package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errTooLarge struct{ limit int64 }

func (e errTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.limit)
}

// writeError maps err to a status and writes it as an errorBody.
func writeError(w http.ResponseWriter, err error) {
	status, body := describe(err)
	writeJSON(w, status, body)
}

func describe(err error) (int, errorBody) {
	var tooLarge errTooLarge
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Code: string(errs.ErrCodeInvalidInput), Message: tooLarge.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorBody{Code: "CANCELED", Message: err.Error()}
	}

	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	return statusFor(code), errorBody{Code: string(code), Message: errs.UserMessage(err)}
}

// statusFor maps engine codes raised while loading a diagram to 422: the
// body parsed but describes an inconsistent diagram.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeInvalidGeometry, errs.ErrCodeContainmentCycle, errs.ErrCodeDuplicateID:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeClosed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
