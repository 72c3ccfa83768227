package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// AppError carries a code and a message that is safe to show to clients.
type AppError struct {
	Code    Code
	Op      string // e.g. "ApplicationService.Create"
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

// Classify wraps err with the code its cause implies. Scoring validation
// failures become INVALID_ARGUMENT, missing rows NOT_FOUND.
func Classify(op, msg string, err error) error {
	var ae *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, scoring.ErrInvalidInput):
		return E(CodeInvalidArgument, op, err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return E(CodeNotFound, op, msg+": not found", err)
	default:
		return E(CodeInternal, op, msg, err)
	}
}

func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
