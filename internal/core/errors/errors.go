// Package errors carries the coded errors that engines, services and
// transports agree on. The code decides the HTTP status and MCP error text.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"
	CodeTooLarge        ErrorCode = "TOO_LARGE"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeCanceled        ErrorCode = "CANCELED"
)

var statusByCode = map[ErrorCode]int{
	CodeNotFound:        http.StatusNotFound,
	CodeValidationError: http.StatusBadRequest,
	CodeNotSupported:    http.StatusUnprocessableEntity,
	CodeTooLarge:        http.StatusRequestEntityTooLarge,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeCanceled:        http.StatusRequestTimeout,
	CodeInternal:        http.StatusInternalServerError,
}

// Keys for AddContext.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxEngine    = "engine"
	CtxLanguage  = "language"
	CtxLimit     = "limit"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

// Error renders "[CODE] message: cause (k=v, ...)" with keys sorted.
func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString("[" + string(e.Code) + "] " + e.Message)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	if len(e.Context) == 0 {
		return b.String()
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k + "=" + fmt.Sprint(e.Context[k]))
	}
	b.WriteString(")")
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Err }

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext records key=value on the DomainError inside err. Errors without
// one are wrapped as INTERNAL_ERROR first, unless they are context
// cancellations, which become CANCELED.
func AddContext(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if !errors.As(err, &de) {
		de = &DomainError{Code: CodeOf(err), Message: "unexpected failure", Err: err}
		err = de
	}
	if de.Context == nil {
		de.Context = map[string]any{}
	}
	de.Context[key] = value
	return err
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// CodeOf returns the code err carries. Plain errors are INTERNAL_ERROR
// except context cancellation and deadlines.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCanceled
	}
	return CodeInternal
}

func HTTPStatus(err error) int {
	if status, ok := statusByCode[CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
