package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "snapshot not found")
		if err.Error() != "[NOT_FOUND] snapshot not found" {
			t.Errorf("expected [NOT_FOUND] snapshot not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeInternal, "save snapshot")
		expected := "[INTERNAL_ERROR] save snapshot: disk full"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("Context", func(t *testing.T) {
		err := New(CodeNotSupported, "unsupported language")
		err = AddContext(err, CtxLanguage, "cobol")
		err = AddContext(err, CtxLimit, 3)
		expected := "[NOT_SUPPORTED] unsupported language (language=cobol, limit=3)"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("ContextOnPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxEngine, "metrics")
		if !IsCode(err, CodeInternal) {
			t.Errorf("expected plain errors to become INTERNAL_ERROR, got %v", err)
		}
		if !IsCode(AddContext(context.Canceled, CtxPath, "a"), CodeCanceled) {
			t.Error("expected cancellation to keep its code when context is added")
		}
		if AddContext(nil, CtxPath, "a") != nil {
			t.Error("expected nil to stay nil")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
		if !IsCode(fmt.Errorf("outer: %w", err), CodeValidationError) {
			t.Error("expected IsCode to see through fmt wrapping")
		}
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(CodeValidationError, "bad"), http.StatusBadRequest},
		{New(CodeNotFound, "missing"), http.StatusNotFound},
		{New(CodeNotSupported, "lang"), http.StatusUnprocessableEntity},
		{New(CodeTooLarge, "big"), http.StatusRequestEntityTooLarge},
		{New(CodeRateLimited, "slow down"), http.StatusTooManyRequests},
		{context.Canceled, http.StatusRequestTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
