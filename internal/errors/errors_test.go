package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "box document not found")
		if err.Error() != "[NOT_FOUND] box document not found" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeIO, "reading source file")
		expected := "[IO_ERROR] reading source file: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidation, "invalid pattern")
		if !IsCode(err, CodeValidation) {
			t.Error("expected IsCode to return true for CodeValidation")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeParse, "bad name node"), CtxPath, "lib/mod/mod.rb")
		if !IsCode(err, CodeParse) {
			t.Error("expected code to survive AddContext")
		}
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected a DomainError")
		}
		if de.Context[CtxPath] != "lib/mod/mod.rb" {
			t.Errorf("unexpected context: %v", de.Context)
		}
	})

	t.Run("AddContextToPlainError", func(t *testing.T) {
		err := AddContext(errors.New("plain"), CtxPattern, "[")
		if !IsCode(err, CodeInternal) {
			t.Error("expected plain errors to be wrapped as internal")
		}
	})
}
