package diag

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewParseError("int32 x", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}

	var got *Error
	if !errors.As(err, &got) {
		t.Fatalf("expected errors.As to recover *Error")
	}
	if got.Kind != ParseError {
		t.Errorf("Kind = %v, want ParseError", got.Kind)
	}
	if got.Snippet != "int32 x" {
		t.Errorf("Snippet = %q, want %q", got.Snippet, "int32 x")
	}
}

func TestUnknownTypeMessage(t *testing.T) {
	err := NewUnknownType("pkg/msg/Missing")
	if err.Kind != UnknownType {
		t.Fatalf("Kind = %v, want UnknownType", err.Kind)
	}
	want := `typesys: unknown type "pkg/msg/Missing": type is unknown`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestInvariantViolation(t *testing.T) {
	err := NewInvariantViolation("cyclic type graph detected", "pkg/msg/A")
	if err.Kind != InvariantViolation {
		t.Fatalf("Kind = %v, want InvariantViolation", err.Kind)
	}
	if err.TypeName != "pkg/msg/A" {
		t.Errorf("TypeName = %q, want pkg/msg/A", err.TypeName)
	}
}
