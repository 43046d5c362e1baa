package clienterr

import (
	"errors"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := Wrap(NetworkError, errors.New("connection refused"))
	want := "NetworkError: connection refused"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorIs(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ResponseInvalidError, cause)

	if !errors.Is(err, New(ResponseInvalidError)) {
		t.Fatal("errors.Is should match same Kind")
	}
	if errors.Is(err, New(NetworkError)) {
		t.Fatal("errors.Is should not match different Kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(NetworkError, cause)

	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should see through Unwrap to the cause")
	}
}

func TestKindString(t *testing.T) {
	if None.String() != "None" {
		t.Fatalf("None.String() = %q", None.String())
	}
	if AbortedError.String() != "AbortedError" {
		t.Fatalf("AbortedError.String() = %q", AbortedError.String())
	}
}
