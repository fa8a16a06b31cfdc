package core

import (
	"errors"
	"testing"
)

func TestCoreErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	err := ErrFecEncodingFailed(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to see through Unwrap to the cause")
	}
	var ce *CoreError
	if !errors.As(err, &ce) {
		t.Fatalf("expected errors.As to extract *CoreError")
	}
	if ce.Kind != KindFecEncodingFailed {
		t.Fatalf("unexpected kind: %v", ce.Kind)
	}
}

func TestCoreErrorMessageWithAndWithoutCause(t *testing.T) {
	bare := ErrNotFound("abc")
	if bare.Error() != "not found: abc" {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
	wrapped := ErrMissingSubCBL("magnet:?xt=urn:brightchain:cbl", ErrNotFound("abc"))
	if wrapped.Error() == "" {
		t.Fatalf("expected non-empty message")
	}
}

func TestErrChecksumMismatchIncludesBothIds(t *testing.T) {
	a := mkId(0x01)
	b := mkId(0x02)
	err := ErrChecksumMismatch(a, b)
	msg := err.Error()
	if !containsAll(msg, a.Hex(), b.Hex()) {
		t.Fatalf("expected message to mention both ids, got %q", msg)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
