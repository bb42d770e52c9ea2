package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	if got := MetadataFor(CodeValidation).HTTPStatus; got != http.StatusBadRequest {
		t.Fatalf("validation status = %d", got)
	}
	if got := MetadataFor(CodeConflict).HTTPStatus; got != http.StatusConflict {
		t.Fatalf("conflict status = %d", got)
	}
	if got := MetadataFor(Code("UNKNOWN")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("unknown code should fall back to internal, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "db failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should match cause via errors.Is")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("code = %s", As(err).Code())
	}
}

func TestAsFindsNestedError(t *testing.T) {
	inner := New(CodeNotFound, "missing")
	wrapped := fmt.Errorf("outer: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("As should unwrap to typed error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("code = %s", typed.Code())
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("root"), "wrapper")
	dump := Dump(err)

	if dump.Code != CodeInternal {
		t.Fatalf("dump code = %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("chain should include wrapper and root, got %v", dump.Chain)
	}
}
