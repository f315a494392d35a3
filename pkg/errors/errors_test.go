package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodePartialCascade, status: http.StatusBadGateway, publicMsg: "assignment removed but persona cleanup failed", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing persona id")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing persona id" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatal("details should be nil by default")
	}

	withDetails := base.WithDetails(map[string]string{"field": "persona_id"})
	if withDetails.Details() == nil {
		t.Fatal("expected details to be attached")
	}

	cause := stdErrors.New("store timeout")
	wrapped := Wrap(CodeDependency, cause, "delete assignment")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("expected wrapped error to unwrap to cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", wrapped.Code())
	}
}

func TestWrapNilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeStateConflict, nil, "re-invite requires declined status")
	if err.Unwrap() != nil {
		t.Fatal("expected no cause")
	}
	if err.Code() != CodeStateConflict {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodePartialCascade, "persona update failed")
	outer := Wrap(CodeInternal, inner, "confirm delete")

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInternal {
		t.Fatalf("expected outermost code, got %s", typed.Code())
	}

	if !IsCode(outer, CodeInternal) {
		t.Fatal("expected IsCode to match outermost code")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatal("plain errors should not match any code")
	}
}
