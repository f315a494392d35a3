package responses

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code, message string, details map[string]any) {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return payload.Error.Code, payload.Error.Message, payload.Error.Details
}

func TestWriteErrorDependencyMessageDerivesFromOperation(t *testing.T) {
	rec := httptest.NewRecorder()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	err := pkgerrors.Wrap(pkgerrors.CodeDependency, stdErrors.New("store unreachable"), "deleting assignment")
	WriteError(context.Background(), logg, rec, err)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	code, message, _ := decodeError(t, rec)
	if code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %q", code)
	}
	if message != "deleting assignment" {
		t.Fatalf("expected the operation message, got %q", message)
	}
}

func TestWriteErrorInternalHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	err := pkgerrors.Wrap(pkgerrors.CodeInternal, stdErrors.New("nil pointer somewhere"), "nil pointer somewhere")
	WriteError(context.Background(), logg, rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	_, message, _ := decodeError(t, rec)
	if message != "internal server error" {
		t.Fatalf("internal errors must use the public message, got %q", message)
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	err := pkgerrors.New(pkgerrors.CodePartialCascade, "assignment removed but persona cleanup failed").
		WithDetails(map[string]string{"personaId": "p1"})
	WriteError(context.Background(), logg, rec, err)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	_, _, details := decodeError(t, rec)
	if details["personaId"] != "p1" {
		t.Fatalf("expected details to pass through, got %v", details)
	}
}

func TestWriteErrorWrapsUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, stdErrors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", rec.Code)
	}
	code, _, _ := decodeError(t, rec)
	if code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %q", code)
	}
}
