package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/therenansimoes/organizations/api/middleware"
	"github.com/therenansimoes/organizations/internal/assignments"
	"github.com/therenansimoes/organizations/internal/lifecycle"
	pkgerrors "github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
)

type stubService struct {
	overview lifecycle.Overview

	inviteErr  error
	editErr    error
	reinvErr   error
	requestErr error
	confirmErr error
	cancelErr  error

	lastOrg    string
	lastViewer string
	lastTarget string
	lastEmail  string
	lastRole   string
}

func (s *stubService) Overview(ctx context.Context, organizationID, viewerPersonaID string) lifecycle.Overview {
	s.lastOrg, s.lastViewer = organizationID, viewerPersonaID
	return s.overview
}

func (s *stubService) Invite(ctx context.Context, organizationID, viewerPersonaID, email, roleID string) (assignments.Assignment, error) {
	s.lastOrg, s.lastViewer, s.lastEmail, s.lastRole = organizationID, viewerPersonaID, email, roleID
	if s.inviteErr != nil {
		return assignments.Assignment{}, s.inviteErr
	}
	return assignments.Assignment{ID: "new", Email: email, RoleID: roleID}, nil
}

func (s *stubService) EditRole(ctx context.Context, organizationID, viewerPersonaID, assignmentID, roleID string) error {
	s.lastOrg, s.lastViewer, s.lastTarget, s.lastRole = organizationID, viewerPersonaID, assignmentID, roleID
	return s.editErr
}

func (s *stubService) ReInvite(ctx context.Context, organizationID, viewerPersonaID, assignmentID string) error {
	s.lastOrg, s.lastViewer, s.lastTarget = organizationID, viewerPersonaID, assignmentID
	return s.reinvErr
}

func (s *stubService) RequestDelete(ctx context.Context, organizationID, viewerPersonaID, assignmentID string) error {
	s.lastOrg, s.lastViewer, s.lastTarget = organizationID, viewerPersonaID, assignmentID
	return s.requestErr
}

func (s *stubService) ConfirmDelete(ctx context.Context, organizationID, viewerPersonaID string) error {
	s.lastOrg, s.lastViewer = organizationID, viewerPersonaID
	return s.confirmErr
}

func (s *stubService) CancelDelete(organizationID, viewerPersonaID string) error {
	s.lastOrg, s.lastViewer = organizationID, viewerPersonaID
	return s.cancelErr
}

func testRouter(svc MembershipService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	r := chi.NewRouter()
	r.Route("/api/v1/orgs/{orgID}/users", func(r chi.Router) {
		r.Use(middleware.ViewerContext(logg))
		r.Get("/", ListUsers(svc, logg))
		r.Post("/", InviteUser(svc, logg))
		r.Post("/delete-confirm", ConfirmUserDelete(svc, logg))
		r.Post("/delete-cancel", CancelUserDelete(svc, logg))
		r.Patch("/{assignmentID}", UpdateUserRole(svc, logg))
		r.Post("/{assignmentID}/reinvite", ReInviteUser(svc, logg))
		r.Post("/{assignmentID}/delete-request", RequestUserDelete(svc, logg))
	})
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, path, body, persona string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if persona != "" {
		req.Header.Set("X-Persona-Id", persona)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return payload.Error.Code
}

func TestListUsersPassesViewerContext(t *testing.T) {
	svc := &stubService{overview: lifecycle.Overview{SelfAssignmentID: "a3"}}
	rec := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/orgs/org-1/users", "", "p3")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastOrg != "org-1" || svc.lastViewer != "p3" {
		t.Fatalf("unexpected service args org=%q viewer=%q", svc.lastOrg, svc.lastViewer)
	}

	var payload struct {
		Data lifecycle.Overview `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.SelfAssignmentID != "a3" {
		t.Fatalf("unexpected overview %+v", payload.Data)
	}
}

func TestListUsersWithoutViewerHeader(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/orgs/org-1/users", "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.lastViewer != "" {
		t.Fatalf("anonymous caller should have no viewer, got %q", svc.lastViewer)
	}
}

func TestInviteUserValidation(t *testing.T) {
	svc := &stubService{}
	router := testRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/orgs/org-1/users", `{"email":"not-an-email","role_id":"r1"}`, "p3")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/orgs/org-1/users", `{"email":"x@example.com"}`, "p3")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing role, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/orgs/org-1/users", `{"email":"x@example.com","role_id":"r1","extra":true}`, "p3")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestInviteUserCreated(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/orgs/org-1/users", `{"email":"x@example.com","role_id":"r1"}`, "p3")

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastEmail != "x@example.com" || svc.lastRole != "r1" {
		t.Fatalf("unexpected service args email=%q role=%q", svc.lastEmail, svc.lastRole)
	}
}

func TestInviteUserConflict(t *testing.T) {
	svc := &stubService{inviteErr: pkgerrors.New(pkgerrors.CodeConflict, "persona is already assigned to this organization")}
	rec := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/orgs/org-1/users", `{"email":"x@example.com","role_id":"r1"}`, "p3")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if errorCode(t, rec) != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected error code %s", rec.Body.String())
	}
}

func TestUpdateUserRole(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(t, testRouter(svc), http.MethodPatch, "/api/v1/orgs/org-1/users/a1", `{"role_id":"r2"}`, "p3")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastTarget != "a1" || svc.lastRole != "r2" {
		t.Fatalf("unexpected service args target=%q role=%q", svc.lastTarget, svc.lastRole)
	}
}

func TestSelfMutationIsForbidden(t *testing.T) {
	svc := &stubService{requestErr: pkgerrors.New(pkgerrors.CodeForbidden, "cannot remove your own assignment")}
	rec := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/orgs/org-1/users/a3/delete-request", "", "p3")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if errorCode(t, rec) != string(pkgerrors.CodeForbidden) {
		t.Fatalf("unexpected error code %s", rec.Body.String())
	}
}

func TestReInviteStateConflict(t *testing.T) {
	svc := &stubService{reinvErr: pkgerrors.New(pkgerrors.CodeStateConflict, "only declined assignments can be re-invited")}
	rec := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/orgs/org-1/users/a1/reinvite", "", "p3")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestConfirmDeletePartialCascade(t *testing.T) {
	svc := &stubService{confirmErr: pkgerrors.New(pkgerrors.CodePartialCascade, "assignment removed but persona cleanup failed").
		WithDetails(map[string]string{"assignmentId": "a1", "personaId": "p1"})}
	rec := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/orgs/org-1/users/delete-confirm", "", "p3")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodePartialCascade) || payload.Error.Details["personaId"] != "p1" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
}

func TestCancelDelete(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/orgs/org-1/users/delete-cancel", "", "p3")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.lastOrg != "org-1" || svc.lastViewer != "p3" {
		t.Fatalf("unexpected service args org=%q viewer=%q", svc.lastOrg, svc.lastViewer)
	}
}
