package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/therenansimoes/organizations/api/middleware"
	"github.com/therenansimoes/organizations/api/responses"
	"github.com/therenansimoes/organizations/api/validators"
	"github.com/therenansimoes/organizations/internal/assignments"
	"github.com/therenansimoes/organizations/internal/lifecycle"
	pkgerrors "github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
)

// MembershipService is the surface the membership controllers consume.
type MembershipService interface {
	Overview(ctx context.Context, organizationID, viewerPersonaID string) lifecycle.Overview
	Invite(ctx context.Context, organizationID, viewerPersonaID, email, roleID string) (assignments.Assignment, error)
	EditRole(ctx context.Context, organizationID, viewerPersonaID, assignmentID, roleID string) error
	ReInvite(ctx context.Context, organizationID, viewerPersonaID, assignmentID string) error
	RequestDelete(ctx context.Context, organizationID, viewerPersonaID, assignmentID string) error
	ConfirmDelete(ctx context.Context, organizationID, viewerPersonaID string) error
	CancelDelete(organizationID, viewerPersonaID string) error
}

type inviteRequest struct {
	Email  string `json:"email" validate:"required,email"`
	RoleID string `json:"role_id" validate:"required"`
}

type editRoleRequest struct {
	RoleID string `json:"role_id" validate:"required"`
}

func organizationID(r *http.Request) (string, error) {
	orgID := strings.TrimSpace(chi.URLParam(r, "orgID"))
	if orgID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	return orgID, nil
}

func assignmentID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "assignmentID"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	return id, nil
}

// ListUsers returns the membership overview for one organization.
func ListUsers(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		responses.WriteSuccess(w, svc.Overview(r.Context(), orgID, viewer))
	}
}

// InviteUser creates a pending assignment for an email address.
func InviteUser(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		created, err := svc.Invite(r.Context(), orgID, viewer, body.Email, body.RoleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateUserRole changes the role on an assignment.
func UpdateUserRole(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := assignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body editRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		if err := svc.EditRole(r.Context(), orgID, viewer, targetID, body.RoleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ReInviteUser moves a declined assignment back to pending.
func ReInviteUser(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := assignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		if err := svc.ReInvite(r.Context(), orgID, viewer, targetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "pending"})
	}
}

// RequestUserDelete arms the two-step removal for an assignment.
func RequestUserDelete(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := assignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		if err := svc.RequestDelete(r.Context(), orgID, viewer, targetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "confirmation-pending"})
	}
}

// ConfirmUserDelete runs the armed removal.
func ConfirmUserDelete(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		if err := svc.ConfirmDelete(r.Context(), orgID, viewer); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CancelUserDelete disarms a pending removal.
func CancelUserDelete(svc MembershipService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := organizationID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.ViewerPersonaID(r.Context())
		if err := svc.CancelDelete(orgID, viewer); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
