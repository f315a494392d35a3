package lifecycle

import (
	"context"
	stdErrors "errors"

	"github.com/therenansimoes/organizations/internal/assignments"
	"github.com/therenansimoes/organizations/internal/cache"
	"github.com/therenansimoes/organizations/pkg/enums"
	"github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
)

// MemberRow is one assignment prepared for display, with the actions the
// viewer may take on it. A viewer's own row never offers mutations, and
// re-inviting is only offered for declined assignments.
type MemberRow struct {
	assignments.Assignment
	StatusLabel string `json:"status_label"`
	IsSelf      bool   `json:"is_self"`
	CanEdit     bool   `json:"can_edit"`
	CanRemove   bool   `json:"can_remove"`
	CanReInvite bool   `json:"can_re_invite"`
}

// Overview is the organization membership screen payload.
type Overview struct {
	Roles            []assignments.Role `json:"roles"`
	Members          []MemberRow        `json:"members"`
	SelfAssignmentID string             `json:"self_assignment_id,omitempty"`
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo          *assignments.Repository
	Engine        *Engine
	Collection    *cache.Collection
	Synchronizer  *cache.Synchronizer
	Confirmations *ConfirmationRegistry
	Logger        *logger.Logger
}

// Service orchestrates membership reads and lifecycle mutations, keeping the
// caches reconciled after each committed change.
type Service struct {
	repo          *assignments.Repository
	engine        *Engine
	collection    *cache.Collection
	sync          *cache.Synchronizer
	confirmations *ConfirmationRegistry
	logg          *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, stdErrors.New("repository is required")
	}
	if params.Engine == nil {
		return nil, stdErrors.New("engine is required")
	}
	if params.Collection == nil {
		return nil, stdErrors.New("collection is required")
	}
	if params.Synchronizer == nil {
		return nil, stdErrors.New("synchronizer is required")
	}
	if params.Confirmations == nil {
		return nil, stdErrors.New("confirmation registry is required")
	}
	if params.Logger == nil {
		return nil, stdErrors.New("logger is required")
	}
	return &Service{
		repo:          params.Repo,
		engine:        params.Engine,
		collection:    params.Collection,
		sync:          params.Synchronizer,
		confirmations: params.Confirmations,
		logg:          params.Logger,
	}, nil
}

// Overview loads the membership screen for one organization as seen by the
// given viewer. Reads degrade to empty lists rather than failing.
func (s *Service) Overview(ctx context.Context, organizationID, viewerPersonaID string) Overview {
	snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)
	s.collection.Replace(organizationID, snap.Assignments)

	selfID := snap.SelfID()
	members := make([]MemberRow, 0, len(snap.Assignments))
	for _, a := range snap.Assignments {
		isSelf := selfID != "" && a.ID == selfID
		actionable := CanActOn(a.ID, selfID)
		members = append(members, MemberRow{
			Assignment:  a,
			StatusLabel: a.Status.Label(),
			IsSelf:      isSelf,
			CanEdit:     actionable,
			CanRemove:   actionable,
			CanReInvite: actionable && a.Status == enums.AssignmentStatusDeclined,
		})
	}

	return Overview{
		Roles:            snap.Roles,
		Members:          members,
		SelfAssignmentID: selfID,
	}
}

// Invite creates a pending assignment for an email address and reconciles the
// caches with the new member.
func (s *Service) Invite(ctx context.Context, organizationID, viewerPersonaID, email, roleID string) (assignments.Assignment, error) {
	snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)

	created, err := s.engine.Invite(ctx, organizationID, email, roleID, snap.Roles, snap.Assignments)
	if err != nil {
		return assignments.Assignment{}, err
	}

	s.collection.Replace(organizationID, append(snap.Assignments, created))
	s.sync.InvalidateOrganization(ctx, organizationID)
	return created, nil
}

// EditRole changes the role on an assignment.
func (s *Service) EditRole(ctx context.Context, organizationID, viewerPersonaID, assignmentID, roleID string) error {
	snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)
	target, err := findTarget(snap, assignmentID)
	if err != nil {
		return err
	}

	if err := s.engine.EditRole(ctx, target, snap.SelfID(), roleID, snap.Roles); err != nil {
		return err
	}

	s.sync.InvalidateOrganization(ctx, organizationID)
	s.refresh(ctx, organizationID, viewerPersonaID)
	return nil
}

// ReInvite moves a declined assignment back to pending.
func (s *Service) ReInvite(ctx context.Context, organizationID, viewerPersonaID, assignmentID string) error {
	snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)
	target, err := findTarget(snap, assignmentID)
	if err != nil {
		return err
	}

	if err := s.engine.ReInvite(ctx, target, snap.SelfID()); err != nil {
		return err
	}

	s.sync.InvalidateOrganization(ctx, organizationID)
	s.refresh(ctx, organizationID, viewerPersonaID)
	return nil
}

// RequestDelete arms the viewer's confirmation gate for one assignment. The
// self guard runs here as well so a viewer never arms a removal they could
// not confirm.
func (s *Service) RequestDelete(ctx context.Context, organizationID, viewerPersonaID, assignmentID string) error {
	snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)
	target, err := findTarget(snap, assignmentID)
	if err != nil {
		return err
	}
	if !CanActOn(target.ID, snap.SelfID()) {
		return errors.New(errors.CodeForbidden, "cannot remove your own assignment")
	}

	return s.confirmations.For(organizationID, viewerPersonaID).Request(assignmentID)
}

// ConfirmDelete runs the armed removal. The caches are reconciled only after
// the assignment document is gone; a partial cascade still reconciles, since
// the assignment itself was removed.
func (s *Service) ConfirmDelete(ctx context.Context, organizationID, viewerPersonaID string) error {
	gate := s.confirmations.For(organizationID, viewerPersonaID)

	return gate.Confirm(ctx, func(ctx context.Context, assignmentID string) error {
		snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)
		target, err := findTarget(snap, assignmentID)
		if err != nil {
			return err
		}

		err = s.engine.Delete(ctx, target, snap.SelfID())
		if err != nil && !errors.IsCode(err, errors.CodePartialCascade) {
			return err
		}

		s.sync.OnAssignmentDeleted(ctx, organizationID, assignmentID)
		return err
	})
}

// CancelDelete disarms a pending removal.
func (s *Service) CancelDelete(organizationID, viewerPersonaID string) error {
	return s.confirmations.For(organizationID, viewerPersonaID).Cancel()
}

// refresh reloads the organization's list into the in-process collection
// after a mutation.
func (s *Service) refresh(ctx context.Context, organizationID, viewerPersonaID string) {
	snap := s.repo.LoadSnapshot(ctx, organizationID, viewerPersonaID)
	s.collection.Replace(organizationID, snap.Assignments)
}

func findTarget(snap assignments.Snapshot, assignmentID string) (assignments.Assignment, error) {
	if assignmentID == "" {
		return assignments.Assignment{}, errors.New(errors.CodeValidation, "assignment id is required")
	}
	for _, a := range snap.Assignments {
		if a.ID == assignmentID {
			return a, nil
		}
	}
	return assignments.Assignment{}, errors.New(errors.CodeNotFound, "assignment not found").
		WithDetails(map[string]string{"assignmentId": assignmentID})
}
