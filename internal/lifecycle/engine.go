package lifecycle

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/therenansimoes/organizations/internal/assignments"
	"github.com/therenansimoes/organizations/pkg/config"
	"github.com/therenansimoes/organizations/pkg/docstore"
	"github.com/therenansimoes/organizations/pkg/enums"
	"github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
)

// CanActOn reports whether the viewer may mutate the target assignment. An
// unknown viewer may act on anything; a known viewer may act on any
// assignment but their own.
func CanActOn(targetAssignmentID, selfAssignmentID string) bool {
	return selfAssignmentID == "" || targetAssignmentID != selfAssignmentID
}

// EngineParams carries the dependencies for NewEngine.
type EngineParams struct {
	Store    docstore.Store
	Entities config.EntitiesConfig
	Logger   *logger.Logger
}

// Engine applies assignment lifecycle mutations against the document store.
// It owns the transition rules; presentation concerns stay in the service.
type Engine struct {
	store    docstore.Store
	entities config.EntitiesConfig
	logg     *logger.Logger
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Store == nil {
		return nil, stdErrors.New("document store is required")
	}
	if params.Logger == nil {
		return nil, stdErrors.New("logger is required")
	}
	return &Engine{
		store:    params.Store,
		entities: params.Entities,
		logg:     params.Logger,
	}, nil
}

// ReInvite moves a declined assignment back to pending. Any other starting
// status is rejected.
func (e *Engine) ReInvite(ctx context.Context, target assignments.Assignment, selfAssignmentID string) error {
	if !CanActOn(target.ID, selfAssignmentID) {
		return errors.New(errors.CodeForbidden, "cannot re-invite your own assignment")
	}
	if target.Status != enums.AssignmentStatusDeclined {
		return errors.New(errors.CodeStateConflict, "only declined assignments can be re-invited").
			WithDetails(map[string]string{"status": target.Status.String()})
	}

	doc := docstore.FromMap(map[string]string{
		assignments.FieldID:     target.ID,
		assignments.FieldStatus: enums.AssignmentStatusPending.String(),
	})
	if err := e.store.UpdateDocument(ctx, e.entities.AssignmentAcronym, e.entities.AssignmentSchema, doc); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "re-inviting assignment")
	}
	return nil
}

// EditRole changes the role bound to an assignment.
func (e *Engine) EditRole(ctx context.Context, target assignments.Assignment, selfAssignmentID, roleID string, roles []assignments.Role) error {
	if !CanActOn(target.ID, selfAssignmentID) {
		return errors.New(errors.CodeForbidden, "cannot edit your own assignment")
	}
	if !roleExists(roles, roleID) {
		return errors.New(errors.CodeValidation, "unknown role").
			WithDetails(map[string]string{"roleId": roleID})
	}

	doc := docstore.FromMap(map[string]string{
		assignments.FieldID:     target.ID,
		assignments.FieldRoleID: roleID,
	})
	if err := e.store.UpdateDocument(ctx, e.entities.AssignmentAcronym, e.entities.AssignmentSchema, doc); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "updating assignment role")
	}
	return nil
}

// Delete removes an assignment. Approved assignments cascade: the assignment
// document goes first, then the persona's organization reference is cleared.
// When the second step fails the assignment is already gone, so the error is
// reported distinctly and carries the persona left to clean up.
func (e *Engine) Delete(ctx context.Context, target assignments.Assignment, selfAssignmentID string) error {
	if !CanActOn(target.ID, selfAssignmentID) {
		return errors.New(errors.CodeForbidden, "cannot remove your own assignment")
	}

	if err := e.store.DeleteDocument(ctx, e.entities.AssignmentAcronym, target.ID); err != nil {
		if typed := errors.As(err); typed != nil {
			return typed
		}
		return errors.Wrap(errors.CodeDependency, err, "deleting assignment")
	}

	if target.Status != enums.AssignmentStatusApproved {
		return nil
	}

	doc := docstore.FromMap(map[string]string{
		assignments.FieldID:             target.PersonaID,
		assignments.FieldOrganizationID: "",
	})
	if err := e.store.UpdateDocument(ctx, e.entities.PersonaAcronym, e.entities.PersonaSchema, doc); err != nil {
		e.logg.Error(ctx, "clearing persona organization reference after delete", err)
		return errors.Wrap(errors.CodePartialCascade, err, "assignment removed but persona cleanup failed").
			WithDetails(map[string]string{
				"assignmentId": target.ID,
				"personaId":    target.PersonaID,
			})
	}
	return nil
}

// Invite creates a pending assignment for the given email, creating the
// persona record first when none exists yet.
func (e *Engine) Invite(ctx context.Context, organizationID, email, roleID string, roles []assignments.Role, existing []assignments.Assignment) (assignments.Assignment, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return assignments.Assignment{}, errors.New(errors.CodeValidation, "email is required")
	}
	if !roleExists(roles, roleID) {
		return assignments.Assignment{}, errors.New(errors.CodeValidation, "unknown role").
			WithDetails(map[string]string{"roleId": roleID})
	}
	for _, a := range existing {
		if strings.EqualFold(a.Email, email) {
			return assignments.Assignment{}, errors.New(errors.CodeConflict, "persona is already assigned to this organization").
				WithDetails(map[string]string{"email": email})
		}
	}

	personaID, err := e.resolvePersona(ctx, email)
	if err != nil {
		return assignments.Assignment{}, err
	}

	created := assignments.Assignment{
		ID:             uuid.NewString(),
		PersonaID:      personaID,
		OrganizationID: organizationID,
		RoleID:         roleID,
		Status:         enums.AssignmentStatusPending,
		Email:          email,
		RoleLabel:      roleLabel(roles, roleID),
	}

	doc := docstore.FromMap(map[string]string{
		assignments.FieldID:             created.ID,
		assignments.FieldPersonaID:      created.PersonaID,
		assignments.FieldOrganizationID: created.OrganizationID,
		assignments.FieldRoleID:         created.RoleID,
		assignments.FieldStatus:         created.Status.String(),
	})
	if err := e.store.UpdateDocument(ctx, e.entities.AssignmentAcronym, e.entities.AssignmentSchema, doc); err != nil {
		return assignments.Assignment{}, errors.Wrap(errors.CodeDependency, err, "creating assignment")
	}
	return created, nil
}

// resolvePersona returns the id of the persona with the given email, creating
// the record when none exists.
func (e *Engine) resolvePersona(ctx context.Context, email string) (string, error) {
	docs, err := e.store.Query(
		ctx,
		e.entities.PersonaAcronym,
		[]string{assignments.FieldID, assignments.FieldEmail},
		e.entities.PersonaSchema,
		docstore.Where(assignments.FieldEmail, email),
	)
	if err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "looking up persona")
	}
	if len(docs) > 0 {
		return docs[0].Get(assignments.FieldID), nil
	}

	personaID := uuid.NewString()
	doc := docstore.FromMap(map[string]string{
		assignments.FieldID:    personaID,
		assignments.FieldEmail: email,
	})
	if err := e.store.UpdateDocument(ctx, e.entities.PersonaAcronym, e.entities.PersonaSchema, doc); err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "creating persona")
	}
	return personaID, nil
}

func roleExists(roles []assignments.Role, roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func roleLabel(roles []assignments.Role, roleID string) string {
	for _, role := range roles {
		if role.ID == roleID {
			return role.Label
		}
	}
	return ""
}
