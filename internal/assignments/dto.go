package assignments

import (
	"github.com/therenansimoes/organizations/pkg/enums"
)

// Role is a named permission level. Read-only from this service's
// perspective; the lookup list is owned by the document store.
type Role struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Assignment is the join record binding a persona to an organization with a
// role and a membership status. Email and RoleLabel are denormalized from the
// linked persona and role documents.
type Assignment struct {
	ID             string                 `json:"id"`
	PersonaID      string                 `json:"persona_id"`
	OrganizationID string                 `json:"organization_id"`
	RoleID         string                 `json:"role_id"`
	Status         enums.AssignmentStatus `json:"status"`
	Email          string                 `json:"email"`
	RoleLabel      string                 `json:"role_label"`
}

// Snapshot is one consistent read of an organization's membership state.
type Snapshot struct {
	Roles       []Role       `json:"roles"`
	Assignments []Assignment `json:"assignments"`
	Self        *Assignment  `json:"self,omitempty"`
}

// SelfID returns the viewer's assignment id, or "" when the viewer has none.
func (s Snapshot) SelfID() string {
	if s.Self == nil {
		return ""
	}
	return s.Self.ID
}

// FindSelfAssignment locates the viewer's own assignment by persona id.
// Absence is a valid state and returns nil.
func FindSelfAssignment(list []Assignment, viewerPersonaID string) *Assignment {
	if viewerPersonaID == "" {
		return nil
	}
	for i := range list {
		if list[i].PersonaID == viewerPersonaID {
			return &list[i]
		}
	}
	return nil
}
