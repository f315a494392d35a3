package assignments

import (
	"encoding/json"

	"github.com/therenansimoes/organizations/pkg/docstore"
	"github.com/therenansimoes/organizations/pkg/enums"
)

// Document field keys shared with the store schemas.
const (
	FieldID             = "id"
	FieldPersonaID      = "personaId"
	FieldOrganizationID = "businessOrganizationId"
	FieldRoleID         = "roleId"
	FieldStatus         = "status"
	FieldEmail          = "email"
	FieldName           = "name"
	FieldLabel          = "label"

	fieldPersonaLinked = "personaId_linked"
	fieldRoleLinked    = "roleId_linked"
)

var (
	// RoleFields is the projection requested for role documents.
	RoleFields = []string{FieldID, FieldName, FieldLabel}

	// AssignmentFields is the projection requested for assignment documents,
	// including the linked persona and role records the store joins in.
	AssignmentFields = []string{
		FieldID,
		FieldPersonaID,
		FieldOrganizationID,
		FieldRoleID,
		FieldStatus,
		fieldPersonaLinked,
		fieldRoleLinked,
	}
)

func roleFromDocument(doc docstore.Document) Role {
	return Role{
		ID:    doc.Get(FieldID),
		Name:  doc.Get(FieldName),
		Label: doc.Get(FieldLabel),
	}
}

func rolesFromDocuments(docs []docstore.Document) []Role {
	out := make([]Role, 0, len(docs))
	for _, doc := range docs {
		out = append(out, roleFromDocument(doc))
	}
	return out
}

// assignmentFromDocument denormalizes one assignment document. The linked
// persona document supplies the email; the role label comes from the linked
// role document, falling back to a linear scan of the role list.
func assignmentFromDocument(doc docstore.Document, roles []Role) Assignment {
	a := Assignment{
		ID:             doc.Get(FieldID),
		PersonaID:      doc.Get(FieldPersonaID),
		OrganizationID: doc.Get(FieldOrganizationID),
		RoleID:         doc.Get(FieldRoleID),
		Status:         enums.AssignmentStatus(doc.Get(FieldStatus)),
	}

	if linked := linkedDocument(doc.Get(fieldPersonaLinked)); linked != nil {
		a.Email = linked[FieldEmail]
	}
	if linked := linkedDocument(doc.Get(fieldRoleLinked)); linked != nil {
		a.RoleLabel = linked[FieldLabel]
	}
	if a.RoleLabel == "" {
		for _, role := range roles {
			if role.ID == a.RoleID {
				a.RoleLabel = role.Label
				break
			}
		}
	}
	return a
}

func assignmentsFromDocuments(docs []docstore.Document, roles []Role) []Assignment {
	out := make([]Assignment, 0, len(docs))
	for _, doc := range docs {
		out = append(out, assignmentFromDocument(doc, roles))
	}
	return out
}

func linkedDocument(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil
	}
	return fields
}
