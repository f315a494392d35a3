package enums

import "fmt"

// AssignmentStatus captures the lifecycle of an organization user assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending  AssignmentStatus = "PENDING"
	AssignmentStatusApproved AssignmentStatus = "APPROVED"
	AssignmentStatusDeclined AssignmentStatus = "DECLINED"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusApproved,
	AssignmentStatusDeclined,
}

// String implements fmt.Stringer.
func (s AssignmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known AssignmentStatus.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label returns the human-readable form shown in member listings.
func (s AssignmentStatus) Label() string {
	switch s {
	case AssignmentStatusApproved:
		return "Active"
	case AssignmentStatusDeclined:
		return "Inactive"
	case AssignmentStatusPending:
		return "Pending"
	}
	return ""
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
