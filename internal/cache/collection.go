package cache

import (
	"sync"

	"github.com/therenansimoes/organizations/internal/assignments"
)

// RemoveAssignment returns a copy of list without the assignment carrying the
// given id. Input order is preserved and the input slice is never mutated. An
// absent id returns an equal copy.
func RemoveAssignment(list []assignments.Assignment, assignmentID string) []assignments.Assignment {
	out := make([]assignments.Assignment, 0, len(list))
	for _, a := range list {
		if a.ID == assignmentID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Collection holds the in-process copy of each organization's assignment
// list. Mutations are scoped to a single organization; other organizations'
// entries are never touched.
type Collection struct {
	mu    sync.RWMutex
	byOrg map[string][]assignments.Assignment
}

func NewCollection() *Collection {
	return &Collection{byOrg: make(map[string][]assignments.Assignment)}
}

// Replace swaps the cached list for one organization.
func (c *Collection) Replace(organizationID string, list []assignments.Assignment) {
	copied := make([]assignments.Assignment, len(list))
	copy(copied, list)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byOrg[organizationID] = copied
}

// Get returns a copy of the cached list for one organization.
func (c *Collection) Get(organizationID string) []assignments.Assignment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.byOrg[organizationID]
	copied := make([]assignments.Assignment, len(list))
	copy(copied, list)
	return copied
}

// Find locates one cached assignment by id within an organization.
func (c *Collection) Find(organizationID, assignmentID string) (assignments.Assignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, a := range c.byOrg[organizationID] {
		if a.ID == assignmentID {
			return a, true
		}
	}
	return assignments.Assignment{}, false
}

// OnAssignmentDeleted drops exactly the deleted assignment from the one
// organization's cached list.
func (c *Collection) OnAssignmentDeleted(organizationID, assignmentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, ok := c.byOrg[organizationID]
	if !ok {
		return
	}
	c.byOrg[organizationID] = RemoveAssignment(list, assignmentID)
}
