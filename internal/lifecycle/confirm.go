package lifecycle

import (
	"context"
	"sync"

	"github.com/therenansimoes/organizations/pkg/errors"
)

type confirmationState int

const (
	stateIdle confirmationState = iota
	stateConfirmPending
	stateDeleting
)

// DeleteConfirmation is the two-step removal gate for one viewer in one
// organization. A removal must be requested, then confirmed; while the
// confirmed delete runs, further requests, confirms, and cancels are refused,
// so a double submit cannot issue a second delete.
type DeleteConfirmation struct {
	mu      sync.Mutex
	state   confirmationState
	subject string
}

// Request arms the confirmation for the given assignment. Only one removal
// can be in flight at a time.
func (d *DeleteConfirmation) Request(assignmentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateIdle {
		return errors.New(errors.CodeConflict, "a removal is already in progress").
			WithDetails(map[string]string{"assignmentId": d.subject})
	}
	d.state = stateConfirmPending
	d.subject = assignmentID
	return nil
}

// Subject returns the assignment id awaiting confirmation, or "".
func (d *DeleteConfirmation) Subject() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.subject
}

// Confirm runs fn for the armed assignment. Whatever fn returns, the gate
// ends up idle again; a confirm without a prior request is a state error.
func (d *DeleteConfirmation) Confirm(ctx context.Context, fn func(ctx context.Context, assignmentID string) error) error {
	d.mu.Lock()
	switch d.state {
	case stateDeleting:
		d.mu.Unlock()
		return errors.New(errors.CodeConflict, "removal is already being processed")
	case stateIdle:
		d.mu.Unlock()
		return errors.New(errors.CodeStateConflict, "no removal was requested")
	}
	d.state = stateDeleting
	subject := d.subject
	d.mu.Unlock()

	err := fn(ctx, subject)

	d.mu.Lock()
	d.state = stateIdle
	d.subject = ""
	d.mu.Unlock()

	return err
}

// Cancel disarms a pending confirmation. Cancelling when nothing is pending
// is a no-op; cancelling mid-delete is refused.
func (d *DeleteConfirmation) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case stateDeleting:
		return errors.New(errors.CodeConflict, "removal is already being processed")
	case stateIdle:
		return nil
	}
	d.state = stateIdle
	d.subject = ""
	return nil
}

type confirmationKey struct {
	organizationID string
	viewerID       string
}

// ConfirmationRegistry hands out the per-viewer, per-organization
// confirmation gates.
type ConfirmationRegistry struct {
	mu    sync.Mutex
	gates map[confirmationKey]*DeleteConfirmation
}

func NewConfirmationRegistry() *ConfirmationRegistry {
	return &ConfirmationRegistry{gates: make(map[confirmationKey]*DeleteConfirmation)}
}

// For returns the gate for one viewer within one organization, creating it on
// first use.
func (r *ConfirmationRegistry) For(organizationID, viewerID string) *DeleteConfirmation {
	key := confirmationKey{organizationID: organizationID, viewerID: viewerID}

	r.mu.Lock()
	defer r.mu.Unlock()

	gate, ok := r.gates[key]
	if !ok {
		gate = &DeleteConfirmation{}
		r.gates[key] = gate
	}
	return gate
}
