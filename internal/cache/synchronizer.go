package cache

import (
	"context"
	"errors"

	"github.com/therenansimoes/organizations/pkg/logger"
)

// snapshotInvalidator is the slice of the redis client the synchronizer needs
// to drop the shared snapshot for one organization.
type snapshotInvalidator interface {
	Del(ctx context.Context, keys ...string) error
	AssignmentSnapshotKey(organizationID string) string
}

// Synchronizer reconciles the caches after a committed delete. It runs only
// once persistence has succeeded, so a failed delete never mutates a cache.
type Synchronizer struct {
	collection *Collection
	snapshots  snapshotInvalidator
	logg       *logger.Logger
}

// SynchronizerParams carries the dependencies for NewSynchronizer. Snapshots
// is optional; without it only the in-process collection is reconciled.
type SynchronizerParams struct {
	Collection *Collection
	Snapshots  snapshotInvalidator
	Logger     *logger.Logger
}

func NewSynchronizer(params SynchronizerParams) (*Synchronizer, error) {
	if params.Collection == nil {
		return nil, errors.New("collection is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Synchronizer{
		collection: params.Collection,
		snapshots:  params.Snapshots,
		logg:       params.Logger,
	}, nil
}

// OnAssignmentDeleted removes the deleted assignment from the organization's
// in-process list and drops the shared snapshot so the next read refills it.
func (s *Synchronizer) OnAssignmentDeleted(ctx context.Context, organizationID, assignmentID string) {
	s.collection.OnAssignmentDeleted(organizationID, assignmentID)
	s.InvalidateOrganization(ctx, organizationID)
}

// InvalidateOrganization drops the shared assignment snapshot for one
// organization. A failed invalidation is logged; the TTL bounds the staleness.
func (s *Synchronizer) InvalidateOrganization(ctx context.Context, organizationID string) {
	if s.snapshots == nil {
		return
	}
	key := s.snapshots.AssignmentSnapshotKey(organizationID)
	if err := s.snapshots.Del(ctx, key); err != nil {
		s.logg.Error(ctx, "invalidating assignment snapshot", err)
	}
}
