package assignments

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/therenansimoes/organizations/pkg/config"
	"github.com/therenansimoes/organizations/pkg/docstore"
	"github.com/therenansimoes/organizations/pkg/logger"
	"github.com/therenansimoes/organizations/pkg/redis"
)

// snapshotCache is the slice of the redis client the repository uses to keep a
// short-lived copy of each organization's assignment list.
type snapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	AssignmentSnapshotKey(organizationID string) string
}

// RepositoryParams carries the dependencies for NewRepository.
type RepositoryParams struct {
	Store    docstore.Store
	Entities config.EntitiesConfig
	Logger   *logger.Logger
}

// Repository reads roles and assignments from the document store. Reads are
// presentation-facing and degrade to empty results instead of failing.
type Repository struct {
	store    docstore.Store
	entities config.EntitiesConfig
	logg     *logger.Logger

	cache    snapshotCache
	cacheTTL time.Duration
}

func NewRepository(params RepositoryParams) (*Repository, error) {
	if params.Store == nil {
		return nil, errors.New("document store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Repository{
		store:    params.Store,
		entities: params.Entities,
		logg:     params.Logger,
	}, nil
}

// WithSnapshotCache enables the redis read-through for assignment lists.
func (r *Repository) WithSnapshotCache(cache snapshotCache, ttl time.Duration) *Repository {
	r.cache = cache
	r.cacheTTL = ttl
	return r
}

// LoadRoles returns the role lookup list. A failed read is logged and
// surfaces as an empty list.
func (r *Repository) LoadRoles(ctx context.Context) []Role {
	roles, err := r.loadRoles(ctx)
	if err != nil {
		r.logg.Error(ctx, "loading roles", err)
		return []Role{}
	}
	return roles
}

// LoadAssignments returns the organization's assignment list, serving from
// the snapshot cache when one is configured. A failed read is logged and
// surfaces as an empty list.
func (r *Repository) LoadAssignments(ctx context.Context, organizationID string) []Assignment {
	list, err := r.loadAssignments(ctx, organizationID, nil)
	if err != nil {
		r.logg.Error(ctx, "loading assignments", err)
		return []Assignment{}
	}
	return list
}

// LoadSnapshot reads roles and assignments concurrently and resolves the
// viewer's own assignment. Partial failures are logged; the affected portion
// comes back empty so the caller can still render.
func (r *Repository) LoadSnapshot(ctx context.Context, organizationID, viewerPersonaID string) Snapshot {
	var (
		wg       sync.WaitGroup
		roles    []Role
		list     []Assignment
		rolesErr error
		listErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		roles, rolesErr = r.loadRoles(ctx)
	}()
	go func() {
		defer wg.Done()
		list, listErr = r.loadAssignments(ctx, organizationID, nil)
	}()
	wg.Wait()

	if err := multierr.Combine(rolesErr, listErr); err != nil {
		r.logg.Error(ctx, "loading organization snapshot", err)
	}
	if roles == nil {
		roles = []Role{}
	}
	if list == nil {
		list = []Assignment{}
	}

	// Relink labels in case the assignment documents came back without their
	// linked role records.
	for i := range list {
		if list[i].RoleLabel != "" {
			continue
		}
		for _, role := range roles {
			if role.ID == list[i].RoleID {
				list[i].RoleLabel = role.Label
				break
			}
		}
	}

	return Snapshot{
		Roles:       roles,
		Assignments: list,
		Self:        FindSelfAssignment(list, viewerPersonaID),
	}
}

func (r *Repository) loadRoles(ctx context.Context) ([]Role, error) {
	docs, err := r.store.Query(ctx, r.entities.RoleAcronym, RoleFields, r.entities.RoleSchema, "")
	if err != nil {
		return nil, err
	}
	return rolesFromDocuments(docs), nil
}

func (r *Repository) loadAssignments(ctx context.Context, organizationID string, roles []Role) ([]Assignment, error) {
	if cached, ok := r.cachedAssignments(ctx, organizationID); ok {
		return cached, nil
	}

	docs, err := r.store.Query(
		ctx,
		r.entities.AssignmentAcronym,
		AssignmentFields,
		r.entities.AssignmentSchema,
		docstore.Where(FieldOrganizationID, organizationID),
	)
	if err != nil {
		return nil, err
	}

	list := assignmentsFromDocuments(docs, roles)
	r.cacheAssignments(ctx, organizationID, list)
	return list, nil
}

func (r *Repository) cachedAssignments(ctx context.Context, organizationID string) ([]Assignment, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, r.cache.AssignmentSnapshotKey(organizationID))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logg.Warn(ctx, "assignment snapshot cache read failed")
		}
		return nil, false
	}
	var list []Assignment
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		r.logg.Warn(ctx, "assignment snapshot cache entry is corrupt")
		return nil, false
	}
	return list, true
}

func (r *Repository) cacheAssignments(ctx context.Context, organizationID string, list []Assignment) {
	if r.cache == nil {
		return
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.cache.AssignmentSnapshotKey(organizationID), string(payload), r.cacheTTL); err != nil {
		r.logg.Warn(ctx, "assignment snapshot cache write failed")
	}
}
