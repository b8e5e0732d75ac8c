package role

import (
	"context"
	"log/slog"
	"slices"

	"github.com/frahmantamala/fleet-backoffice/internal"
	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
)

type RepositoryAPI interface {
	Create(ctx context.Context, r *userDatamodel.Role, permissionIDs []int64) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.Role, error)
	GetByName(ctx context.Context, name, guard string) (*userDatamodel.Role, error)
	PermissionKeys(ctx context.Context, roleID int64) ([]string, error)
	FindPermissions(ctx context.Context, keys []string) ([]*userDatamodel.Permission, error)
	GrantPermission(ctx context.Context, roleID, permissionID int64) error
	RevokePermission(ctx context.Context, roleID, permissionID int64) (bool, error)
	GetUser(ctx context.Context, userID int64) (*userDatamodel.User, error)
	RoleIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	ListForUser(ctx context.Context, userID int64) ([]*userDatamodel.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	UnassignRole(ctx context.Context, userID, roleID int64) (bool, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo        RepositoryAPI
	registry    *permission.Registry
	invalidator permission.Invalidator
	events      Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, registry *permission.Registry, invalidator permission.Invalidator, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		registry:    registry,
		invalidator: invalidator,
		events:      publisher,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, dto *CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	guard := dto.Guard
	if guard == "" {
		guard = DefaultGuard
	}

	keys, err := s.validateKeys(dto.Permissions)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, dto.Name, guard)
	if err != nil {
		s.logger.Error("failed to look up role", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create role", err)
	}
	if existing != nil {
		return nil, internal.ErrRoleExists
	}

	perms, err := s.repo.FindPermissions(ctx, keys)
	if err != nil {
		s.logger.Error("failed to load permissions", "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	}
	if len(perms) != len(keys) {
		return nil, s.unseeded(keys, perms)
	}
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}

	r := &Role{Name: dto.Name, Guard: guard}
	if id, ok := tenant.IDFromContext(ctx); ok {
		r.TenantID = &id
	}
	dm := ToDataModel(r)
	if err := s.repo.Create(ctx, dm, ids); err != nil {
		s.logger.Error("failed to create role", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create role", err)
	}

	created := FromDataModel(dm, sortedUnique(keys))
	s.publish(ctx, events.EntityCreated(created))
	s.logger.Info("role created", "role_id", created.ID, "name", created.Name, "permissions", len(keys))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load role", "error", err, "role_id", id)
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if dm == nil {
		return nil, internal.ErrRoleNotFound
	}
	keys, err := s.repo.PermissionKeys(ctx, id)
	if err != nil {
		s.logger.Error("failed to load role permissions", "error", err, "role_id", id)
		return nil, internal.NewInternalError("failed to load role", err)
	}
	return FromDataModel(dm, sortedUnique(keys)), nil
}

// GrantPermission adds key to the role. Every holder of the role may gain
// access, so the whole shared cache is dropped.
func (s *Service) GrantPermission(ctx context.Context, roleID int64, key string) (*Role, error) {
	before, perm, err := s.prepareRoleWrite(ctx, roleID, key)
	if err != nil {
		return nil, err
	}
	if slices.Contains(before.Permissions, key) {
		return before, nil
	}
	if err := s.repo.GrantPermission(ctx, roleID, perm.ID); err != nil {
		s.logger.Error("failed to grant permission", "error", err, "role_id", roleID, "key", key)
		return nil, internal.NewInternalError("failed to grant permission", err)
	}
	s.invalidateRole(ctx)

	after := *before
	after.Permissions = sortedUnique(append(slices.Clone(before.Permissions), key))
	s.publish(ctx, events.EntityUpdated(before, &after))
	s.logger.Info("permission granted", "role_id", roleID, "key", key)
	return &after, nil
}

func (s *Service) RevokePermission(ctx context.Context, roleID int64, key string) (*Role, error) {
	before, perm, err := s.prepareRoleWrite(ctx, roleID, key)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.RevokePermission(ctx, roleID, perm.ID)
	if err != nil {
		s.logger.Error("failed to revoke permission", "error", err, "role_id", roleID, "key", key)
		return nil, internal.NewInternalError("failed to revoke permission", err)
	}
	if !removed {
		return before, nil
	}
	s.invalidateRole(ctx)

	after := *before
	after.Permissions = slices.DeleteFunc(slices.Clone(before.Permissions), func(k string) bool { return k == key })
	s.publish(ctx, events.EntityUpdated(before, &after))
	s.logger.Info("permission revoked", "role_id", roleID, "key", key)
	return &after, nil
}

func (s *Service) prepareRoleWrite(ctx context.Context, roleID int64, key string) (*Role, *userDatamodel.Permission, error) {
	if _, err := s.validateKeys([]string{key}); err != nil {
		return nil, nil, err
	}
	r, err := s.Get(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	if r.IsGlobal() {
		if _, scoped := tenant.IDFromContext(ctx); scoped {
			return nil, nil, internal.NewForbiddenError("Global roles cannot be changed from a tenant", internal.ErrCodePermissionDenied)
		}
	}
	perms, err := s.repo.FindPermissions(ctx, []string{key})
	if err != nil {
		s.logger.Error("failed to load permission", "error", err, "key", key)
		return nil, nil, internal.NewInternalError("failed to load permission", err)
	}
	if len(perms) == 0 {
		return nil, nil, s.unseeded([]string{key}, nil)
	}
	return r, perms[0], nil
}

// AssignRole gives userID the role and drops only that user's cached set.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	before, err := s.assignment(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, roleID); err != nil {
		return err
	}
	if slices.Contains(before.RoleIDs, roleID) {
		return nil
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		s.logger.Error("failed to assign role", "error", err, "user_id", userID, "role_id", roleID)
		return internal.NewInternalError("failed to assign role", err)
	}
	s.invalidateUser(ctx, userID)

	after := &Assignment{UserID: userID, RoleIDs: append(slices.Clone(before.RoleIDs), roleID)}
	slices.Sort(after.RoleIDs)
	s.publish(ctx, events.EntityUpdated(before, after))
	s.logger.Info("role assigned", "user_id", userID, "role_id", roleID)
	return nil
}

func (s *Service) UnassignRole(ctx context.Context, userID, roleID int64) error {
	before, err := s.assignment(ctx, userID)
	if err != nil {
		return err
	}
	removed, err := s.repo.UnassignRole(ctx, userID, roleID)
	if err != nil {
		s.logger.Error("failed to unassign role", "error", err, "user_id", userID, "role_id", roleID)
		return internal.NewInternalError("failed to unassign role", err)
	}
	if !removed {
		return internal.ErrRoleNotFound
	}
	s.invalidateUser(ctx, userID)

	after := &Assignment{UserID: userID, RoleIDs: slices.DeleteFunc(slices.Clone(before.RoleIDs), func(id int64) bool { return id == roleID })}
	s.publish(ctx, events.EntityUpdated(before, after))
	s.logger.Info("role unassigned", "user_id", userID, "role_id", roleID)
	return nil
}

// RolesForUser lists the roles userID holds, for profile views.
func (s *Service) RolesForUser(ctx context.Context, userID int64) ([]*Role, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user roles", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	out := make([]*Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row, nil))
	}
	return out, nil
}

func (s *Service) assignment(ctx context.Context, userID int64) (*Assignment, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	ids, err := s.repo.RoleIDsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user roles", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load user roles", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	slices.Sort(ids)
	return &Assignment{UserID: userID, RoleIDs: ids}, nil
}

func (s *Service) validateKeys(raw []string) ([]string, error) {
	keys := make([]permission.Key, 0, len(raw))
	for _, k := range raw {
		key, err := permission.ParseKey(k)
		if err != nil {
			return nil, internal.NewValidationError("Malformed permission key "+k, internal.ErrCodeUnknownPermission).
				WithDetails(map[string]string{"key": k})
		}
		keys = append(keys, key)
	}
	if err := s.registry.Validate(keys...); err != nil {
		return nil, err
	}
	return sortedUnique(raw), nil
}

func (s *Service) unseeded(keys []string, found []*userDatamodel.Permission) error {
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.Key] = true
	}
	for _, k := range keys {
		if !have[k] {
			s.logger.Warn("registered permission missing from storage; run the seeder", "key", k)
			return internal.NewValidationError("Permission "+k+" has not been seeded", internal.ErrCodeUnknownPermission).
				WithDetails(map[string]string{"key": k})
		}
	}
	return internal.NewInternalError("permission lookup returned unexpected rows", nil)
}

func (s *Service) invalidateRole(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}
	permission.ResetInRequest(ctx)
}

func (s *Service) invalidateUser(ctx context.Context, userID int64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}
	permission.ForgetInRequest(ctx, userID)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.Warn("role event handlers failed", "event", event.EventType(), "error", err)
	}
}

func sortedUnique(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
