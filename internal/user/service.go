package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/fleet-backoffice/internal"
	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/role"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*userDatamodel.User, error)
}

type RoleLister interface {
	RolesForUser(ctx context.Context, userID int64) ([]*role.Role, error)
}

type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) (permission.Set, error)
}

type Service struct {
	repo        Repository
	roles       RoleLister
	permissions PermissionSource
	logger      *slog.Logger
}

func NewService(repo Repository, roles RoleLister, permissions PermissionSource, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		roles:       roles,
		permissions: permissions,
		logger:      logger,
	}
}

func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	dm, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user by id", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load profile", err)
	}
	if dm == nil {
		return nil, internal.ErrUserNotFound
	}

	roles, err := s.roles.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]RoleSummary, 0, len(roles))
	for _, r := range roles {
		summaries = append(summaries, RoleSummary{ID: r.ID, Name: r.Name, Global: r.IsGlobal()})
	}

	set, err := s.permissions.EffectivePermissions(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user permissions", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load profile", err)
	}

	return &Profile{
		User:        FromDataModel(dm),
		Roles:       summaries,
		Permissions: permission.Strings(set.Sorted()),
	}, nil
}
