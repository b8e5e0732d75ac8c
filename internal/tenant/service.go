package tenant

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/fleet-backoffice/internal"
	tenantDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/tenant"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*tenantDatamodel.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*tenantDatamodel.Tenant, error)
	ListBranches(ctx context.Context, parentID int64) ([]*tenantDatamodel.Tenant, error)
	Create(ctx context.Context, t *tenantDatamodel.Tenant) error
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Resolve looks a tenant up by slug or numeric id and checks it may serve
// requests. A missing tenant and a disabled one fail with different codes.
func (s *Service) Resolve(ctx context.Context, ref string) (*Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, internal.NewTenantNotFoundError("")
	}

	t, err := s.lookup(ctx, ref)
	if err != nil {
		s.logger.Error("tenant lookup failed", "reference", ref, "error", err)
		return nil, internal.NewInternalError("failed to resolve tenant", err)
	}
	if t == nil {
		return nil, internal.NewTenantNotFoundError(ref)
	}

	if !t.IsActive() {
		s.logger.Warn("inactive tenant rejected", "tenant", t.Slug, "status", t.Status)
		return nil, internal.NewTenantInactiveError(t.Slug, string(t.Status))
	}

	if t.IsBranch() && t.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *t.ParentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to resolve parent tenant", err)
		}
		if parent == nil {
			return nil, internal.NewTenantNotFoundError(ref)
		}
		if parent.Status != string(StatusActive) {
			s.logger.Warn("branch rejected by inactive root", "tenant", t.Slug, "root", parent.Slug, "status", parent.Status)
			return nil, internal.NewTenantInactiveError(t.Slug, parent.Status)
		}
	}

	return t, nil
}

func (s *Service) lookup(ctx context.Context, ref string) (*Tenant, error) {
	var (
		row *tenantDatamodel.Tenant
		err error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		row, err = s.repo.GetByID(ctx, id)
	} else {
		row, err = s.repo.GetBySlug(ctx, strings.ToLower(ref))
	}
	if err != nil || row == nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Provision creates a root tenant, or a branch under an existing root.
func (s *Service) Provision(ctx context.Context, t *Tenant) (*Tenant, error) {
	if t.Status == "" {
		t.Status = StatusActive
	}
	if appErr := t.Validate(); appErr != nil {
		return nil, appErr
	}

	if t.IsBranch() {
		parent, err := s.repo.GetByID(ctx, *t.ParentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load parent tenant", err)
		}
		if parent == nil || parent.Type != string(TypeRoot) {
			return nil, internal.NewValidationFieldError("parent_id", "a branch must reference an existing root tenant", internal.ErrCodeInvalidReference)
		}
	}

	row := ToDataModel(t)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to provision tenant", "slug", t.Slug, "error", err)
		return nil, internal.NewInternalError("failed to provision tenant", err)
	}

	s.logger.Info("tenant provisioned", "tenant_id", row.ID, "slug", row.Slug, "type", row.Type)
	return FromDataModel(row), nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	candidate := &Tenant{ID: id, Status: status, Type: TypeRoot, Name: "-", Slug: "-", Namespace: "-"}
	if appErr := candidate.Validate(); appErr != nil {
		return appErr
	}
	found, err := s.repo.UpdateStatus(ctx, id, string(status))
	if err != nil {
		return internal.NewInternalError("failed to update tenant status", err)
	}
	if !found {
		return internal.NewTenantNotFoundError(strconv.FormatInt(id, 10))
	}
	s.logger.Info("tenant status changed", "tenant_id", id, "status", status)
	return nil
}

// Remove deletes a tenant. Deleting a root takes its branches with it.
func (s *Service) Remove(ctx context.Context, id int64) error {
	branches, err := s.repo.ListBranches(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to list branches", err)
	}
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to delete tenant", err)
	}
	if !found {
		return internal.NewTenantNotFoundError(strconv.FormatInt(id, 10))
	}
	s.logger.Info("tenant removed", "tenant_id", id, "branches_removed", len(branches))
	return nil
}
