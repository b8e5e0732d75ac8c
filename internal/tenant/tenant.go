package tenant

import (
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal"
	tenantDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/tenant"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

type Type string

const (
	TypeRoot   Type = "root"
	TypeBranch Type = "branch"
)

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	Type      Type      `json:"type"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Namespace string    `json:"namespace"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

func (t *Tenant) IsBranch() bool {
	return t.Type == TypeBranch
}

func (t *Tenant) Validate() *internal.AppError {
	switch t.Status {
	case StatusActive, StatusInactive, StatusSuspended:
	default:
		return internal.NewValidationFieldError("status", "status must be one of active, inactive, suspended", internal.ErrCodeInvalidStatus)
	}

	switch t.Type {
	case TypeRoot:
		if t.ParentID != nil {
			return internal.NewValidationFieldError("parent_id", "a root tenant cannot have a parent", internal.ErrCodeInvalidReference)
		}
	case TypeBranch:
		if t.ParentID == nil {
			return internal.NewValidationFieldError("parent_id", "a branch tenant must reference a root tenant", internal.ErrCodeInvalidReference)
		}
		if *t.ParentID == t.ID && t.ID != 0 {
			return internal.NewValidationFieldError("parent_id", "a tenant cannot be its own parent", internal.ErrCodeInvalidReference)
		}
	default:
		return internal.NewValidationFieldError("type", "type must be root or branch", internal.ErrCodeValidationFailed)
	}

	if t.Slug == "" || t.Name == "" || t.Namespace == "" {
		return internal.NewValidationError("name, slug and namespace are required", internal.ErrCodeValidationFailed)
	}
	return nil
}

func ToDataModel(t *Tenant) *tenantDatamodel.Tenant {
	return &tenantDatamodel.Tenant{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Status:    string(t.Status),
		Type:      string(t.Type),
		ParentID:  t.ParentID,
		Namespace: t.Namespace,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func FromDataModel(t *tenantDatamodel.Tenant) *Tenant {
	return &Tenant{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Status:    Status(t.Status),
		Type:      Type(t.Type),
		ParentID:  t.ParentID,
		Namespace: t.Namespace,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
