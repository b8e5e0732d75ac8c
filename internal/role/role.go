package role

import (
	"strconv"
	"time"

	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
)

const (
	SubjectType  = "role"
	DefaultGuard = "web"
)

// Role is global when TenantID is nil. Global roles are readable from every
// tenant but only the seeder writes them.
type Role struct {
	ID          int64     `json:"id"`
	TenantID    *int64    `json:"tenant_id,omitempty"`
	Name        string    `json:"name"`
	Guard       string    `json:"guard"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Role) IsGlobal() bool {
	return r.TenantID == nil
}

func (r *Role) AuditSubject() (string, string) {
	return SubjectType, strconv.FormatInt(r.ID, 10)
}

func (r *Role) AuditHidden() []string {
	return []string{"created_at", "updated_at"}
}

// Assignment is the audit view of a user's role membership.
type Assignment struct {
	UserID  int64   `json:"user_id"`
	RoleIDs []int64 `json:"role_ids"`
}

func (a *Assignment) AuditSubject() (string, string) {
	return "user", strconv.FormatInt(a.UserID, 10)
}

func ToDataModel(r *Role) *userDatamodel.Role {
	return &userDatamodel.Role{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Guard:     r.Guard,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModel(r *userDatamodel.Role, permissions []string) *Role {
	if permissions == nil {
		permissions = []string{}
	}
	return &Role{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Guard:       r.Guard,
		Permissions: permissions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
