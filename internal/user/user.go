package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
)

type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	OfficeID     int64     `json:"office_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuditHidden keeps the password hash out of audit snapshots.
func (u *User) AuditHidden() []string {
	return []string{"password_hash", "created_at", "updated_at"}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		TenantID:     u.TenantID,
		OfficeID:     u.OfficeID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		TenantID:     u.TenantID,
		OfficeID:     u.OfficeID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
