package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	TenantID     int64     `gorm:"column:tenant_id;not null;index"`
	OfficeID     int64     `gorm:"column:office_id;not null"`
	Email        string    `gorm:"column:email;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Role is tenant scoped, or global when TenantID is nil.
type Role struct {
	ID        int64     `gorm:"primaryKey"`
	TenantID  *int64    `gorm:"column:tenant_id;index"`
	Name      string    `gorm:"column:name;not null"`
	Guard     string    `gorm:"column:guard;not null;default:web"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// TenantSharedRows lets global roles (tenant_id IS NULL) through the tenant scope.
func (Role) TenantSharedRows() bool {
	return true
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Key         string    `gorm:"column:key;uniqueIndex;not null"`
	Guard       string    `gorm:"column:guard;not null;default:web"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

type RolePermission struct {
	RoleID       int64 `gorm:"column:role_id;primaryKey"`
	PermissionID int64 `gorm:"column:permission_id;primaryKey"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type UserRole struct {
	UserID int64 `gorm:"column:user_id;primaryKey"`
	RoleID int64 `gorm:"column:role_id;primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type UserPermission struct {
	UserID       int64     `gorm:"column:user_id;primaryKey"`
	PermissionID int64     `gorm:"column:permission_id;primaryKey"`
	GrantedBy    *int64    `gorm:"column:granted_by"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
