package tenant

import "time"

type Tenant struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null"`
	Status    string    `gorm:"column:status;not null;default:active"`
	Type      string    `gorm:"column:type;not null;default:root"`
	ParentID  *int64    `gorm:"column:parent_id;index"`
	Namespace string    `gorm:"column:namespace;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "tenants"
}

type Office struct {
	ID        int64     `gorm:"primaryKey"`
	TenantID  int64     `gorm:"column:tenant_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Office) TableName() string {
	return "offices"
}
