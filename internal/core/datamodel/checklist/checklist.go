package checklist

import (
	"time"

	"gorm.io/gorm"
)

type Checklist struct {
	ID        int64          `gorm:"primaryKey"`
	TenantID  int64          `gorm:"column:tenant_id;not null;index"`
	VehicleID int64          `gorm:"column:vehicle_id;not null;index"`
	Title     string         `gorm:"column:title;not null"`
	Status    string         `gorm:"column:status;not null;default:pending"`
	Notes     string         `gorm:"column:notes"`
	CreatedBy *int64         `gorm:"column:created_by"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Checklist) TableName() string {
	return "checklists"
}
