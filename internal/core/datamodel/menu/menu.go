package menu

import "time"

type Menu struct {
	ID        int64     `gorm:"primaryKey"`
	TenantID  int64     `gorm:"column:tenant_id;not null;index"`
	ParentID  *int64    `gorm:"column:parent_id;index"`
	Name      string    `gorm:"column:name;not null"`
	Route     string    `gorm:"column:route"`
	Icon      string    `gorm:"column:icon"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Menu) TableName() string {
	return "menus"
}

type MenuRole struct {
	MenuID int64 `gorm:"column:menu_id;primaryKey"`
	RoleID int64 `gorm:"column:role_id;primaryKey"`
}

func (MenuRole) TableName() string {
	return "menu_roles"
}
