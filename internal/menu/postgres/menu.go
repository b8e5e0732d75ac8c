package postgres

import (
	"context"
	"errors"
	"slices"

	menuDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/menu"
	"github.com/frahmantamala/fleet-backoffice/internal/menu"
	"gorm.io/gorm"
)

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) menu.RepositoryAPI {
	return &MenuRepository{db: db}
}

// Create inserts the menu and its role links together.
func (r *MenuRepository) Create(ctx context.Context, m *menuDatamodel.Menu, roleIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return linkRoles(tx, m.ID, roleIDs)
	})
}

func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menuDatamodel.Menu, error) {
	var m menuDatamodel.Menu
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MenuRepository) List(ctx context.Context) ([]*menuDatamodel.Menu, error) {
	var menus []*menuDatamodel.Menu
	err := r.db.WithContext(ctx).Order("position ASC").Order("id ASC").Find(&menus).Error
	return menus, err
}

func (r *MenuRepository) RoleLinks(ctx context.Context, menuIDs []int64) (map[int64][]int64, error) {
	links := make(map[int64][]int64, len(menuIDs))
	if len(menuIDs) == 0 {
		return links, nil
	}
	var rows []menuDatamodel.MenuRole
	err := r.db.WithContext(ctx).Where("menu_id IN ?", menuIDs).Order("role_id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		links[row.MenuID] = append(links[row.MenuID], row.RoleID)
	}
	return links, nil
}

// Update saves the menu columns; a non-nil roleIDs replaces the role links.
func (r *MenuRepository) Update(ctx context.Context, m *menuDatamodel.Menu, roleIDs *[]int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(m).Select("parent_id", "name", "route", "icon", "position").Updates(m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if roleIDs == nil {
			return nil
		}
		if err := tx.Where("menu_id = ?", m.ID).Delete(&menuDatamodel.MenuRole{}).Error; err != nil {
			return err
		}
		return linkRoles(tx, m.ID, *roleIDs)
	})
}

func linkRoles(tx *gorm.DB, menuID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	ids := slices.Compact(slices.Sorted(slices.Values(roleIDs)))
	rows := make([]menuDatamodel.MenuRole, 0, len(ids))
	for _, roleID := range ids {
		rows = append(rows, menuDatamodel.MenuRole{MenuID: menuID, RoleID: roleID})
	}
	return tx.Create(&rows).Error
}
