package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/fleet-backoffice/internal/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository reads roles through the tenant scope, so a tenant sees its
// own roles plus the global ones. Pivot tables carry no tenant column and
// are always reached through a scoped role or user.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

var _ role.RepositoryAPI = (*RoleRepository)(nil)

func (r *RoleRepository) Create(ctx context.Context, dm *userDatamodel.Role, permissionIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dm).Error; err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		rows := make([]userDatamodel.RolePermission, 0, len(permissionIDs))
		for _, id := range permissionIDs {
			rows = append(rows, userDatamodel.RolePermission{RoleID: dm.ID, PermissionID: id})
		}
		return tx.Create(&rows).Error
	})
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.Role, error) {
	var dm userDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dm, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name, guard string) (*userDatamodel.Role, error) {
	var dm userDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ? AND guard = ?", name, guard).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dm, nil
}

func (r *RoleRepository) PermissionKeys(ctx context.Context, roleID int64) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&userDatamodel.Permission{}).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", roleID).
		Order("permissions.key ASC").
		Pluck("permissions.key", &keys).Error
	return keys, err
}

func (r *RoleRepository) FindPermissions(ctx context.Context, keys []string) ([]*userDatamodel.Permission, error) {
	if len(keys) == 0 {
		return []*userDatamodel.Permission{}, nil
	}
	var perms []*userDatamodel.Permission
	err := r.db.WithContext(ctx).Where("key IN ?", keys).Order("key ASC").Find(&perms).Error
	return perms, err
}

func (r *RoleRepository) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userDatamodel.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error
}

func (r *RoleRepository) RevokePermission(ctx context.Context, roleID, permissionID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&userDatamodel.RolePermission{})
	return res.RowsAffected > 0, res.Error
}

func (r *RoleRepository) GetUser(ctx context.Context, userID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *RoleRepository) RoleIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.Role{}).
		Joins("JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Order("roles.id ASC").
		Pluck("roles.id", &ids).Error
	return ids, err
}

func (r *RoleRepository) ListForUser(ctx context.Context, userID int64) ([]*userDatamodel.Role, error) {
	var roles []*userDatamodel.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Order("roles.name ASC").
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&userDatamodel.UserRole{UserID: userID, RoleID: roleID}).Error
}

func (r *RoleRepository) UnassignRole(ctx context.Context, userID, roleID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&userDatamodel.UserRole{})
	return res.RowsAffected > 0, res.Error
}
