package postgres

import (
	"context"

	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const effectiveKeysQuery = `
SELECT p.key FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
JOIN roles r ON r.id = ur.role_id
JOIN users u ON u.id = ur.user_id
WHERE ur.user_id = ? AND (r.tenant_id IS NULL OR r.tenant_id = u.tenant_id)
UNION
SELECT p.key FROM permissions p
JOIN user_permissions up ON up.permission_id = p.id
WHERE up.user_id = ?`

type PermissionStore struct {
	db *gorm.DB
}

func NewPermissionStore(db *gorm.DB) *PermissionStore {
	return &PermissionStore{db: db}
}

var _ permission.Source = (*PermissionStore)(nil)

// PermissionKeys unions role keys (global roles and roles in the user's own
// tenant) with direct grants.
func (s *PermissionStore) PermissionKeys(ctx context.Context, userID int64) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Raw(effectiveKeysQuery, userID, userID).Scan(&keys).Error
	return keys, err
}

func (s *PermissionStore) StoredKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&userDatamodel.Permission{}).Order("key ASC").Pluck("key", &keys).Error
	return keys, err
}

func (s *PermissionStore) GetByKey(ctx context.Context, key string) (*userDatamodel.Permission, error) {
	var p userDatamodel.Permission
	err := s.db.WithContext(ctx).Where("key = ?", key).Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

// Sync inserts every registry key missing from storage and returns how many
// rows were added. Existing rows are left alone.
func (s *PermissionStore) Sync(ctx context.Context, registry *permission.Registry, guard string) (int64, error) {
	keys := registry.Keys()
	rows := make([]userDatamodel.Permission, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, userDatamodel.Permission{Key: string(k), Guard: guard, Description: registry.Description(k)})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).Create(&rows)
	return res.RowsAffected, res.Error
}
