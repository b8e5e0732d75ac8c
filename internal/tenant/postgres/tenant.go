package postgres

import (
	"context"
	"errors"

	tenantDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/tenant"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) tenant.RepositoryAPI {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*tenantDatamodel.Tenant, error) {
	var t tenantDatamodel.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenantDatamodel.Tenant, error) {
	var t tenantDatamodel.Tenant
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) ListBranches(ctx context.Context, parentID int64) ([]*tenantDatamodel.Tenant, error) {
	var branches []*tenantDatamodel.Tenant
	err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("id ASC").Find(&branches).Error
	return branches, err
}

func (r *TenantRepository) Create(ctx context.Context, t *tenantDatamodel.Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// UpdateStatus reports false when no tenant has the id.
func (r *TenantRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&tenantDatamodel.Tenant{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected > 0, res.Error
}

// Delete removes the tenant and any branches under it in one transaction. It
// reports false, and removes nothing, when no tenant has the id.
func (r *TenantRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&tenantDatamodel.Tenant{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		found = true
		return tx.Where("parent_id = ?", id).Delete(&tenantDatamodel.Tenant{}).Error
	})
	return found && err == nil, err
}
