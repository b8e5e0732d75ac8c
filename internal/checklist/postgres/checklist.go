package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/fleet-backoffice/internal/checklist"
	checklistDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/checklist"
	"gorm.io/gorm"
)

// ChecklistRepository relies on the tenant scope callback for isolation;
// none of its queries name tenant_id.
type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) checklist.RepositoryAPI {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) Create(ctx context.Context, c *checklistDatamodel.Checklist) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ChecklistRepository) GetByID(ctx context.Context, id int64) (*checklistDatamodel.Checklist, error) {
	var c checklistDatamodel.Checklist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetDeleted finds a soft-deleted checklist; live rows are not returned.
func (r *ChecklistRepository) GetDeleted(ctx context.Context, id int64) (*checklistDatamodel.Checklist, error) {
	var c checklistDatamodel.Checklist
	err := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChecklistRepository) List(ctx context.Context, filter checklist.ListFilter) ([]*checklistDatamodel.Checklist, error) {
	var rows []*checklistDatamodel.Checklist
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if filter.VehicleID > 0 {
		q = q.Where("vehicle_id = ?", filter.VehicleID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *ChecklistRepository) Update(ctx context.Context, c *checklistDatamodel.Checklist) error {
	res := r.db.WithContext(ctx).Model(c).Select("title", "status", "notes").Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ChecklistRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&checklistDatamodel.Checklist{}).Error
}

func (r *ChecklistRepository) Restore(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&checklistDatamodel.Checklist{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}
