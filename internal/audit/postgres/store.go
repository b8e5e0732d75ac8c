package postgres

import (
	"context"

	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	auditDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditStore struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

var (
	_ audit.Store  = (*AuditStore)(nil)
	_ audit.Reader = (*AuditStore)(nil)
)

func (s *AuditStore) Save(ctx context.Context, row *auditDatamodel.AuditLog) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *AuditStore) List(ctx context.Context, f audit.Filter) ([]*auditDatamodel.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&auditDatamodel.AuditLog{})
	if f.Event != "" {
		q = q.Where("event = ?", f.Event)
	}
	if f.SubjectType != "" {
		q = q.Where("subject_type = ?", f.SubjectType)
	}
	if f.SubjectID != "" {
		q = q.Where("subject_id = ?", f.SubjectID)
	}
	if f.ActorID != nil {
		q = q.Where("actor_id = ?", *f.ActorID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []*auditDatamodel.AuditLog
	err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}
