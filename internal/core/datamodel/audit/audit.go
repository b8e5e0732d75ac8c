package audit

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrImmutable = errors.New("audit log rows are append-only")

type AuditLog struct {
	ID            string         `gorm:"column:id;primaryKey"`
	TenantID      *int64         `gorm:"column:tenant_id;index"`
	Event         string         `gorm:"column:event;not null;index"`
	SubjectType   string         `gorm:"column:subject_type;index:idx_audit_subject"`
	SubjectID     string         `gorm:"column:subject_id;index:idx_audit_subject"`
	ActorID       *int64         `gorm:"column:actor_id;index"`
	ActorEmail    string         `gorm:"column:actor_email"`
	OldValues     map[string]any `gorm:"column:old_values;serializer:json"`
	NewValues     map[string]any `gorm:"column:new_values;serializer:json"`
	ChangedFields []string       `gorm:"column:changed_fields;serializer:json"`
	Metadata      map[string]any `gorm:"column:metadata;serializer:json"`
	IPAddress     string         `gorm:"column:ip_address"`
	UserAgent     string         `gorm:"column:user_agent"`
	Route         string         `gorm:"column:route"`
	Method        string         `gorm:"column:method"`
	RequestID     string         `gorm:"column:request_id"`
	CreatedAt     time.Time      `gorm:"column:created_at;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutable
}

func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutable
}
