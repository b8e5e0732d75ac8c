package checklist

import (
	"strconv"
	"time"

	checklistDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/checklist"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

const SubjectType = "checklist"

var Statuses = []string{string(StatusPending), string(StatusInProgress), string(StatusCompleted)}

type Checklist struct {
	ID        int64      `json:"id"`
	TenantID  int64      `json:"tenant_id"`
	VehicleID int64      `json:"vehicle_id"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Notes     string     `json:"notes"`
	CreatedBy *int64     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (c *Checklist) AuditSubject() (string, string) {
	return SubjectType, strconv.FormatInt(c.ID, 10)
}

func (c *Checklist) AuditMetadata() map[string]any {
	return map[string]any{"vehicle_id": c.VehicleID}
}

// AuditHidden drops bookkeeping timestamps so an update's changed fields
// list only what the caller changed.
func (c *Checklist) AuditHidden() []string {
	return []string{"created_at", "updated_at", "deleted_at"}
}

func (c *Checklist) IsDeleted() bool {
	return c.DeletedAt != nil
}

func ToDataModel(c *Checklist) *checklistDatamodel.Checklist {
	dm := &checklistDatamodel.Checklist{
		ID:        c.ID,
		TenantID:  c.TenantID,
		VehicleID: c.VehicleID,
		Title:     c.Title,
		Status:    string(c.Status),
		Notes:     c.Notes,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.DeletedAt != nil {
		dm.DeletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	}
	return dm
}

func FromDataModel(dm *checklistDatamodel.Checklist) *Checklist {
	c := &Checklist{
		ID:        dm.ID,
		TenantID:  dm.TenantID,
		VehicleID: dm.VehicleID,
		Title:     dm.Title,
		Status:    Status(dm.Status),
		Notes:     dm.Notes,
		CreatedBy: dm.CreatedBy,
		CreatedAt: dm.CreatedAt,
		UpdatedAt: dm.UpdatedAt,
	}
	if dm.DeletedAt.Valid {
		t := dm.DeletedAt.Time
		c.DeletedAt = &t
	}
	return c
}
