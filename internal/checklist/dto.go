package checklist

import (
	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/core/common/validation"
)

type CreateChecklistDTO struct {
	VehicleID int64  `json:"vehicle_id" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	Status    string `json:"status,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (dto *CreateChecklistDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("vehicle_id", dto.VehicleID).Required().Positive()
	v.Field("title", dto.Title).Required().MaxLength(200)
	if dto.Status != "" {
		v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, Statuses...)
	}
	v.Field("notes", dto.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateChecklistDTO is a partial update; nil fields are left untouched.
type UpdateChecklistDTO struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

func (dto *UpdateChecklistDTO) Validate() error {
	if dto.Title == nil && dto.Status == nil && dto.Notes == nil {
		return internal.NewValidationError("at least one field must be provided", internal.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	if dto.Title != nil {
		v.Field("title", dto.Title).Required().MaxLength(200)
	}
	v.Field("status", dto.Status).OneOf(internal.ErrCodeInvalidStatus, Statuses...)
	v.Field("notes", dto.Notes).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	VehicleID int64
	Status    string
	Limit     int
	Offset    int
}

type ListResponse struct {
	Checklists []*Checklist `json:"checklists"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
}
