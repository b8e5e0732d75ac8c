package role

import (
	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/core/common/validation"
)

type CreateRoleDTO struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Guard       string   `json:"guard,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (dto *CreateRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("guard", dto.Guard).MaxLength(50)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type GrantPermissionDTO struct {
	Key string `json:"key" validate:"required"`
}

func (dto *GrantPermissionDTO) Validate() error {
	if dto.Key == "" {
		return internal.NewValidationFieldError("key", "key is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type AssignRoleDTO struct {
	RoleID int64 `json:"role_id" validate:"required"`
}

func (dto *AssignRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("role_id", dto.RoleID).Required().Positive()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
