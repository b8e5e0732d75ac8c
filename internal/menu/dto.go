package menu

import (
	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/core/common/validation"
)

type CreateMenuDTO struct {
	ParentID *int64  `json:"parent_id,omitempty"`
	Name     string  `json:"name" validate:"required,max=100"`
	Route    string  `json:"route"`
	Icon     string  `json:"icon,omitempty"`
	Position int     `json:"position"`
	RoleIDs  []int64 `json:"role_ids,omitempty"`
}

func (dto *CreateMenuDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("parent_id", dto.ParentID).Positive()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("route", dto.Route).MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateMenuDTO is a partial update. ParentID 0 moves the menu to the top
// level; RoleIDs, when present, replaces the role links.
type UpdateMenuDTO struct {
	ParentID *int64   `json:"parent_id,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Route    *string  `json:"route,omitempty"`
	Icon     *string  `json:"icon,omitempty"`
	Position *int     `json:"position,omitempty"`
	RoleIDs  *[]int64 `json:"role_ids,omitempty"`
}

func (dto *UpdateMenuDTO) Validate() error {
	v := validation.NewValidator()
	if dto.ParentID != nil {
		v.Field("parent_id", *dto.ParentID).MinInt(0, internal.ErrCodeInvalidReference)
	}
	if dto.Name != nil {
		v.Field("name", dto.Name).Required().MaxLength(100)
	}
	v.Field("route", dto.Route).MaxLength(255)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
