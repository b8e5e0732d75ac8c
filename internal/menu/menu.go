package menu

import (
	"slices"
	"strconv"
	"time"

	menuDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/menu"
)

const SubjectType = "menu"

type Menu struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	Route     string    `json:"route"`
	Icon      string    `json:"icon,omitempty"`
	Position  int       `json:"position"`
	RoleIDs   []int64   `json:"role_ids"`
	Children  []*Menu   `json:"children,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Menu) AuditSubject() (string, string) {
	return SubjectType, strconv.FormatInt(m.ID, 10)
}

func (m *Menu) AuditHidden() []string {
	return []string{"children", "created_at", "updated_at"}
}

// VisibleTo reports whether any of roleIDs unlocks the menu. A menu with no
// role links is visible to every authenticated user.
func (m *Menu) VisibleTo(roleIDs []int64) bool {
	if len(m.RoleIDs) == 0 {
		return true
	}
	for _, id := range roleIDs {
		if slices.Contains(m.RoleIDs, id) {
			return true
		}
	}
	return false
}

func ToDataModel(m *Menu) *menuDatamodel.Menu {
	return &menuDatamodel.Menu{
		ID:        m.ID,
		TenantID:  m.TenantID,
		ParentID:  m.ParentID,
		Name:      m.Name,
		Route:     m.Route,
		Icon:      m.Icon,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromDataModel(dm *menuDatamodel.Menu, roleIDs []int64) *Menu {
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	return &Menu{
		ID:        dm.ID,
		TenantID:  dm.TenantID,
		ParentID:  dm.ParentID,
		Name:      dm.Name,
		Route:     dm.Route,
		Icon:      dm.Icon,
		Position:  dm.Position,
		RoleIDs:   roleIDs,
		CreatedAt: dm.CreatedAt,
		UpdatedAt: dm.UpdatedAt,
	}
}

// BuildTree nests menus under their parents, ordered by position then id.
// Menus whose parent is absent from the input are dropped, so a hidden
// parent hides its subtree.
func BuildTree(menus []*Menu) []*Menu {
	byID := make(map[int64]*Menu, len(menus))
	for _, m := range menus {
		m.Children = nil
		byID[m.ID] = m
	}

	var roots []*Menu
	for _, m := range menus {
		if m.ParentID == nil {
			roots = append(roots, m)
			continue
		}
		if parent, ok := byID[*m.ParentID]; ok {
			parent.Children = append(parent.Children, m)
		}
	}

	sortMenus(roots)
	if roots == nil {
		roots = []*Menu{}
	}
	return roots
}

func sortMenus(menus []*Menu) {
	slices.SortFunc(menus, func(a, b *Menu) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return int(a.ID - b.ID)
	})
	for _, m := range menus {
		sortMenus(m.Children)
	}
}
