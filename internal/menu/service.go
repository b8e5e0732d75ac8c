package menu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/fleet-backoffice/internal"
	menuDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/menu"
	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
)

type RepositoryAPI interface {
	Create(ctx context.Context, m *menuDatamodel.Menu, roleIDs []int64) error
	GetByID(ctx context.Context, id int64) (*menuDatamodel.Menu, error)
	List(ctx context.Context) ([]*menuDatamodel.Menu, error)
	RoleLinks(ctx context.Context, menuIDs []int64) (map[int64][]int64, error)
	Update(ctx context.Context, m *menuDatamodel.Menu, roleIDs *[]int64) error
}

// RoleLookup yields the role ids a user holds, used for menu visibility.
type RoleLookup interface {
	RoleIDsForUser(ctx context.Context, userID int64) ([]int64, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo   RepositoryAPI
	roles  RoleLookup
	events Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleLookup, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		roles:  roles,
		events: publisher,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, dto *CreateMenuDTO) (*Menu, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.ParentID != nil {
		if err := s.checkParent(ctx, 0, *dto.ParentID); err != nil {
			return nil, err
		}
	}

	m := &Menu{
		ParentID: dto.ParentID,
		Name:     dto.Name,
		Route:    dto.Route,
		Icon:     dto.Icon,
		Position: dto.Position,
	}
	if id, ok := tenant.IDFromContext(ctx); ok {
		m.TenantID = id
	}

	dm := ToDataModel(m)
	if err := s.repo.Create(ctx, dm, dto.RoleIDs); err != nil {
		s.logger.Error("failed to create menu", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create menu", err)
	}
	created := FromDataModel(dm, dto.RoleIDs)

	s.publish(ctx, events.EntityCreated(created))
	s.logger.Info("menu created", "menu_id", created.ID, "parent_id", created.ParentID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateMenuDTO) (*Menu, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	// Tree checks run before anything is loaded or written.
	if dto.ParentID != nil && *dto.ParentID == id {
		return nil, internal.NewValidationError("a menu cannot be its own parent", internal.ErrCodeMenuSelfParent).
			WithDetails(map[string]int64{"menu_id": id, "parent_id": id})
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	after := *before
	if dto.ParentID != nil {
		if *dto.ParentID == 0 {
			after.ParentID = nil
		} else {
			if err := s.checkParent(ctx, id, *dto.ParentID); err != nil {
				return nil, err
			}
			parentID := *dto.ParentID
			after.ParentID = &parentID
		}
	}
	if dto.Name != nil {
		after.Name = *dto.Name
	}
	if dto.Route != nil {
		after.Route = *dto.Route
	}
	if dto.Icon != nil {
		after.Icon = *dto.Icon
	}
	if dto.Position != nil {
		after.Position = *dto.Position
	}
	if dto.RoleIDs != nil {
		after.RoleIDs = append([]int64{}, *dto.RoleIDs...)
	}

	dm := ToDataModel(&after)
	if err := s.repo.Update(ctx, dm, dto.RoleIDs); err != nil {
		s.logger.Error("failed to update menu", "error", err, "menu_id", id)
		return nil, internal.NewInternalError("failed to update menu", err)
	}
	updated := FromDataModel(dm, after.RoleIDs)

	s.publish(ctx, events.EntityUpdated(before, updated))
	s.logger.Info("menu updated", "menu_id", id)
	return updated, nil
}

// checkParent verifies parentID exists and that id is not among its
// ancestors. id is zero for a menu that does not exist yet.
func (s *Service) checkParent(ctx context.Context, id, parentID int64) error {
	seen := make(map[int64]bool)
	current := parentID
	for {
		if id != 0 && current == id {
			return internal.NewValidationError(
				fmt.Sprintf("menu %d cannot be moved under its own descendant %d", id, parentID),
				internal.ErrCodeMenuCycle,
			).WithDetails(map[string]int64{"menu_id": id, "parent_id": parentID})
		}
		if seen[current] {
			s.logger.Warn("menu tree already contains a cycle", "menu_id", current)
			return internal.NewValidationError("menu tree contains a cycle", internal.ErrCodeMenuCycle)
		}
		seen[current] = true

		node, err := s.repo.GetByID(ctx, current)
		if err != nil {
			s.logger.Error("failed to load menu ancestor", "error", err, "menu_id", current)
			return internal.NewInternalError("failed to validate menu parent", err)
		}
		if node == nil {
			if current == parentID {
				return internal.NewValidationFieldError("parent_id", "parent menu does not exist", internal.ErrCodeInvalidReference)
			}
			return nil
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Menu, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load menu", "error", err, "menu_id", id)
		return nil, internal.NewInternalError("failed to load menu", err)
	}
	if dm == nil {
		return nil, internal.ErrMenuNotFound
	}
	links, err := s.repo.RoleLinks(ctx, []int64{id})
	if err != nil {
		s.logger.Error("failed to load menu roles", "error", err, "menu_id", id)
		return nil, internal.NewInternalError("failed to load menu", err)
	}
	return FromDataModel(dm, links[id]), nil
}

// VisibleFor returns the menu tree filtered to the roles userID holds.
func (s *Service) VisibleFor(ctx context.Context, userID int64) ([]*Menu, error) {
	roleIDs, err := s.roles.RoleIDsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user roles", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load menus", err)
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]*Menu, 0, len(all))
	for _, m := range all {
		if m.VisibleTo(roleIDs) {
			visible = append(visible, m)
		}
	}
	return BuildTree(visible), nil
}

func (s *Service) all(ctx context.Context) ([]*Menu, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list menus", "error", err)
		return nil, internal.NewInternalError("failed to load menus", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	links, err := s.repo.RoleLinks(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load menu roles", "error", err)
		return nil, internal.NewInternalError("failed to load menus", err)
	}
	out := make([]*Menu, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row, links[row.ID]))
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.Warn("menu event handlers failed", "event", event.EventType(), "error", err)
	}
}
