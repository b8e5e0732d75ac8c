package checklist

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/fleet-backoffice/internal"
	checklistDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/checklist"
	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
)

type RepositoryAPI interface {
	Create(ctx context.Context, c *checklistDatamodel.Checklist) error
	GetByID(ctx context.Context, id int64) (*checklistDatamodel.Checklist, error)
	GetDeleted(ctx context.Context, id int64) (*checklistDatamodel.Checklist, error)
	List(ctx context.Context, filter ListFilter) ([]*checklistDatamodel.Checklist, error)
	Update(ctx context.Context, c *checklistDatamodel.Checklist) error
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

// Publisher is the part of the event bus the service needs. Lifecycle events
// are published synchronously so the audit entry joins the request's batch.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo   RepositoryAPI
	events Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, dto *CreateChecklistDTO) (*Checklist, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c := &Checklist{
		VehicleID: dto.VehicleID,
		Title:     dto.Title,
		Status:    StatusPending,
		Notes:     dto.Notes,
	}
	if dto.Status != "" {
		c.Status = Status(dto.Status)
	}
	if id, ok := tenant.IDFromContext(ctx); ok {
		c.TenantID = id
	}
	if p, ok := internal.PrincipalFromContext(ctx); ok {
		c.CreatedBy = &p.ID
	}

	dm := ToDataModel(c)
	if err := s.repo.Create(ctx, dm); err != nil {
		s.logger.Error("failed to create checklist", "error", err, "vehicle_id", dto.VehicleID)
		return nil, internal.NewInternalError("failed to create checklist", err)
	}
	created := FromDataModel(dm)

	s.publish(ctx, events.EntityCreated(created))
	s.logger.Info("checklist created", "checklist_id", created.ID, "vehicle_id", created.VehicleID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Checklist, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load checklist", "error", err, "checklist_id", id)
		return nil, internal.NewInternalError("failed to load checklist", err)
	}
	if dm == nil {
		return nil, internal.ErrChecklistNotFound
	}
	return FromDataModel(dm), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Checklist, error) {
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list checklists", "error", err)
		return nil, internal.NewInternalError("failed to list checklists", err)
	}
	out := make([]*Checklist, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateChecklistDTO) (*Checklist, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	after := *before
	if dto.Title != nil {
		after.Title = *dto.Title
	}
	if dto.Status != nil {
		after.Status = Status(*dto.Status)
	}
	if dto.Notes != nil {
		after.Notes = *dto.Notes
	}

	dm := ToDataModel(&after)
	if err := s.repo.Update(ctx, dm); err != nil {
		s.logger.Error("failed to update checklist", "error", err, "checklist_id", id)
		return nil, internal.NewInternalError("failed to update checklist", err)
	}
	updated := FromDataModel(dm)

	s.publish(ctx, events.EntityUpdated(before, updated))
	s.logger.Info("checklist updated", "checklist_id", id, "status", updated.Status)
	return updated, nil
}

// Delete soft-deletes the checklist; Restore brings it back.
func (s *Service) Delete(ctx context.Context, id int64) error {
	before, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete checklist", "error", err, "checklist_id", id)
		return internal.NewInternalError("failed to delete checklist", err)
	}

	s.publish(ctx, events.EntityDeleted(before))
	s.logger.Info("checklist deleted", "checklist_id", id)
	return nil
}

func (s *Service) Restore(ctx context.Context, id int64) (*Checklist, error) {
	dm, err := s.repo.GetDeleted(ctx, id)
	if err != nil {
		s.logger.Error("failed to load deleted checklist", "error", err, "checklist_id", id)
		return nil, internal.NewInternalError("failed to load checklist", err)
	}
	if dm == nil {
		return nil, internal.ErrChecklistNotFound
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		s.logger.Error("failed to restore checklist", "error", err, "checklist_id", id)
		return nil, internal.NewInternalError("failed to restore checklist", err)
	}

	restored := FromDataModel(dm)
	restored.DeletedAt = nil
	s.publish(ctx, events.EntityRestored(restored))
	s.logger.Info("checklist restored", "checklist_id", id)
	return restored, nil
}

// publish never fails the mutation; the entity is already persisted.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.Warn("checklist event handlers failed", "event", event.EventType(), "error", err)
	}
}

func validateStatus(status string) error {
	switch Status(status) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return nil
	}
	return internal.NewValidationFieldError("status", "status must be one of pending, in_progress, completed", internal.ErrCodeInvalidStatus)
}
