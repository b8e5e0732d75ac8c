package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEntityCreated  = "entity.created"
	EventTypeEntityUpdated  = "entity.updated"
	EventTypeEntityDeleted  = "entity.deleted"
	EventTypeEntityRestored = "entity.restored"

	EventTypeAuthLogin       = "auth.login"
	EventTypeAuthLogout      = "auth.logout"
	EventTypeAuthLoginFailed = "auth.login_failed"
)

// EntityEvent carries a domain entity's state around a mutation. Before is
// nil on create and After is nil on delete.
type EntityEvent struct {
	BaseEvent
	Before any `json:"before,omitempty"`
	After  any `json:"after,omitempty"`
}

func NewEntityEvent(eventType string, before, after any) *EntityEvent {
	return &EntityEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]any{
				"before": before,
				"after":  after,
			},
		},
		Before: before,
		After:  after,
	}
}

func EntityCreated(entity any) *EntityEvent {
	return NewEntityEvent(EventTypeEntityCreated, nil, entity)
}

func EntityUpdated(before, after any) *EntityEvent {
	return NewEntityEvent(EventTypeEntityUpdated, before, after)
}

func EntityDeleted(entity any) *EntityEvent {
	return NewEntityEvent(EventTypeEntityDeleted, entity, nil)
}

func EntityRestored(entity any) *EntityEvent {
	return NewEntityEvent(EventTypeEntityRestored, nil, entity)
}

type AuthEvent struct {
	BaseEvent
	UserID int64  `json:"user_id,omitempty"`
	Email  string `json:"email"`
	Guard  string `json:"guard"`
	Reason string `json:"reason,omitempty"`
}

func NewAuthEvent(eventType string, userID int64, email, guard, reason string) *AuthEvent {
	return &AuthEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]any{
				"user_id": userID,
				"email":   email,
				"guard":   guard,
				"reason":  reason,
			},
		},
		UserID: userID,
		Email:  email,
		Guard:  guard,
		Reason: reason,
	}
}
