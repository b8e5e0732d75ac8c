package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
)

const subjectTypeUser = "user"

var entityKinds = map[string]Kind{
	events.EventTypeEntityCreated:  KindCreated,
	events.EventTypeEntityUpdated:  KindUpdated,
	events.EventTypeEntityDeleted:  KindDeleted,
	events.EventTypeEntityRestored: KindRestored,
}

var authKinds = map[string]Kind{
	events.EventTypeAuthLogin:       KindLogin,
	events.EventTypeAuthLogout:      KindLogout,
	events.EventTypeAuthLoginFailed: KindLoginFailed,
}

// Subscriber turns lifecycle and auth events into audit entries.
type Subscriber struct {
	recorder *Recorder
	logger   *slog.Logger
}

func NewSubscriber(recorder *Recorder, logger *slog.Logger) *Subscriber {
	return &Subscriber{recorder: recorder, logger: logger}
}

func (s *Subscriber) Register(bus *events.EventBus) {
	bus.SubscribeAll(s.handleEntity,
		events.EventTypeEntityCreated,
		events.EventTypeEntityUpdated,
		events.EventTypeEntityDeleted,
		events.EventTypeEntityRestored,
	)
	bus.SubscribeAll(s.handleAuth,
		events.EventTypeAuthLogin,
		events.EventTypeAuthLogout,
		events.EventTypeAuthLoginFailed,
	)
}

func (s *Subscriber) handleEntity(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.EntityEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}
	return s.recorder.RecordEntity(ctx, entityKinds[event.EventType()], ev.Before, ev.After)
}

func (s *Subscriber) handleAuth(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.AuthEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	kind := authKinds[event.EventType()]
	e := Entry{
		Kind:     kind,
		Metadata: map[string]any{"guard": ev.Guard},
	}
	if ev.UserID != 0 {
		e.SubjectType = subjectTypeUser
		e.SubjectID = strconv.FormatInt(ev.UserID, 10)
		// A failed attempt on a known account was not made by its owner.
		if kind != KindLoginFailed {
			e.Actor = &Actor{ID: ev.UserID, Email: ev.Email}
		}
	}
	if kind == KindLoginFailed {
		e.Metadata["email"] = ev.Email
		if ev.Reason != "" {
			e.Metadata["reason"] = ev.Reason
		}
	}
	return s.recorder.Record(ctx, e)
}
