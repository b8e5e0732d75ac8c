package audit

import (
	"fmt"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal"
	auditDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/audit"
)

type Kind string

const (
	KindCreated     Kind = "created"
	KindUpdated     Kind = "updated"
	KindDeleted     Kind = "deleted"
	KindRestored    Kind = "restored"
	KindLogin       Kind = "login"
	KindLogout      Kind = "logout"
	KindLoginFailed Kind = "login_failed"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindUpdated, KindDeleted, KindRestored, KindLogin, KindLogout, KindLoginFailed:
		return true
	}
	return false
}

type Actor struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// RequestMeta describes the request a mutation happened in.
type RequestMeta struct {
	IP        string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Route     string `json:"route"`
	Method    string `json:"method"`
	RequestID string `json:"request_id"`
}

// Entry is one audit record before persistence. SubjectType and SubjectID
// identify the audited row polymorphically; nothing references it by FK.
type Entry struct {
	ID            string
	Kind          Kind
	SubjectType   string
	SubjectID     string
	TenantID      *int64
	Actor         *Actor
	Before        map[string]any
	After         map[string]any
	ChangedFields []string
	Meta          *RequestMeta
	Metadata      map[string]any
	OccurredAt    time.Time
}

func (e *Entry) Validate() *internal.AppError {
	if !e.Kind.Valid() {
		return internal.NewValidationFieldError("kind", fmt.Sprintf("unknown audit kind %q", e.Kind), internal.ErrCodeValidationFailed)
	}

	if e.Kind != KindLoginFailed && (e.SubjectType == "" || e.SubjectID == "") {
		return internal.NewValidationFieldError("subject", "subject type and id are required", internal.ErrCodeValidationFailed)
	}

	switch e.Kind {
	case KindCreated:
		if e.After == nil {
			return internal.NewValidationFieldError("after", "a created entry needs the new state", internal.ErrCodeValidationFailed)
		}
		if e.Before != nil {
			return internal.NewValidationFieldError("before", "a created entry has no previous state", internal.ErrCodeValidationFailed)
		}
	case KindUpdated:
		if e.Before == nil || e.After == nil {
			return internal.NewValidationFieldError("before", "an updated entry needs both states", internal.ErrCodeValidationFailed)
		}
	case KindDeleted:
		if e.Before == nil {
			return internal.NewValidationFieldError("before", "a deleted entry needs the removed state", internal.ErrCodeValidationFailed)
		}
	case KindRestored:
		if e.After == nil {
			return internal.NewValidationFieldError("after", "a restored entry needs the restored state", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

func ToDataModel(e *Entry) *auditDatamodel.AuditLog {
	row := &auditDatamodel.AuditLog{
		ID:            e.ID,
		TenantID:      e.TenantID,
		Event:         string(e.Kind),
		SubjectType:   e.SubjectType,
		SubjectID:     e.SubjectID,
		OldValues:     e.Before,
		NewValues:     e.After,
		ChangedFields: e.ChangedFields,
		Metadata:      e.Metadata,
		CreatedAt:     e.OccurredAt,
	}
	if e.Actor != nil {
		id := e.Actor.ID
		row.ActorID = &id
		row.ActorEmail = e.Actor.Email
	}
	if e.Meta != nil {
		row.IPAddress = e.Meta.IP
		row.UserAgent = e.Meta.UserAgent
		row.Route = e.Meta.Route
		row.Method = e.Meta.Method
		row.RequestID = e.Meta.RequestID
	}
	return row
}
