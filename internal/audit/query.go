package audit

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal"
	auditDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/audit"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type Filter struct {
	Event       string
	SubjectType string
	SubjectID   string
	ActorID     *int64
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// Reader lists stored rows ordered by created_at, then id.
type Reader interface {
	List(ctx context.Context, f Filter) ([]*auditDatamodel.AuditLog, error)
}

func ParseFilter(q url.Values) (Filter, *internal.AppError) {
	f := Filter{
		Event:       q.Get("event"),
		SubjectType: q.Get("subject_type"),
		SubjectID:   q.Get("subject_id"),
		Limit:       defaultPageSize,
	}

	if f.Event != "" && !Kind(f.Event).Valid() {
		return f, internal.NewValidationFieldError("event", "unknown audit event", internal.ErrCodeValidationFailed)
	}
	if v := q.Get("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, internal.NewValidationFieldError("actor_id", "actor_id must be numeric", internal.ErrCodeValidationFailed)
		}
		f.ActorID = &id
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if v := q.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, internal.NewValidationFieldError(p.name, "timestamps must be RFC3339", internal.ErrCodeValidationFailed)
			}
			*p.dst = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, internal.NewValidationFieldError("limit", "limit must be a positive integer", internal.ErrCodeValidationFailed)
		}
		f.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, internal.NewValidationFieldError("offset", "offset must be zero or more", internal.ErrCodeValidationFailed)
		}
		f.Offset = n
	}
	return f, nil
}
