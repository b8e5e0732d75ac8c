package audit

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"github.com/google/uuid"
)

// Scheduler accepts validated entries for persistence off the request path.
type Scheduler interface {
	Enqueue(ctx context.Context, e Entry) bool
}

type Recorder struct {
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

func NewRecorder(scheduler Scheduler, logger *slog.Logger) *Recorder {
	return &Recorder{
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Record validates e, fills actor, tenant and request metadata from ctx,
// and schedules it. Only validation errors are returned; persistence
// happens later and its failures never reach the caller.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if appErr := e.Validate(); appErr != nil {
		metrics.AuditEntries.WithLabelValues("invalid").Inc()
		r.logger.Warn("rejected audit entry", "kind", e.Kind, "subject_type", e.SubjectType, "error", appErr.DetailedMessage())
		return appErr
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.now().UTC()
	}
	if e.Actor == nil {
		if p, ok := internal.PrincipalFromContext(ctx); ok {
			e.Actor = &Actor{ID: p.ID, Email: p.Email}
		}
	}
	if e.TenantID == nil {
		if id, ok := tenant.IDFromContext(ctx); ok {
			e.TenantID = &id
		}
	}
	if e.Meta == nil {
		e.Meta = RequestMetaFromContext(ctx)
	}
	if e.Kind == KindUpdated {
		e.ChangedFields = ChangedFields(e.Before, e.After)
	}

	if b := batchFrom(ctx); b != nil {
		b.add(ctx, e)
		return nil
	}
	r.scheduler.Enqueue(ctx, e)
	return nil
}

// RecordEntity snapshots before and after, takes the subject from whichever
// implements Auditable, and merges MetadataProvider output into Metadata.
func (r *Recorder) RecordEntity(ctx context.Context, kind Kind, before, after any) error {
	var e Entry
	e.Kind = kind

	for _, v := range []any{after, before} {
		if s, ok := v.(Auditable); ok && !isNilEntity(v) {
			e.SubjectType, e.SubjectID = s.AuditSubject()
			break
		}
	}

	var err error
	if e.Before, err = Snapshot(before); err != nil {
		return internal.NewInternalError("failed to snapshot audit subject", err)
	}
	if e.After, err = Snapshot(after); err != nil {
		return internal.NewInternalError("failed to snapshot audit subject", err)
	}
	e.Metadata = mergeMetadata(nil, before, after)

	return r.Record(ctx, e)
}

func isNilEntity(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
