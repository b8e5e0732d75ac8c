package audit

import (
	"context"
	"net/http"
	"sync"
)

type batch struct {
	mu   sync.Mutex
	jobs []job
}

func (b *batch) add(ctx context.Context, e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, job{ctx: ctx, entry: e})
}

func (b *batch) drain() []job {
	b.mu.Lock()
	defer b.mu.Unlock()
	jobs := b.jobs
	b.jobs = nil
	return jobs
}

func batchFrom(ctx context.Context) *batch {
	b, _ := ctx.Value(batchKey).(*batch)
	return b
}

// WithBatch makes Record hold entries until Flush instead of scheduling them
// immediately.
func WithBatch(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey, &batch{})
}

// Flush hands every held entry to s. It is a no-op without a batch.
func Flush(ctx context.Context, s Scheduler) int {
	b := batchFrom(ctx)
	if b == nil {
		return 0
	}
	jobs := b.drain()
	for _, j := range jobs {
		s.Enqueue(j.ctx, j.entry)
	}
	return len(jobs)
}

// Deferred holds a request's audit entries until its handler has returned,
// then passes them to the scheduler. Entries are flushed even if the
// handler panics.
func Deferred(s Scheduler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithBatch(r.Context())
			ctx = WithRequestMeta(ctx, MetaFromRequest(r))
			defer Flush(ctx, s)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
