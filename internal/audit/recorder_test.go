package audit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type inspection struct {
	ID        int64  `json:"id"`
	VehicleID int64  `json:"vehicle_id"`
	Status    string `json:"status"`
	Secret    string `json:"secret"`
}

func (i *inspection) AuditSubject() (string, string) {
	return "inspection", strconv.FormatInt(i.ID, 10)
}

func (i *inspection) AuditMetadata() map[string]any {
	return map[string]any{"vehicle_id": i.VehicleID}
}

func (i *inspection) AuditHidden() []string {
	return []string{"secret"}
}

var _ = Describe("Recorder", func() {
	var (
		ctx       context.Context
		scheduler *MockScheduler
		recorder  *audit.Recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		scheduler = &MockScheduler{}
		recorder = audit.NewRecorder(scheduler, quietLogger())
	})

	DescribeTable("validation",
		func(e audit.Entry, valid bool) {
			err := recorder.Record(ctx, e)
			if valid {
				Expect(err).NotTo(HaveOccurred())
				Expect(scheduler.Entries()).To(HaveLen(1))
				return
			}
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(scheduler.Entries()).To(BeEmpty())
		},
		Entry("created with after", audit.Entry{Kind: audit.KindCreated, SubjectType: "checklist", SubjectID: "1", After: map[string]any{"a": 1}}, true),
		Entry("created without after", audit.Entry{Kind: audit.KindCreated, SubjectType: "checklist", SubjectID: "1"}, false),
		Entry("created with before", audit.Entry{Kind: audit.KindCreated, SubjectType: "checklist", SubjectID: "1", Before: map[string]any{}, After: map[string]any{}}, false),
		Entry("updated with both", audit.Entry{Kind: audit.KindUpdated, SubjectType: "checklist", SubjectID: "1", Before: map[string]any{}, After: map[string]any{}}, true),
		Entry("updated missing before", audit.Entry{Kind: audit.KindUpdated, SubjectType: "checklist", SubjectID: "1", After: map[string]any{}}, false),
		Entry("deleted with before", audit.Entry{Kind: audit.KindDeleted, SubjectType: "checklist", SubjectID: "1", Before: map[string]any{}}, true),
		Entry("deleted without before", audit.Entry{Kind: audit.KindDeleted, SubjectType: "checklist", SubjectID: "1"}, false),
		Entry("restored without after", audit.Entry{Kind: audit.KindRestored, SubjectType: "checklist", SubjectID: "1"}, false),
		Entry("login", audit.Entry{Kind: audit.KindLogin, SubjectType: "user", SubjectID: "4"}, true),
		Entry("login without subject", audit.Entry{Kind: audit.KindLogin}, false),
		Entry("login_failed without subject", audit.Entry{Kind: audit.KindLoginFailed}, true),
		Entry("unknown kind", audit.Entry{Kind: "archived", SubjectType: "checklist", SubjectID: "1"}, false),
	)

	It("fills actor, tenant and request metadata from the context", func() {
		ctx = internal.ContextWithPrincipal(ctx, &internal.Principal{ID: 9, Email: "lead@acme.test"})
		ctx = tenant.WithTenant(ctx, &tenant.Tenant{ID: 3, Slug: "acme"})
		ctx = audit.WithRequestMeta(ctx, audit.RequestMeta{IP: "10.0.0.1", Method: http.MethodPost, Route: "/api/v1/checklists"})

		Expect(recorder.Record(ctx, audit.Entry{Kind: audit.KindCreated, SubjectType: "checklist", SubjectID: "1", After: map[string]any{}})).To(Succeed())

		e := scheduler.Entries()[0]
		Expect(e.ID).NotTo(BeEmpty())
		Expect(e.OccurredAt).NotTo(BeZero())
		Expect(e.Actor).To(Equal(&audit.Actor{ID: 9, Email: "lead@acme.test"}))
		Expect(*e.TenantID).To(Equal(int64(3)))
		Expect(e.Meta.IP).To(Equal("10.0.0.1"))
		Expect(e.Meta.Method).To(Equal(http.MethodPost))
	})

	It("computes changed fields for updates", func() {
		Expect(recorder.Record(ctx, audit.Entry{
			Kind: audit.KindUpdated, SubjectType: "checklist", SubjectID: "1",
			Before: map[string]any{"status": "pending", "title": "t"},
			After:  map[string]any{"status": "completed", "title": "t"},
		})).To(Succeed())
		Expect(scheduler.Entries()[0].ChangedFields).To(Equal([]string{"status"}))
	})

	Describe("RecordEntity", func() {
		It("derives the subject, hides fields and merges entity metadata", func() {
			before := &inspection{ID: 5, VehicleID: 12, Status: "pending", Secret: "x"}
			after := &inspection{ID: 5, VehicleID: 12, Status: "completed", Secret: "y"}

			Expect(recorder.RecordEntity(ctx, audit.KindUpdated, before, after)).To(Succeed())

			e := scheduler.Entries()[0]
			Expect(e.SubjectType).To(Equal("inspection"))
			Expect(e.SubjectID).To(Equal("5"))
			Expect(e.Before).NotTo(HaveKey("secret"))
			Expect(e.ChangedFields).To(Equal([]string{"status"}))
			Expect(e.Metadata).To(HaveKeyWithValue("vehicle_id", int64(12)))
		})

		It("records creation with no previous state", func() {
			var none *inspection
			Expect(recorder.RecordEntity(ctx, audit.KindCreated, none, &inspection{ID: 6, Status: "pending"})).To(Succeed())

			e := scheduler.Entries()[0]
			Expect(e.Before).To(BeNil())
			Expect(e.After).To(HaveKeyWithValue("status", "pending"))
		})
	})

	Describe("deferred batches", func() {
		It("holds entries until Flush", func() {
			batched := audit.WithBatch(ctx)
			Expect(recorder.Record(batched, audit.Entry{Kind: audit.KindLogin, SubjectType: "user", SubjectID: "1"})).To(Succeed())
			Expect(scheduler.Entries()).To(BeEmpty())

			Expect(audit.Flush(batched, scheduler)).To(Equal(1))
			Expect(scheduler.Entries()).To(HaveLen(1))
			Expect(audit.Flush(batched, scheduler)).To(BeZero())
		})

		It("flushes only after the handler returns", func() {
			var seenDuringHandler int
			handler := audit.Deferred(scheduler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(recorder.Record(r.Context(), audit.Entry{Kind: audit.KindLogout, SubjectType: "user", SubjectID: "1"})).To(Succeed())
				seenDuringHandler = len(scheduler.Entries())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
			req.Header.Set("User-Agent", "fleet-test")
			req.RemoteAddr = "192.0.2.10:5555"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Expect(seenDuringHandler).To(BeZero())
			entries := scheduler.Entries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Meta.IP).To(Equal("192.0.2.10"))
			Expect(entries[0].Meta.UserAgent).To(Equal("fleet-test"))
		})

		It("flushes even when the handler panics", func() {
			handler := audit.Deferred(scheduler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = recorder.Record(r.Context(), audit.Entry{Kind: audit.KindLogout, SubjectType: "user", SubjectID: "1"})
				panic("boom")
			}))

			Expect(func() {
				handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			}).To(Panic())
			Expect(scheduler.Entries()).To(HaveLen(1))
		})
	})
})
