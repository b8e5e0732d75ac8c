package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	mechanicID int64 = 1
	managerID  int64 = 2
)

type countingSource struct {
	keys  map[int64][]string
	calls int
}

func (s *countingSource) PermissionKeys(ctx context.Context, userID int64) ([]string, error) {
	s.calls++
	return s.keys[userID], nil
}

var _ = Describe("Gate", func() {
	var (
		perms *MockPermissions
		gate  *middleware.Gate
	)

	BeforeEach(func() {
		perms = &MockPermissions{sets: map[int64]permission.Set{
			mechanicID: permission.NewSet(permission.ChecklistsView),
			managerID:  permission.NewSet(permission.ChecklistsView, permission.ChecklistsManage, permission.AuditLogsView),
		}}
		gate = middleware.NewGate(perms, permission.DefaultRegistry, quietLogger())
	})

	Describe("Evaluate", func() {
		It("is unauthenticated without a principal", func() {
			out := gate.Evaluate(context.Background(), middleware.ModeAll, []permission.Key{permission.ChecklistsView})
			Expect(out.Decision).To(Equal(middleware.Unauthenticated))
			Expect(perms.Calls()).To(BeZero())
		})

		It("lists every missing key in all mode", func() {
			ctx := internal.ContextWithPrincipal(context.Background(), &internal.Principal{ID: mechanicID})
			out := gate.Evaluate(ctx, middleware.ModeAll, []permission.Key{permission.ChecklistsView, permission.ChecklistsManage, permission.AuditLogsView})
			Expect(out.Decision).To(Equal(middleware.Forbidden))
			Expect(out.Missing).To(Equal([]permission.Key{permission.ChecklistsManage, permission.AuditLogsView}))
		})

		It("allows any mode when one key is held", func() {
			ctx := internal.ContextWithPrincipal(context.Background(), &internal.Principal{ID: mechanicID})
			out := gate.Evaluate(ctx, middleware.ModeAny, []permission.Key{permission.ChecklistsManage, permission.ChecklistsView})
			Expect(out.Decision).To(Equal(middleware.Allow))
			Expect(out.Missing).To(BeEmpty())
		})

		It("lists all required keys when any mode finds none", func() {
			ctx := internal.ContextWithPrincipal(context.Background(), &internal.Principal{ID: mechanicID})
			keys := []permission.Key{permission.AuditLogsView, permission.AuditLogsExport}
			out := gate.Evaluate(ctx, middleware.ModeAny, keys)
			Expect(out.Decision).To(Equal(middleware.Forbidden))
			Expect(out.Missing).To(Equal(keys))
		})
	})

	Describe("Require", func() {
		It("forbids a mechanic holding only checklists.view from checklists.manage", func() {
			called := false
			h := gate.RequireAll(permission.ChecklistsManage)(okHandler(&called))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/checklists", nil), mechanicID))

			Expect(called).To(BeFalse())
			Expect(w.Code).To(Equal(http.StatusForbidden))
			body := decodeError(w)
			Expect(body.Error.Code).To(Equal(string(internal.ErrCodePermissionDenied)))
			Expect(body.Error.Message).To(ContainSubstring("checklists.manage"))
			Expect(body.Error.Details["missing"]).To(ConsistOf("checklists.manage"))
			Expect(body.Error.Details["mode"]).To(Equal("all"))
		})

		It("passes the request through unchanged when allowed", func() {
			var seen *http.Request
			h := gate.RequireAll(permission.ChecklistsManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r
			}))

			req := withPrincipal(httptest.NewRequest(http.MethodPost, "/checklists", nil), managerID)
			h.ServeHTTP(httptest.NewRecorder(), req)
			Expect(seen).To(BeIdenticalTo(req))
		})

		It("answers 401, not 403, for anonymous callers", func() {
			called := false
			h := gate.RequireAll(permission.ChecklistsView)(okHandler(&called))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checklists", nil))

			Expect(called).To(BeFalse())
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(decodeError(w).Error.Code).To(Equal(string(internal.ErrCodeUnauthenticated)))
		})

		It("short-circuits stacked gates at the first failure", func() {
			called := false
			h := gate.RequireAll(permission.ChecklistsView)(
				gate.RequireAll(permission.ChecklistsManage)(
					gate.RequireAll(permission.AuditLogsView)(okHandler(&called))))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), mechanicID))

			Expect(called).To(BeFalse())
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(decodeError(w).Error.Details["missing"]).To(ConsistOf("checklists.manage"))
		})

		It("shares one lookup across stacked gates within a request", func() {
			source := &countingSource{keys: map[int64][]string{managerID: {"checklists.view", "checklists.manage"}}}
			memoGate := middleware.NewGate(permission.NewResolver(source, nil, quietLogger()), permission.DefaultRegistry, quietLogger())

			called := false
			h := middleware.PermissionMemo(memoGate.RequireAll(permission.ChecklistsView)(
				memoGate.RequireAll(permission.ChecklistsManage)(okHandler(&called))))

			h.ServeHTTP(httptest.NewRecorder(), withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), managerID))
			Expect(called).To(BeTrue())
			Expect(source.calls).To(Equal(1))
		})

		It("returns 500 when permissions cannot be loaded", func() {
			perms.shouldFail = true
			called := false
			h := gate.RequireAll(permission.ChecklistsView)(okHandler(&called))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), managerID))
			Expect(called).To(BeFalse())
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})

		It("panics on unregistered keys when routes are built", func() {
			Expect(func() { gate.RequireAll(permission.Key("fuel.refill")) }).To(Panic())
			Expect(func() { gate.RequireAny() }).To(Panic())
		})
	})
})
