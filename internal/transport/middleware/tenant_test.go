package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TenantContext", func() {
	var (
		tenants *MockTenants
		perms   *MockPermissions
		chain   func(http.Handler) http.Handler
	)

	BeforeEach(func() {
		tenants = &MockTenants{tenants: map[string]*tenant.Tenant{
			"acme":   {ID: 1, Slug: "acme", Status: tenant.StatusActive, Type: tenant.TypeRoot},
			"frozen": {ID: 2, Slug: "frozen", Status: tenant.StatusSuspended, Type: tenant.TypeRoot},
		}}
		perms = &MockPermissions{sets: map[int64]permission.Set{
			managerID: permission.NewSet(permission.ChecklistsManage),
		}}
		gate := middleware.NewGate(perms, permission.DefaultRegistry, quietLogger())
		tenantMW := middleware.TenantContext(tenants, tenant.HeaderExtractor("X-Tenant"), quietLogger())
		chain = func(h http.Handler) http.Handler {
			return tenantMW(gate.RequireAll(permission.ChecklistsManage)(h))
		}
	})

	request := func(slug string) *http.Request {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/checklists", nil), managerID)
		if slug != "" {
			req.Header.Set("X-Tenant", slug)
		}
		return req
	}

	It("puts the resolved tenant on the context", func() {
		var current *tenant.Tenant
		h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, _ = tenant.Current(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, request("acme"))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(current.Slug).To(Equal("acme"))
	})

	It("rejects a suspended tenant before the permission gate runs", func() {
		called := false
		w := httptest.NewRecorder()
		chain(okHandler(&called)).ServeHTTP(w, request("frozen"))

		Expect(called).To(BeFalse())
		Expect(perms.Calls()).To(BeZero())
		Expect(w.Code).To(Equal(http.StatusForbidden))
		body := decodeError(w)
		Expect(body.Error.Code).To(Equal(string(internal.ErrCodeTenantInactive)))
		Expect(body.Error.Message).To(ContainSubstring("suspended"))
	})

	It("answers 404 for an unknown tenant", func() {
		called := false
		w := httptest.NewRecorder()
		chain(okHandler(&called)).ServeHTTP(w, request("ghost"))

		Expect(called).To(BeFalse())
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(decodeError(w).Error.Code).To(Equal(string(internal.ErrCodeTenantNotFound)))
	})

	It("answers 404 when the request names no tenant", func() {
		called := false
		w := httptest.NewRecorder()
		chain(okHandler(&called)).ServeHTTP(w, request(""))

		Expect(called).To(BeFalse())
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(perms.Calls()).To(BeZero())
	})
})
