package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractors", func() {
	It("reads the tenant header", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/checklists", nil)
		req.Header.Set("X-Tenant", " acme ")
		Expect(tenant.HeaderExtractor("X-Tenant")(req)).To(Equal("acme"))
	})

	It("reads the first label under the base domain", func() {
		extract := tenant.SubdomainExtractor("fleet.example.com")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "acme.fleet.example.com:8080"
		Expect(extract(req)).To(Equal("acme"))

		req.Host = "fleet.example.com"
		Expect(extract(req)).To(BeEmpty())

		req.Host = "acme.other.com"
		Expect(extract(req)).To(BeEmpty())
	})

	It("reads the chi path parameter", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/t/acme/checklists", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("tenant", "acme")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		Expect(tenant.PathExtractor("tenant")(req)).To(Equal("acme"))
	})

	It("falls through the configured strategies in order", func() {
		extract := tenant.ExtractorFromConfig(internal.TenantConfig{
			Strategies: []string{"header", "subdomain"},
			Header:     "X-Tenant",
			BaseDomain: "fleet.example.com",
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "beta.fleet.example.com"
		Expect(extract(req)).To(Equal("beta"))

		req.Header.Set("X-Tenant", "acme")
		Expect(extract(req)).To(Equal("acme"))
	})
})
