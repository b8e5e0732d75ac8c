package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CORS", func() {
	preflight := func(origin string) *httptest.ResponseRecorder {
		var called bool
		h := middleware.CORS("https://ops.acme.test", "X-Tenant")(okHandler(&called))
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/checklists", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		req.Header.Set("Access-Control-Request-Headers", "X-Tenant")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(called).To(BeFalse())
		return w
	}

	It("allows a configured origin to send the tenant header", func() {
		w := preflight("https://ops.acme.test")
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://ops.acme.test"))
		Expect(w.Header().Get("Access-Control-Allow-Methods")).To(Equal(http.MethodPatch))
	})

	It("gives an unknown origin no CORS headers", func() {
		w := preflight("https://evil.test")
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})
