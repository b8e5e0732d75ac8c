package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Recovery and request ids", func() {
	It("turns a panic into an internal AppError without leaking the value", func() {
		h := middleware.RecoveryMiddleware(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("db password is hunter2")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).NotTo(ContainSubstring("hunter2"))
		Expect(decodeError(w).Error.Code).To(Equal(string(internal.ErrCodeInternalError)))
	})

	It("keeps a caller trace id and exposes it on the context", func() {
		const trace = "6f1c2a9e-8d4b-4c1e-9a7f-3b2d1e0c9a88"
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = internal.RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", trace)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		Expect(seen).To(Equal(trace))
		Expect(w.Header().Get("X-Trace-ID")).To(Equal(trace))
	})

	It("replaces a malformed trace id", func() {
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "<script>")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		Expect(w.Header().Get("X-Trace-ID")).NotTo(Equal("<script>"))
		Expect(w.Header().Get("X-Trace-ID")).To(HaveLen(36))
	})
})
