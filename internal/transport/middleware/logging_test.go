package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoggingMiddleware", func() {
	var out *bytes.Buffer

	newLogger := func(level slog.Level) *slog.Logger {
		out = &bytes.Buffer{}
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	}

	It("redacts credentials in debug bodies and headers and leaves the body readable", func() {
		var got string
		h := middleware.LoggingMiddleware(newLogger(slog.LevelDebug))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			got = string(b)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"access_token":"eyJabc","user":{"email":"m@acme.test"}}`))
		}))

		body := `{"email":"m@acme.test","password":"hunter2"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer eyJabc")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(got).To(Equal(body))
		Expect(out.String()).NotTo(ContainSubstring("hunter2"))
		Expect(out.String()).NotTo(ContainSubstring("eyJabc"))
		Expect(out.String()).To(ContainSubstring("m@acme.test"))
	})

	It("logs client errors at warn without bodies outside debug", func() {
		h := middleware.LoggingMiddleware(newLogger(slog.LevelInfo))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":"PERMISSION_DENIED"}}`))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/checklists", nil))

		Expect(out.String()).To(ContainSubstring(`"level":"WARN"`))
		Expect(out.String()).To(ContainSubstring(`"status_code":403`))
		Expect(out.String()).NotTo(ContainSubstring("PERMISSION_DENIED"))
	})
})
