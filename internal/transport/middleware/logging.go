package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	redacted      = "[FILTERED]"
	maxLoggedBody = 4 << 10
)

// Substrings of header and JSON key names whose values never reach the log.
var redactedKeys = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"api_key",
	"session",
	"credential",
}

// LoggingMiddleware writes one line per response, levelled by status class,
// and feeds the HTTP metrics keyed by chi route pattern. Bodies and headers
// are only captured when the logger has debug enabled.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := logger.FromOr(r.Context(), base)
			verbose := lg.Enabled(r.Context(), slog.LevelDebug)

			if verbose {
				lg.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"query", r.URL.RawQuery,
					"remote_addr", r.RemoteAddr,
					"headers", redactHeaders(r.Header),
					"body", redactBody(peekBody(r)),
				)
			}

			rec := &recordingWriter{ResponseWriter: w, keepBody: verbose}
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			metrics.ObserveRequest(r.Method, route, rec.status(), start)

			attrs := []any{
				"method", r.Method,
				"route", route,
				"status_code", rec.status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", rec.written,
			}
			if verbose {
				attrs = append(attrs, "body", redactBody(rec.body.Bytes()))
			}
			lg.Log(r.Context(), levelFor(rec.status()), "response", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of
// the remaining stream.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

type recordingWriter struct {
	http.ResponseWriter
	code     int
	written  int
	keepBody bool
	body     bytes.Buffer
}

func (rw *recordingWriter) status() int {
	if rw.code == 0 {
		return http.StatusOK
	}
	return rw.code
}

func (rw *recordingWriter) WriteHeader(code int) {
	rw.code = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if rw.keepBody && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b[:min(len(b), maxLoggedBody-rw.body.Len())])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func sensitiveKey(name string) bool {
	name = strings.ToLower(name)
	for _, k := range redactedKeys {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if sensitiveKey(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody masks sensitive keys at any depth of a JSON body. Bodies that
// are not JSON are dropped if they mention a sensitive key at all.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		if sensitiveKey(string(body)) {
			return redacted
		}
		return string(body)
	}
	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return redacted
	}
	return string(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if sensitiveKey(k) {
				t[k] = redacted
			} else {
				t[k] = redactValue(inner)
			}
		}
		return t
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	default:
		return v
	}
}
