package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS wraps go-chi/cors with the API's methods and headers. allowedOrigins
// is the comma separated server.allowed_origins value; "*" allows any origin.
func CORS(allowedOrigins, tenantHeader string) func(http.Handler) http.Handler {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	headers := []string{"Authorization", "Content-Type", traceHeader}
	if tenantHeader != "" {
		headers = append(headers, tenantHeader)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: headers,
		ExposedHeaders: []string{traceHeader},
		MaxAge:         300,
	})
}
