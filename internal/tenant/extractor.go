package tenant

import (
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/go-chi/chi"
)

// Extractor reads a tenant reference (slug or id) off a request.
// An empty string means the strategy found nothing.
type Extractor func(r *http.Request) string

func HeaderExtractor(name string) Extractor {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// SubdomainExtractor takes the first label of hosts under baseDomain,
// so acme.fleet.example.com yields "acme".
func SubdomainExtractor(baseDomain string) Extractor {
	suffix := "." + strings.TrimPrefix(strings.ToLower(baseDomain), ".")
	return func(r *http.Request) string {
		host := strings.ToLower(r.Host)
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if !strings.HasSuffix(host, suffix) {
			return ""
		}
		sub := strings.TrimSuffix(host, suffix)
		if i := strings.LastIndex(sub, "."); i >= 0 {
			sub = sub[i+1:]
		}
		return sub
	}
}

// PathExtractor reads the chi URL parameter the tenant routes are mounted under.
func PathExtractor(param string) Extractor {
	return func(r *http.Request) string {
		return chi.URLParam(r, param)
	}
}

// Chain returns the first non-empty reference among extractors.
func Chain(extractors ...Extractor) Extractor {
	return func(r *http.Request) string {
		for _, extract := range extractors {
			if ref := extract(r); ref != "" {
				return ref
			}
		}
		return ""
	}
}

func ExtractorFromConfig(cfg internal.TenantConfig) Extractor {
	var extractors []Extractor
	for _, strategy := range cfg.Strategies {
		switch strings.TrimSpace(strategy) {
		case "header":
			extractors = append(extractors, HeaderExtractor(cfg.Header))
		case "subdomain":
			extractors = append(extractors, SubdomainExtractor(cfg.BaseDomain))
		case "path":
			extractors = append(extractors, PathExtractor(cfg.PathParam))
		}
	}
	return Chain(extractors...)
}
