package projector

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
)

type CapabilitiesResponse struct {
	Capabilities Capabilities `json:"capabilities"`
}

type Handler struct {
	*transport.BaseHandler
	Projector *Projector
}

func NewHandler(baseHandler *transport.BaseHandler, projector *Projector) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Projector:   projector,
	}
}

// GetCapabilities answers GET /users/me/capabilities?modules=a,b.
func (h *Handler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}

	var caps Capabilities
	if raw := r.URL.Query().Get("modules"); raw != "" {
		var modules []string
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				modules = append(modules, m)
			}
		}
		caps = h.Projector.ProjectModules(r.Context(), p.ID, modules)
	} else {
		caps = h.Projector.Project(r.Context(), p.ID)
	}

	h.WriteJSON(w, http.StatusOK, CapabilitiesResponse{Capabilities: caps})
}
