package menu

import (
	"context"
	"net/http"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto *CreateMenuDTO) (*Menu, error)
	Update(ctx context.Context, id int64, dto *UpdateMenuDTO) (*Menu, error)
	VisibleFor(ctx context.Context, userID int64) ([]*Menu, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}
	menus, err := h.Service.VisibleFor(r.Context(), p.ID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"menus": menus})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateMenuDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	m, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateMenuDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	m, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}
