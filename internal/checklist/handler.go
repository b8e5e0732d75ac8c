package checklist

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/fleet-backoffice/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto *CreateChecklistDTO) (*Checklist, error)
	Get(ctx context.Context, id int64) (*Checklist, error)
	List(ctx context.Context, filter ListFilter) ([]*Checklist, error)
	Update(ctx context.Context, id int64, dto *UpdateChecklistDTO) (*Checklist, error)
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) (*Checklist, error)
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
	q := r.URL.Query()
	filter := ListFilter{Status: q.Get("status"), Limit: 20}

	if v := q.Get("vehicle_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			filter.VehicleID = id
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	checklists, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Checklists: checklists, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateChecklistDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	c, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	var dto UpdateChecklistDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	c, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	c, err := h.Service.Restore(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}
