package audit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
)

const exportLimit = 10000

type ListResponse struct {
	AuditLogs []ExportRecord `json:"audit_logs"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
}

type Handler struct {
	*transport.BaseHandler
	Reader Reader
}

func NewHandler(baseHandler *transport.BaseHandler, reader Reader) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Reader:      reader,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, appErr := ParseFilter(r.URL.Query())
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	rows, err := h.Reader.List(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, r, internal.NewInternalError("failed to list audit logs", err))
		return
	}

	records := make([]ExportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ToRecord(row))
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{AuditLogs: records, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.WriteAppError(w, r, internal.NewValidationFieldError("format", err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	filter, appErr := ParseFilter(r.URL.Query())
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}
	if r.URL.Query().Get("limit") == "" {
		filter.Limit = exportLimit
	}

	rows, err := h.Reader.List(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, r, internal.NewInternalError("failed to export audit logs", err))
		return
	}

	filename := fmt.Sprintf("audit-%s.%s", time.Now().UTC().Format("20060102T150405Z"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := Export(w, format, rows); err != nil {
		h.Logger.Error("audit export interrupted", "error", err, "rows", len(rows))
	}
}
