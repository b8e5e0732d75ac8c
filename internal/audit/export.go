package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	auditDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/audit"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatNDJSON {
		return "application/x-ndjson"
	}
	return "text/csv"
}

var csvHeader = []string{
	"id", "tenant_id", "event", "subject_type", "subject_id",
	"actor_id", "actor_email", "changed_fields", "ip_address", "route", "method", "request_id", "created_at",
}

func Export(w io.Writer, format Format, rows []*auditDatamodel.AuditLog) error {
	if format == FormatNDJSON {
		return writeNDJSON(w, rows)
	}
	return writeCSV(w, rows)
}

func writeCSV(w io.Writer, rows []*auditDatamodel.AuditLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			row.ID,
			optionalID(row.TenantID),
			row.Event,
			row.SubjectType,
			row.SubjectID,
			optionalID(row.ActorID),
			row.ActorEmail,
			strings.Join(row.ChangedFields, ";"),
			row.IPAddress,
			row.Route,
			row.Method,
			row.RequestID,
			row.CreatedAt.UTC().Format(time.RFC3339Nano),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type ExportRecord struct {
	ID            string         `json:"id"`
	TenantID      *int64         `json:"tenant_id"`
	Event         string         `json:"event"`
	SubjectType   string         `json:"subject_type"`
	SubjectID     string         `json:"subject_id"`
	ActorID       *int64         `json:"actor_id"`
	ActorEmail    string         `json:"actor_email,omitempty"`
	OldValues     map[string]any `json:"old_values,omitempty"`
	NewValues     map[string]any `json:"new_values,omitempty"`
	ChangedFields []string       `json:"changed_fields"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	Route         string         `json:"route,omitempty"`
	Method        string         `json:"method,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func ToRecord(row *auditDatamodel.AuditLog) ExportRecord {
	changed := row.ChangedFields
	if changed == nil {
		changed = []string{}
	}
	return ExportRecord{
		ID:            row.ID,
		TenantID:      row.TenantID,
		Event:         row.Event,
		SubjectType:   row.SubjectType,
		SubjectID:     row.SubjectID,
		ActorID:       row.ActorID,
		ActorEmail:    row.ActorEmail,
		OldValues:     row.OldValues,
		NewValues:     row.NewValues,
		ChangedFields: changed,
		Metadata:      row.Metadata,
		IPAddress:     row.IPAddress,
		UserAgent:     row.UserAgent,
		Route:         row.Route,
		Method:        row.Method,
		RequestID:     row.RequestID,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

func writeNDJSON(w io.Writer, rows []*auditDatamodel.AuditLog) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(ToRecord(row)); err != nil {
			return err
		}
	}
	return nil
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
