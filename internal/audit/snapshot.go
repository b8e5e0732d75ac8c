package audit

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Auditable entities name themselves as an audit subject.
type Auditable interface {
	AuditSubject() (subjectType string, subjectID string)
}

// MetadataProvider lets an entity attach extra context to its own audit
// entries, for example the vehicle a checklist belongs to.
type MetadataProvider interface {
	AuditMetadata() map[string]any
}

// Hidden lets an entity keep fields such as password hashes out of snapshots.
type Hidden interface {
	AuditHidden() []string
}

// Snapshot converts v into the JSON shape it is stored with, so values read
// back from the audit table compare equal to fresh snapshots.
func Snapshot(v any) (map[string]any, error) {
	if v == nil || isNilEntity(v) {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return normalize(m)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	if h, ok := v.(Hidden); ok {
		for _, field := range h.AuditHidden() {
			delete(out, field)
		}
	}
	return out, nil
}

func normalize(m map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	out := make(map[string]any, len(m))
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	return out, nil
}

func mergeMetadata(dst map[string]any, entities ...any) map[string]any {
	for _, e := range entities {
		p, ok := e.(MetadataProvider)
		if !ok || isNilEntity(e) {
			continue
		}
		if dst == nil {
			dst = make(map[string]any)
		}
		maps.Copy(dst, p.AuditMetadata())
	}
	return dst
}
