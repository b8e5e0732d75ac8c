package audit_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	auditDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/audit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Export", func() {
	actor := int64(4)
	rows := []*auditDatamodel.AuditLog{
		{
			ID: "a1", Event: "updated", SubjectType: "checklist", SubjectID: "10",
			ActorID: &actor, ActorEmail: "lead@acme.test", ChangedFields: []string{"notes", "status"},
			CreatedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			ID: "a2", Event: "login_failed",
			Metadata:  map[string]any{"email": "x@acme.test"},
			CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	It("writes CSV with a header row", func() {
		var buf bytes.Buffer
		Expect(audit.Export(&buf, audit.FormatCSV, rows)).To(Succeed())

		records, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(ContainElements("event", "subject_type", "subject_id", "actor_id", "actor_email", "created_at", "changed_fields"))
		Expect(records[1]).To(ContainElements("updated", "checklist", "10", "4", "lead@acme.test", "notes;status"))
		Expect(records[2][5]).To(BeEmpty())
	})

	It("writes one JSON object per line", func() {
		var buf bytes.Buffer
		Expect(audit.Export(&buf, audit.FormatNDJSON, rows)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(2))

		var second map[string]any
		Expect(json.Unmarshal([]byte(lines[1]), &second)).To(Succeed())
		Expect(second["event"]).To(Equal("login_failed"))
		Expect(second["changed_fields"]).To(BeEmpty())
		Expect(second["actor_id"]).To(BeNil())
	})

	It("rejects unknown formats", func() {
		_, err := audit.ParseFormat("xml")
		Expect(err).To(HaveOccurred())
		f, err := audit.ParseFormat("")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(audit.FormatCSV))
	})
})
