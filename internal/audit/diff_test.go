package audit_test

import (
	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ChangedFields", func() {
	It("lists exactly the keys whose values differ", func() {
		before := map[string]any{"status": "pending", "title": "Daily check", "vehicle_id": float64(7)}
		after := map[string]any{"status": "completed", "title": "Daily check", "vehicle_id": float64(7)}
		Expect(audit.ChangedFields(before, after)).To(Equal([]string{"status"}))
	})

	It("counts keys present on one side only", func() {
		before := map[string]any{"notes": "flat tire", "title": "A"}
		after := map[string]any{"title": "A", "closed_at": "2025-01-02"}
		Expect(audit.ChangedFields(before, after)).To(Equal([]string{"closed_at", "notes"}))
	})

	It("compares nested values structurally", func() {
		before := map[string]any{"tags": []any{"a", "b"}, "meta": map[string]any{"x": float64(1)}}
		after := map[string]any{"tags": []any{"a", "b"}, "meta": map[string]any{"x": float64(2)}}
		Expect(audit.ChangedFields(before, after)).To(Equal([]string{"meta"}))
	})

	It("returns an empty list for identical states", func() {
		state := map[string]any{"status": "pending"}
		Expect(audit.ChangedFields(state, state)).To(BeEmpty())
	})

	It("agrees with snapshots of typed values", func() {
		type vehicleCheck struct {
			Status string `json:"status"`
			Odo    int    `json:"odometer"`
		}
		before, err := audit.Snapshot(vehicleCheck{Status: "pending", Odo: 1200})
		Expect(err).NotTo(HaveOccurred())
		after, err := audit.Snapshot(vehicleCheck{Status: "pending", Odo: 1250})
		Expect(err).NotTo(HaveOccurred())
		Expect(audit.ChangedFields(before, after)).To(Equal([]string{"odometer"}))
	})
})
