package permission_test

import (
	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Keys", func() {
	DescribeTable("ParseKey",
		func(raw string, valid bool) {
			_, err := permission.ParseKey(raw)
			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("module.action", "checklists.view", true),
		Entry("module.submodule.action", "vehicles.tires.view", true),
		Entry("underscores", "audit_logs.export", true),
		Entry("single segment", "checklists", false),
		Entry("four segments", "a.b.c.d", false),
		Entry("upper case", "Checklists.View", false),
		Entry("empty segment", "checklists..view", false),
	)

	It("splits module and action at the last dot", func() {
		Expect(permission.TiresView.Module()).To(Equal("vehicles.tires"))
		Expect(permission.TiresView.Action()).To(Equal("view"))
	})

	It("rejects unregistered keys with UNKNOWN_PERMISSION", func() {
		err := permission.DefaultRegistry.Validate(permission.ChecklistsView, permission.Key("fuel.view"))
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeUnknownPermission))
	})

	It("groups registered actions by module", func() {
		reg := permission.NewRegistry()
		reg.MustRegister("menus.view", "")
		reg.MustRegister("menus.manage", "")
		reg.MustRegister("vehicles.tires.view", "")

		Expect(reg.Modules()).To(Equal(map[string][]string{
			"menus":          {"manage", "view"},
			"vehicles.tires": {"view"},
		}))
	})

	It("lints stored keys against the registry", func() {
		reg := permission.NewRegistry()
		reg.MustRegister("menus.view", "")
		reg.MustRegister("menus.manage", "")

		report := permission.Lint(reg, []string{"menus.view", "fuel.view", "bad key"})
		Expect(report.Clean()).To(BeFalse())
		Expect(report.Unknown).To(Equal([]string{"fuel.view"}))
		Expect(report.Unseeded).To(Equal([]string{"menus.manage"}))
		Expect(report.Malformed).To(Equal([]string{"bad key"}))
	})
})
