package audit_test

import (
	"context"

	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Subscriber", func() {
	var (
		bus       *events.EventBus
		scheduler *MockScheduler
	)

	BeforeEach(func() {
		bus = events.NewEventBus(quietLogger())
		scheduler = &MockScheduler{}
		audit.NewSubscriber(audit.NewRecorder(scheduler, quietLogger()), quietLogger()).Register(bus)
	})

	It("records entity lifecycle events", func() {
		before := &inspection{ID: 1, Status: "pending"}
		after := &inspection{ID: 1, Status: "in_progress"}
		Expect(bus.PublishSync(context.Background(), events.EntityUpdated(before, after))).To(Succeed())

		e := scheduler.Entries()[0]
		Expect(e.Kind).To(Equal(audit.KindUpdated))
		Expect(e.ChangedFields).To(Equal([]string{"status"}))
	})

	It("records failed logins without a subject", func() {
		ev := events.NewAuthEvent(events.EventTypeAuthLoginFailed, 0, "nobody@acme.test", "web", "unknown email")
		Expect(bus.PublishSync(context.Background(), ev)).To(Succeed())

		e := scheduler.Entries()[0]
		Expect(e.Kind).To(Equal(audit.KindLoginFailed))
		Expect(e.SubjectID).To(BeEmpty())
		Expect(e.Metadata).To(HaveKeyWithValue("email", "nobody@acme.test"))
		Expect(e.Metadata).To(HaveKeyWithValue("guard", "web"))
	})

	It("records a failed login on a known account with the user as subject only", func() {
		ev := events.NewAuthEvent(events.EventTypeAuthLoginFailed, 7, "m@acme.test", "web", "invalid password")
		Expect(bus.PublishSync(context.Background(), ev)).To(Succeed())

		e := scheduler.Entries()[0]
		Expect(e.SubjectType).To(Equal("user"))
		Expect(e.SubjectID).To(Equal("7"))
		Expect(e.Actor).To(BeNil())
		Expect(e.Metadata).To(HaveKeyWithValue("reason", "invalid password"))
	})

	It("records logins against the user", func() {
		ev := events.NewAuthEvent(events.EventTypeAuthLogin, 7, "m@acme.test", "web", "")
		Expect(bus.PublishSync(context.Background(), ev)).To(Succeed())

		e := scheduler.Entries()[0]
		Expect(e.SubjectType).To(Equal("user"))
		Expect(e.SubjectID).To(Equal("7"))
		Expect(e.Actor.Email).To(Equal("m@acme.test"))
	})

	It("reports an invalid lifecycle event to the publisher", func() {
		Expect(bus.PublishSync(context.Background(), events.EntityCreated(nil))).To(HaveOccurred())
		Expect(scheduler.Entries()).To(BeEmpty())
	})
})
