package audit_test

import (
	"context"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func entry(id string) audit.Entry {
	return audit.Entry{
		ID:          id,
		Kind:        audit.KindCreated,
		SubjectType: "checklist",
		SubjectID:   id,
		After:       map[string]any{"status": "pending"},
		OccurredAt:  time.Now(),
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		store      *MockStore
		dispatcher *audit.Dispatcher
	)

	BeforeEach(func() {
		store = NewMockStore()
	})

	AfterEach(func() {
		if dispatcher != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = dispatcher.Shutdown(ctx)
		}
	})

	It("persists enqueued entries", func() {
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 2, QueueSize: 8}, quietLogger())
		Expect(dispatcher.Enqueue(context.Background(), entry("a"))).To(BeTrue())
		Expect(dispatcher.Enqueue(context.Background(), entry("b"))).To(BeTrue())

		Eventually(func() int { return len(store.Rows()) }).Should(Equal(2))
	})

	It("keeps writing after the request context is cancelled", func() {
		store.gate = make(chan struct{})
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 1, QueueSize: 8}, quietLogger())

		reqCtx, cancel := context.WithCancel(context.Background())
		Expect(dispatcher.Enqueue(reqCtx, entry("a"))).To(BeTrue())
		cancel()
		close(store.gate)

		Eventually(func() int { return len(store.Rows()) }).Should(Equal(1))
		store.mu.Lock()
		defer store.mu.Unlock()
		Expect(store.ctxErrs[0]).NotTo(HaveOccurred())
	})

	It("swallows store failures and keeps serving", func() {
		store.shouldFail = true
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 1, QueueSize: 8}, quietLogger())

		Expect(dispatcher.Enqueue(context.Background(), entry("a"))).To(BeTrue())
		Eventually(store.Attempts).Should(Equal(1))

		store.mu.Lock()
		store.shouldFail = false
		store.mu.Unlock()
		Expect(dispatcher.Enqueue(context.Background(), entry("b"))).To(BeTrue())
		Eventually(func() int { return len(store.Rows()) }).Should(Equal(1))
	})

	It("recovers from a panicking store", func() {
		store.shouldPanic = true
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 1, QueueSize: 8}, quietLogger())

		Expect(dispatcher.Enqueue(context.Background(), entry("a"))).To(BeTrue())
		Eventually(store.Attempts).Should(Equal(1))

		store.mu.Lock()
		store.shouldPanic = false
		store.mu.Unlock()
		Expect(dispatcher.Enqueue(context.Background(), entry("b"))).To(BeTrue())
		Eventually(func() int { return len(store.Rows()) }).Should(Equal(1))
	})

	It("drops instead of blocking when the queue is full", func() {
		store.gate = make(chan struct{})
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 1, QueueSize: 1}, quietLogger())

		accepted := 0
		for i := 0; i < 10; i++ {
			if dispatcher.Enqueue(context.Background(), entry("x")) {
				accepted++
			}
		}
		Expect(accepted).To(BeNumerically("<", 10))
		close(store.gate)
	})

	It("drains the queue on shutdown and refuses new entries", func() {
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 2, QueueSize: 64}, quietLogger())
		for i := 0; i < 20; i++ {
			Expect(dispatcher.Enqueue(context.Background(), entry("x"))).To(BeTrue())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		Expect(dispatcher.Shutdown(ctx)).To(Succeed())
		Expect(store.Rows()).To(HaveLen(20))

		Expect(dispatcher.Enqueue(context.Background(), entry("late"))).To(BeFalse())
	})

	It("records through the dispatcher end to end", func() {
		dispatcher = audit.NewDispatcher(store, audit.Config{MaxWorkers: 1, QueueSize: 8}, quietLogger())
		recorder := audit.NewRecorder(dispatcher, quietLogger())

		Expect(recorder.Record(context.Background(), audit.Entry{
			Kind: audit.KindDeleted, SubjectType: "checklist", SubjectID: "42",
			Before: map[string]any{"status": "completed"},
		})).To(Succeed())

		Eventually(func() int { return len(store.Rows()) }).Should(Equal(1))
		row := store.Rows()[0]
		Expect(row.Event).To(Equal("deleted"))
		Expect(row.OldValues).To(HaveKeyWithValue("status", "completed"))
		Expect(row.NewValues).To(BeNil())
	})
})
