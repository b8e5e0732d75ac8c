package permission_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cache", func() {
	var (
		ctx      context.Context
		source   *MockSource
		cache    *permission.Cache
		resolver *permission.Resolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = NewMockSource()
		source.SetRoleKeys(mechanic, "checklists.view")
		source.SetRoleKeys(dispatch, "checklists.manage")

		var err error
		cache, err = permission.NewCache(16)
		Expect(err).NotTo(HaveOccurred())
		resolver = permission.NewResolver(source, cache, quietLogger())
	})

	It("serves repeat lookups across requests from the cache", func() {
		Expect(resolver.Has(ctx, mechanic, permission.ChecklistsView)).To(BeTrue())
		Expect(resolver.Has(ctx, mechanic, permission.ChecklistsView)).To(BeTrue())
		Expect(source.Calls()).To(Equal(1))
	})

	It("reloads one user after InvalidateUser", func() {
		resolver.Has(ctx, mechanic, permission.ChecklistsView)
		resolver.Has(ctx, dispatch, permission.ChecklistsView)

		source.SetRoleKeys(mechanic, "checklists.view", "checklists.manage")
		resolver.InvalidateUser(mechanic)

		Expect(resolver.Has(ctx, mechanic, permission.ChecklistsManage)).To(BeTrue())
		Expect(resolver.Has(ctx, dispatch, permission.ChecklistsManage)).To(BeTrue())
		Expect(source.Calls()).To(Equal(3))
	})

	It("drops every entry after InvalidateAll", func() {
		resolver.Has(ctx, mechanic, permission.ChecklistsView)
		resolver.Has(ctx, dispatch, permission.ChecklistsView)
		Expect(cache.Len()).To(Equal(2))

		resolver.InvalidateAll()
		Expect(cache.Len()).To(BeZero())
	})

	It("does not store a load that raced an invalidation", func() {
		set, err := cache.Get(ctx, mechanic, func(ctx context.Context) (permission.Set, error) {
			cache.InvalidateUser(mechanic)
			return permission.NewSet(permission.ChecklistsView), nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Has(permission.ChecklistsView)).To(BeTrue())
		Expect(cache.Len()).To(BeZero())
	})

	It("collapses concurrent misses into one load", func() {
		var loads int32
		release := make(chan struct{})
		load := func(ctx context.Context) (permission.Set, error) {
			atomic.AddInt32(&loads, 1)
			<-release
			return permission.NewSet(permission.ChecklistsView), nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := cache.Get(ctx, mechanic, load)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		Eventually(func() int32 { return atomic.LoadInt32(&loads) }).Should(Equal(int32(1)))
		close(release)
		wg.Wait()

		Expect(atomic.LoadInt32(&loads)).To(BeNumerically("<=", 8))
		Expect(cache.Len()).To(Equal(1))
	})

	It("keeps a shared load alive when the caller that started it goes away", func() {
		release := make(chan struct{})
		started := make(chan struct{})
		load := func(ctx context.Context) (permission.Set, error) {
			close(started)
			select {
			case <-release:
				return permission.NewSet(permission.ChecklistsView), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		firstCtx, cancelFirst := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := cache.Get(firstCtx, mechanic, load)
			firstErr <- err
		}()
		Eventually(started).Should(BeClosed())

		type result struct {
			set permission.Set
			err error
		}
		second := make(chan result, 1)
		go func() {
			set, err := cache.Get(ctx, mechanic, load)
			second <- result{set, err}
		}()

		cancelFirst()
		Eventually(firstErr).Should(Receive(MatchError(context.Canceled)))

		close(release)
		var got result
		Eventually(second).Should(Receive(&got))
		Expect(got.err).NotTo(HaveOccurred())
		Expect(got.set.Has(permission.ChecklistsView)).To(BeTrue())
		Expect(cache.Len()).To(Equal(1))
	})
})
