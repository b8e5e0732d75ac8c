package permission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Suite")
}

// MockSource serves role and direct grants from memory and counts loads.
type MockSource struct {
	mu         sync.Mutex
	roleKeys   map[int64][]string
	directKeys map[int64][]string
	calls      int
	shouldFail bool
	failError  error
}

func NewMockSource() *MockSource {
	return &MockSource{
		roleKeys:   make(map[int64][]string),
		directKeys: make(map[int64][]string),
	}
}

func (m *MockSource) PermissionKeys(ctx context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.shouldFail {
		return nil, m.failError
	}
	keys := append([]string{}, m.roleKeys[userID]...)
	return append(keys, m.directKeys[userID]...), nil
}

func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSource) SetRoleKeys(userID int64, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roleKeys[userID] = keys
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const (
	mechanic int64 = 1
	dispatch int64 = 2
	newcomer int64 = 3
)

var _ = Describe("Resolver", func() {
	var (
		ctx      context.Context
		source   *MockSource
		resolver *permission.Resolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = NewMockSource()
		source.SetRoleKeys(mechanic, "checklists.view")
		source.SetRoleKeys(dispatch, "checklists.view", "checklists.manage", "checklists.view")
		source.directKeys[dispatch] = []string{"audit_logs.view"}
		resolver = permission.NewResolver(source, nil, quietLogger())
	})

	Describe("EffectivePermissions", func() {
		It("unions role keys with direct grants", func() {
			set, err := resolver.EffectivePermissions(ctx, dispatch)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Sorted()).To(Equal(permission.Keys("audit_logs.view", "checklists.manage", "checklists.view")))
		})

		It("gives a user with no roles an empty set", func() {
			set, err := resolver.EffectivePermissions(ctx, newcomer)
			Expect(err).NotTo(HaveOccurred())
			Expect(set).To(BeEmpty())
		})

		It("skips malformed stored keys", func() {
			source.SetRoleKeys(mechanic, "checklists.view", "Not A Key")
			set, err := resolver.EffectivePermissions(ctx, mechanic)
			Expect(err).NotTo(HaveOccurred())
			Expect(set).To(HaveLen(1))
		})
	})

	Describe("membership", func() {
		It("answers Has from the effective set", func() {
			Expect(resolver.Has(ctx, mechanic, permission.ChecklistsView)).To(BeTrue())
			Expect(resolver.Has(ctx, mechanic, permission.ChecklistsManage)).To(BeFalse())
		})

		It("returns false for every key when the user holds nothing", func() {
			for _, k := range permission.DefaultRegistry.Keys() {
				Expect(resolver.Has(ctx, newcomer, k)).To(BeFalse())
			}
		})

		It("treats an empty key list as vacuously true for HasAll and false for HasAny", func() {
			Expect(resolver.HasAll(ctx, newcomer, nil)).To(BeTrue())
			Expect(resolver.HasAny(ctx, dispatch, nil)).To(BeFalse())
		})

		It("requires every key for HasAll and one for HasAny", func() {
			both := []permission.Key{permission.ChecklistsView, permission.ChecklistsManage}
			Expect(resolver.HasAll(ctx, mechanic, both)).To(BeFalse())
			Expect(resolver.HasAny(ctx, mechanic, both)).To(BeTrue())
			Expect(resolver.HasAll(ctx, dispatch, both)).To(BeTrue())
		})

		It("fails closed on storage errors", func() {
			source.shouldFail = true
			source.failError = errors.New("connection reset")
			Expect(resolver.Has(ctx, dispatch, permission.ChecklistsView)).To(BeFalse())
			Expect(resolver.HasAll(ctx, dispatch, []permission.Key{permission.ChecklistsView})).To(BeFalse())

			_, err := resolver.EffectivePermissions(ctx, dispatch)
			Expect(err).To(MatchError("connection reset"))
		})
	})

	Describe("per-request memo", func() {
		It("loads a user once per request", func() {
			reqCtx := permission.WithMemo(ctx)
			resolver.Has(reqCtx, dispatch, permission.ChecklistsView)
			resolver.HasAll(reqCtx, dispatch, []permission.Key{permission.ChecklistsManage})
			resolver.HasAny(reqCtx, dispatch, []permission.Key{permission.AuditLogsView})
			Expect(source.Calls()).To(Equal(1))

			otherReq := permission.WithMemo(ctx)
			resolver.Has(otherReq, dispatch, permission.ChecklistsView)
			Expect(source.Calls()).To(Equal(2))
		})

		It("reloads after the request forgets the user", func() {
			reqCtx := permission.WithMemo(ctx)
			Expect(resolver.Has(reqCtx, mechanic, permission.ChecklistsManage)).To(BeFalse())

			source.SetRoleKeys(mechanic, "checklists.view", "checklists.manage")
			permission.ForgetInRequest(reqCtx, mechanic)
			Expect(resolver.Has(reqCtx, mechanic, permission.ChecklistsManage)).To(BeTrue())
		})

		It("does not memoize without WithMemo", func() {
			resolver.Has(ctx, mechanic, permission.ChecklistsView)
			resolver.Has(ctx, mechanic, permission.ChecklistsView)
			Expect(source.Calls()).To(Equal(2))
		})
	})
})
