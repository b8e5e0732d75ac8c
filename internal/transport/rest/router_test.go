package rest_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	"github.com/frahmantamala/fleet-backoffice/internal/checklist"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/rest"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	mechanicID int64 = 7
	managerID  int64 = 8
)

type fakeTenants struct{}

func (fakeTenants) Resolve(ctx context.Context, ref string) (*tenant.Tenant, error) {
	switch ref {
	case "acme":
		return &tenant.Tenant{ID: 1, Slug: "acme", Status: tenant.StatusActive, Type: tenant.TypeRoot}, nil
	case "frozen":
		return nil, internal.NewTenantInactiveError("frozen", string(tenant.StatusSuspended))
	}
	return nil, internal.NewTenantNotFoundError(ref)
}

// fakePrincipals maps bearer tokens straight to user ids.
type fakePrincipals struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePrincipals) ValidatePrincipal(ctx context.Context, token string) (*internal.Principal, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	t, _ := tenant.Current(ctx)
	switch token {
	case "mechanic":
		return &internal.Principal{ID: mechanicID, TenantID: t.ID, Email: "mechanic@acme.test"}, nil
	case "manager":
		return &internal.Principal{ID: managerID, TenantID: t.ID, Email: "manager@acme.test"}, nil
	}
	return nil, internal.ErrInvalidToken
}

func (f *fakePrincipals) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePermissions struct {
	sets map[int64]permission.Set
}

func (f fakePermissions) EffectivePermissions(ctx context.Context, userID int64) (permission.Set, error) {
	return f.sets[userID], nil
}

type fakeChecklists struct {
	mu      sync.Mutex
	created int
}

func (f *fakeChecklists) Create(ctx context.Context, dto *checklist.CreateChecklistDTO) (*checklist.Checklist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return &checklist.Checklist{ID: 1, VehicleID: dto.VehicleID, Title: dto.Title, Status: checklist.StatusPending}, nil
}

func (f *fakeChecklists) Get(ctx context.Context, id int64) (*checklist.Checklist, error) {
	return &checklist.Checklist{ID: id, Status: checklist.StatusPending}, nil
}

func (f *fakeChecklists) List(ctx context.Context, filter checklist.ListFilter) ([]*checklist.Checklist, error) {
	return []*checklist.Checklist{}, nil
}

func (f *fakeChecklists) Update(ctx context.Context, id int64, dto *checklist.UpdateChecklistDTO) (*checklist.Checklist, error) {
	return &checklist.Checklist{ID: id}, nil
}

func (f *fakeChecklists) Delete(ctx context.Context, id int64) error { return nil }

func (f *fakeChecklists) Restore(ctx context.Context, id int64) (*checklist.Checklist, error) {
	return &checklist.Checklist{ID: id}, nil
}

func (f *fakeChecklists) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

type nopScheduler struct{}

func (nopScheduler) Enqueue(ctx context.Context, e audit.Entry) bool { return true }

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
	return body.Error.Code
}

var _ = Describe("Router", func() {
	var (
		router     *chi.Mux
		principals *fakePrincipals
		checklists *fakeChecklists
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))
		principals = &fakePrincipals{}
		checklists = &fakeChecklists{}
		perms := fakePermissions{sets: map[int64]permission.Set{
			mechanicID: permission.NewSet(permission.ChecklistsView),
			managerID:  permission.NewSet(permission.ChecklistsView, permission.ChecklistsManage),
		}}

		router = rest.NewRouter(rest.Options{
			Tenants:         fakeTenants{},
			TenantExtractor: tenant.Chain(tenant.HeaderExtractor("X-Tenant"), tenant.PathExtractor("tenant")),
			Principals:      principals,
			Gate:            middleware.NewGate(perms, permission.DefaultRegistry, lg),
			AuditScheduler:  nopScheduler{},
			Logger:          lg,
		}, rest.Handlers{
			Health:    rest.NewHealthHandler(transport.NewBaseHandler(lg), nil, nil),
			Checklist: checklist.NewHandler(transport.NewBaseHandler(lg), checklists),
		})
	})

	createChecklist := func(path, tenantRef, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"vehicle_id": 3, "title": "Daily inspection"}`))
		req.Header.Set("Content-Type", "application/json")
		if tenantRef != "" {
			req.Header.Set("X-Tenant", tenantRef)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("serves health without a tenant", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("forbids a mechanic from managing checklists", func() {
		w := createChecklist("/api/v1/checklists", "acme", "mechanic")

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodePermissionDenied)))
		Expect(checklists.Created()).To(BeZero())
	})

	It("lets a manager create a checklist", func() {
		w := createChecklist("/api/v1/checklists", "acme", "manager")

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(checklists.Created()).To(Equal(1))
	})

	It("rejects a suspended tenant before authentication and the gate", func() {
		w := createChecklist("/api/v1/checklists", "frozen", "manager")

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeTenantInactive)))
		Expect(principals.Calls()).To(BeZero())
		Expect(checklists.Created()).To(BeZero())
	})

	It("answers 404 when no tenant is given", func() {
		w := createChecklist("/api/v1/checklists", "", "manager")

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeTenantNotFound)))
	})

	It("resolves the tenant from the path", func() {
		w := createChecklist("/api/v1/t/frozen/checklists", "", "manager")
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeTenantInactive)))

		w = createChecklist("/api/v1/t/acme/checklists", "", "manager")
		Expect(w.Code).To(Equal(http.StatusCreated))
	})

	It("answers 401 to an anonymous caller on a gated route", func() {
		w := createChecklist("/api/v1/checklists", "acme", "")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeUnauthenticated)))
	})
})
