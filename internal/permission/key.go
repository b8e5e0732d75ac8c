package permission

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/frahmantamala/fleet-backoffice/internal"
)

// Key is a dot-namespaced permission identifier, module.action or
// module.submodule.action. The string form is what role_permissions stores.
type Key string

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*){1,2}$`)

func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if !keyPattern.MatchString(s) {
		return "", fmt.Errorf("malformed permission key %q", s)
	}
	return Key(s), nil
}

// Module is everything before the last segment.
func (k Key) Module() string {
	s := string(k)
	if i := strings.LastIndex(s, "."); i > 0 {
		return s[:i]
	}
	return s
}

func (k Key) Action() string {
	s := string(k)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return ""
}

func (k Key) String() string {
	return string(k)
}

func Keys(ss ...string) []Key {
	keys := make([]Key, len(ss))
	for i, s := range ss {
		keys[i] = Key(s)
	}
	return keys
}

func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

// Registry is the set of keys the application knows about. Gates refuse
// unregistered keys and the lint command compares storage against it.
type Registry struct {
	mu   sync.RWMutex
	keys map[Key]string
}

func NewRegistry() *Registry {
	return &Registry{keys: make(map[Key]string)}
}

func (r *Registry) Register(key string, description string) (Key, error) {
	k, err := ParseKey(key)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k] = description
	return k, nil
}

func (r *Registry) MustRegister(key string, description string) Key {
	k, err := r.Register(key, description)
	if err != nil {
		panic(err)
	}
	return k
}

func (r *Registry) Has(k Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[k]
	return ok
}

// Validate reports an UNKNOWN_PERMISSION error naming the first key the
// registry does not hold.
func (r *Registry) Validate(keys ...Key) error {
	for _, k := range keys {
		if !r.Has(k) {
			return internal.NewValidationError(fmt.Sprintf("Unknown permission key %q", k), internal.ErrCodeUnknownPermission).
				WithDetails(map[string]string{"key": string(k)})
		}
	}
	return nil
}

func (r *Registry) Description(k Key) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[k]
}

func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Key, 0, len(r.keys))
	for k := range r.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Modules maps each module to its registered actions, sorted.
func (r *Registry) Modules() map[string][]string {
	modules := make(map[string][]string)
	for _, k := range r.Keys() {
		modules[k.Module()] = append(modules[k.Module()], k.Action())
	}
	return modules
}

var (
	DefaultRegistry = NewRegistry()

	ChecklistsView   = DefaultRegistry.MustRegister("checklists.view", "View vehicle checklists")
	ChecklistsCreate = DefaultRegistry.MustRegister("checklists.create", "Create vehicle checklists")
	ChecklistsEdit   = DefaultRegistry.MustRegister("checklists.edit", "Edit vehicle checklists")
	ChecklistsDelete = DefaultRegistry.MustRegister("checklists.delete", "Delete vehicle checklists")
	ChecklistsManage = DefaultRegistry.MustRegister("checklists.manage", "Create, update, delete and restore checklists")

	VehiclesView   = DefaultRegistry.MustRegister("vehicles.view", "View vehicles")
	VehiclesCreate = DefaultRegistry.MustRegister("vehicles.create", "Register vehicles")
	VehiclesEdit   = DefaultRegistry.MustRegister("vehicles.edit", "Edit vehicles")
	VehiclesDelete = DefaultRegistry.MustRegister("vehicles.delete", "Retire vehicles")

	TiresView   = DefaultRegistry.MustRegister("vehicles.tires.view", "View tire records")
	TiresManage = DefaultRegistry.MustRegister("vehicles.tires.manage", "Manage tire records")

	MenusView   = DefaultRegistry.MustRegister("menus.view", "View navigation menus")
	MenusManage = DefaultRegistry.MustRegister("menus.manage", "Edit navigation menus")

	RolesView   = DefaultRegistry.MustRegister("roles.view", "View roles")
	RolesManage = DefaultRegistry.MustRegister("roles.manage", "Manage roles and assignments")

	UsersView = DefaultRegistry.MustRegister("users.view", "View users")

	AuditLogsView   = DefaultRegistry.MustRegister("audit_logs.view", "Browse the audit trail")
	AuditLogsExport = DefaultRegistry.MustRegister("audit_logs.export", "Export the audit trail")
)
