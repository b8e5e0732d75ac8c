package projector

import (
	"context"
	"sort"

	"github.com/frahmantamala/fleet-backoffice/internal/permission"
)

// Capabilities maps module -> action -> allowed.
type Capabilities map[string]map[string]bool

// baseActions are reported for modules the registry does not know, so
// clients asking about a newer module get a stable all-false shape.
var baseActions = []string{"view", "create", "edit", "delete"}

type Checker interface {
	EffectivePermissions(ctx context.Context, userID int64) (permission.Set, error)
}

// Projector describes what a user may do, per module, for UI gating. It is
// read-only and never fails; lookup errors project as all-false.
type Projector struct {
	checker  Checker
	registry *permission.Registry
}

func New(checker Checker, registry *permission.Registry) *Projector {
	return &Projector{checker: checker, registry: registry}
}

func (p *Projector) Project(ctx context.Context, userID int64) Capabilities {
	modules := p.registry.Modules()
	names := make([]string, 0, len(modules))
	for m := range modules {
		names = append(names, m)
	}
	sort.Strings(names)
	return p.ProjectModules(ctx, userID, names)
}

func (p *Projector) ProjectModules(ctx context.Context, userID int64, modules []string) Capabilities {
	set := p.set(ctx, userID)
	registered := p.registry.Modules()

	caps := make(Capabilities, len(modules))
	for _, module := range modules {
		actions, known := registered[module]
		if !known {
			actions = baseActions
		}
		flags := make(map[string]bool, len(actions))
		for _, action := range actions {
			flags[action] = known && set.Has(permission.Key(module+"."+action))
		}
		caps[module] = flags
	}
	return caps
}

func (p *Projector) set(ctx context.Context, userID int64) permission.Set {
	set, err := p.checker.EffectivePermissions(ctx, userID)
	if err != nil {
		return permission.Set{}
	}
	return set
}
