package permission

import (
	"context"
	"log/slog"
)

// Source loads the raw permission keys a user holds through roles and
// direct grants. Duplicates are fine.
type Source interface {
	PermissionKeys(ctx context.Context, userID int64) ([]string, error)
}

// Invalidator is the write side of the shared cache, used by services that
// change role membership or role contents.
type Invalidator interface {
	InvalidateUser(userID int64)
	InvalidateAll()
}

type Resolver struct {
	source Source
	cache  *Cache
	logger *slog.Logger
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(source Source, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) (Set, error) {
	m := memoFrom(ctx)
	if m != nil {
		if s, ok := m.get(userID); ok {
			return s, nil
		}
	}

	var (
		s   Set
		err error
	)
	if r.cache != nil {
		s, err = r.cache.Get(ctx, userID, func(ctx context.Context) (Set, error) {
			return r.load(ctx, userID)
		})
	} else {
		s, err = r.load(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	if m != nil {
		m.put(userID, s)
	}
	return s, nil
}

func (r *Resolver) load(ctx context.Context, userID int64) (Set, error) {
	raw, err := r.source.PermissionKeys(ctx, userID)
	if err != nil {
		return nil, err
	}
	s := make(Set, len(raw))
	for _, k := range raw {
		key, err := ParseKey(k)
		if err != nil {
			r.logger.Warn("ignoring malformed stored permission", "key", k, "user_id", userID)
			continue
		}
		s[key] = struct{}{}
	}
	return s, nil
}

// Has fails closed: a storage error is logged and reported as false.
func (r *Resolver) Has(ctx context.Context, userID int64, key Key) bool {
	s, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		r.logger.Error("permission lookup failed", "user_id", userID, "key", key, "error", err)
		return false
	}
	return s.Has(key)
}

func (r *Resolver) HasAny(ctx context.Context, userID int64, keys []Key) bool {
	if len(keys) == 0 {
		return false
	}
	s, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		r.logger.Error("permission lookup failed", "user_id", userID, "keys", keys, "error", err)
		return false
	}
	return s.HasAny(keys...)
}

func (r *Resolver) HasAll(ctx context.Context, userID int64, keys []Key) bool {
	if len(keys) == 0 {
		return true
	}
	s, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		r.logger.Error("permission lookup failed", "user_id", userID, "keys", keys, "error", err)
		return false
	}
	return s.HasAll(keys...)
}

// InvalidateUser and InvalidateAll pass through to the shared cache when
// one is configured, so services depend on the resolver alone.
func (r *Resolver) InvalidateUser(userID int64) {
	if r.cache != nil {
		r.cache.InvalidateUser(userID)
	}
}

func (r *Resolver) InvalidateAll() {
	if r.cache != nil {
		r.cache.InvalidateAll()
	}
}
