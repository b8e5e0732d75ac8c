package permission

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load, which no longer follows any one
// caller's cancellation.
const loadTimeout = 5 * time.Second

// Cache holds effective permission sets across requests. Entries never
// expire; role and grant writes invalidate them.
type Cache struct {
	mu    sync.Mutex
	sets  *lru.Cache[int64, Set]
	group singleflight.Group
	gen   uint64
}

func NewCache(size int) (*Cache, error) {
	sets, err := lru.New[int64, Set](size)
	if err != nil {
		return nil, err
	}
	return &Cache{sets: sets}, nil
}

// Get returns the cached set for userID or fills it with load. Concurrent
// misses for the same user share one load, detached from any single caller;
// each caller stops waiting when its own ctx is done. A load that overlaps an
// invalidation is returned to its callers but not stored.
func (c *Cache) Get(ctx context.Context, userID int64, load func(context.Context) (Set, error)) (Set, error) {
	if s, ok := c.sets.Get(userID); ok {
		metrics.PermissionCacheLookups.WithLabelValues("hit").Inc()
		return s, nil
	}
	metrics.PermissionCacheLookups.WithLabelValues("miss").Inc()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	flight := strconv.FormatInt(userID, 10) + "@" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		s, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.sets.Add(userID, s)
		}
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Set), nil
	}
}

func (c *Cache) InvalidateUser(userID int64) {
	c.mu.Lock()
	c.gen++
	c.sets.Remove(userID)
	c.mu.Unlock()
	metrics.PermissionCacheInvalidations.WithLabelValues("user").Inc()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.gen++
	c.sets.Purge()
	c.mu.Unlock()
	metrics.PermissionCacheInvalidations.WithLabelValues("all").Inc()
}

func (c *Cache) Len() int {
	return c.sets.Len()
}
