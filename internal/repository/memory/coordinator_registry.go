package memory

import (
	"time"

	"menu-lens-be/internal/progress"

	"github.com/patrickmn/go-cache"
)

// CoordinatorRegistry keeps the live coordinator for each session in memory.
// Sessions are short-lived, so entries expire after an hour of inactivity;
// eviction resets the coordinator so its event subscription is released
// rather than orphaned.
type CoordinatorRegistry struct {
	cache *cache.Cache
}

func NewCoordinatorRegistry() *CoordinatorRegistry {
	// Default expiration of 1 hour, expired entries purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	c.OnEvicted(func(sessionID string, v interface{}) {
		if coord, ok := v.(*progress.Coordinator); ok {
			coord.Reset()
		}
	})
	return &CoordinatorRegistry{cache: c}
}

func (r *CoordinatorRegistry) Save(sessionID string, coord *progress.Coordinator) {
	r.cache.Set(sessionID, coord, cache.DefaultExpiration)
}

func (r *CoordinatorRegistry) Get(sessionID string) (*progress.Coordinator, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*progress.Coordinator), true
	}
	return nil, false
}

func (r *CoordinatorRegistry) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
