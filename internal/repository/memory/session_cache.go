package memory

import (
	"time"

	"research-assistant-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionCache keeps recently loaded sessions so repeated status reads skip
// the blob decode. Entries are copies; callers never share a pointer with it.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache(ttl, cleanupInterval time.Duration) *SessionCache {
	return &SessionCache{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (r *SessionCache) Save(session *entity.ResearchSession) {
	c, err := session.Clone()
	if err != nil {
		r.cache.Delete(session.Id)
		return
	}
	r.cache.Set(session.Id, c, cache.DefaultExpiration)
}

func (r *SessionCache) Get(sessionID string) (*entity.ResearchSession, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	c, err := x.(*entity.ResearchSession).Clone()
	if err != nil {
		return nil, false
	}
	return c, true
}

func (r *SessionCache) Delete(sessionIDs ...string) {
	for _, id := range sessionIDs {
		r.cache.Delete(id)
	}
}

func (r *SessionCache) Flush() {
	r.cache.Flush()
}

func (r *SessionCache) Len() int {
	return r.cache.ItemCount()
}
