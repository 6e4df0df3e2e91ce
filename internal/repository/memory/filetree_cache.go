package memory

import (
	"time"

	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// FileTreeCache holds the live file tree of recently active projects.
// Trees are stored as values and never mutated in place.
type FileTreeCache struct {
	cache *cache.Cache
}

func NewFileTreeCache(ttl time.Duration) *FileTreeCache {
	// purge expired items every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &FileTreeCache{
		cache: c,
	}
}

func (r *FileTreeCache) Save(projectID uuid.UUID, tree filetree.Tree) {
	r.cache.Set(projectID.String(), tree, cache.DefaultExpiration)
}

func (r *FileTreeCache) Get(projectID uuid.UUID) (filetree.Tree, bool) {
	if x, found := r.cache.Get(projectID.String()); found {
		return x.(filetree.Tree), true
	}
	return nil, false
}

func (r *FileTreeCache) Delete(projectID uuid.UUID) {
	r.cache.Delete(projectID.String())
}
