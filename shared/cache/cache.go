package cache

import (
	"sort"
	"sync"

	"cistatus/shared/model"
)

// BranchStatusCache maps branch name to its latest BuildResult. It is a
// write-through view of the result store: seeded once at boot, then updated
// by the ingestion pipeline after every successful store write. The store
// stays the source of truth.
type BranchStatusCache struct {
	mutex    sync.RWMutex
	branches map[string]*model.BuildResult
}

func New() *BranchStatusCache {
	return &BranchStatusCache{
		branches: make(map[string]*model.BuildResult),
	}
}

// Seed replaces the cache content with the store's rows. Called once at boot.
func (c *BranchStatusCache) Seed(results []*model.BuildResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.branches = make(map[string]*model.BuildResult, len(results))
	for _, r := range results {
		c.branches[r.Branch] = r
	}
}

// Set records the latest result for a branch. Must only be called after the
// corresponding store write committed.
func (c *BranchStatusCache) Set(branch string, result *model.BuildResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.branches[branch] = result
}

// Get returns the latest result for a branch, or nil when unknown.
func (c *BranchStatusCache) Get(branch string) *model.BuildResult {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.branches[branch]
}

// GetMany returns the latest results for the requested branches in the
// requested order, silently skipping unknown branches. A nil or empty
// request returns every known branch in branch-name order.
func (c *BranchStatusCache) GetMany(branches []string) []*model.BuildResult {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if len(branches) == 0 {
		names := make([]string, 0, len(c.branches))
		for name := range c.branches {
			names = append(names, name)
		}
		sort.Strings(names)

		results := make([]*model.BuildResult, 0, len(names))
		for _, name := range names {
			results = append(results, c.branches[name])
		}
		return results
	}

	results := make([]*model.BuildResult, 0, len(branches))
	for _, name := range branches {
		if r, ok := c.branches[name]; ok {
			results = append(results, r)
		}
	}
	return results
}

// Len returns the number of known branches.
func (c *BranchStatusCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.branches)
}
