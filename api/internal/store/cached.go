package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"assessment-pipeline/api/internal/types"
)

// Cached puts an LRU of artifacts by run id in front of another Repository.
// Saves write through; lists and stats always hit the backing store.
type Cached struct {
	Repository
	lru *lru.Cache[string, types.RunArtifact]
}

// NewCached wraps repo. A size <= 0 returns repo unchanged.
func NewCached(repo Repository, size int) (Repository, error) {
	if size <= 0 {
		return repo, nil
	}
	c, err := lru.New[string, types.RunArtifact](size)
	if err != nil {
		return nil, err
	}
	return &Cached{Repository: repo, lru: c}, nil
}

func (c *Cached) Save(ctx context.Context, a types.RunArtifact) (string, error) {
	id, err := c.Repository.Save(ctx, a)
	if err != nil {
		c.lru.Remove(a.RunID)
		return "", err
	}
	c.lru.Add(id, a.Clone())
	return id, nil
}

func (c *Cached) Get(ctx context.Context, runID string) (types.RunArtifact, error) {
	if a, ok := c.lru.Get(runID); ok {
		return a.Clone(), nil
	}
	a, err := c.Repository.Get(ctx, runID)
	if err != nil {
		return types.RunArtifact{}, err
	}
	c.lru.Add(runID, a.Clone())
	return a, nil
}

func (c *Cached) Clear(ctx context.Context) error {
	c.lru.Purge()
	return c.Repository.Clear(ctx)
}

// Len reports how many artifacts are cached.
func (c *Cached) Len() int { return c.lru.Len() }
