package session

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// #region cached
// Cached is a read-through LRU cache in front of another Store. Saves write
// through and refresh the cached entry.
type Cached struct {
	next  Store
	cache *lru.Cache[string, Snapshot]
}

// NewCached wraps next with a cache holding up to size sessions.
func NewCached(next Store, size int) (*Cached, error) {
	c, err := lru.New[string, Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Cached{next: next, cache: c}, nil
}

func (c *Cached) Save(ctx context.Context, snap Snapshot) error {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	if err := c.next.Save(ctx, snap); err != nil {
		c.cache.Remove(snap.Name)
		return err
	}
	c.cache.Add(snap.Name, snap)
	return nil
}

func (c *Cached) Load(ctx context.Context, name string) (Snapshot, error) {
	if snap, ok := c.cache.Get(name); ok {
		return snap, nil
	}
	snap, err := c.next.Load(ctx, name)
	if err != nil {
		return Snapshot{}, err
	}
	c.cache.Add(name, snap)
	return snap, nil
}

// List delegates to the wrapped store when it can list.
func (c *Cached) List(ctx context.Context, limit int) ([]Snapshot, error) {
	l, ok := c.next.(Lister)
	if !ok {
		return nil, fmt.Errorf("session store %T cannot list", c.next)
	}
	return l.List(ctx, limit)
}

// Unwrap returns the wrapped store.
func (c *Cached) Unwrap() Store { return c.next }

// Len reports how many sessions are cached.
func (c *Cached) Len() int { return c.cache.Len() }

// #endregion cached
