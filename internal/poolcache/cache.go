// Package poolcache implements PoolCache (§4.3): a TTL-expiring table of
// pool snapshots that derives an undirected multigraph view for the
// pathfinder. It is the one component in the core that is touched directly
// by concurrent collaborator-driven refreshes, so it owns a single
// sync.RWMutex guarding its table and derived graph (§5).
package poolcache

import (
	"sync"

	"github.com/ammrouter/quoter/internal/clock"
	"github.com/ammrouter/quoter/internal/domain"
)

// DefaultTTLMs is the time a snapshot stays live after capture when no
// explicit TTL is configured.
const DefaultTTLMs = 30_000

// Stats mirrors RouterStats' cache-facing fields plus the raw hit/miss
// counters they are derived from.
type Stats struct {
	Size       int
	Hits       int64
	Misses     int64
	HitRate    float64
	TokenCount int
}

// Cache is PoolCache. The zero value is not usable; construct with New.
type Cache struct {
	clock clock.Clock

	mu      sync.RWMutex
	ttlMs   int64
	entries map[domain.PoolId]domain.CacheEntry
	// insertOrder records the order pool ids were first inserted, since Go
	// map iteration order is randomized per run; rebuildAdjacencyLocked
	// walks this instead of c.entries so rebuilds stay deterministic.
	insertOrder []domain.PoolId
	// adjacency maps a normalised token to the set of live-at-insert pool
	// ids incident to it, in insertion order, matching the spec's
	// insertion-order iteration requirement for deterministic pathfinding.
	adjacency map[domain.TokenId][]domain.PoolId

	hits   int64
	misses int64
}

// New constructs a Cache with the given Clock and TTL.
func New(c clock.Clock, ttlMs int64) *Cache {
	if ttlMs <= 0 {
		ttlMs = DefaultTTLMs
	}
	return &Cache{
		clock:     c,
		ttlMs:     ttlMs,
		entries:   make(map[domain.PoolId]domain.CacheEntry),
		adjacency: make(map[domain.TokenId][]domain.PoolId),
	}
}

// Put inserts or replaces a pool snapshot, setting expires_at = now + TTL
// and updating the graph's incident edges for the pool's two tokens.
func (c *Cache) Put(snapshot domain.PoolSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(snapshot)
	return nil
}

// PutMany batches Put over snapshots. Every snapshot is validated before any
// is inserted; on the first validation failure it returns that error and
// inserts none of them.
func (c *Cache) PutMany(snapshots []domain.PoolSnapshot) error {
	for _, s := range snapshots {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range snapshots {
		c.putLocked(s)
	}
	return nil
}

func (c *Cache) putLocked(snapshot domain.PoolSnapshot) {
	id := snapshot.PoolID.Normalize()
	_, existed := c.entries[id]
	c.entries[id] = domain.CacheEntry{
		Snapshot:  snapshot,
		ExpiresAt: c.clock.NowMs() + c.ttlMs,
	}
	if !existed {
		c.insertOrder = append(c.insertOrder, id)
		c.appendAdjacency(snapshot.TokenA.Normalize(), id)
		c.appendAdjacency(snapshot.TokenB.Normalize(), id)
	}
}

func (c *Cache) appendAdjacency(token domain.TokenId, id domain.PoolId) {
	list := c.adjacency[token]
	for _, existing := range list {
		if existing == id {
			return
		}
	}
	c.adjacency[token] = append(list, id)
}

// Get returns the live snapshot for id, or false if missing or expired. An
// expired entry found this way is removed lazily. Every call is tallied as
// a hit or a miss.
func (c *Cache) Get(id domain.PoolId) (domain.PoolSnapshot, bool) {
	nid := id.Normalize()
	now := c.clock.NowMs()

	c.mu.RLock()
	entry, found := c.entries[nid]
	c.mu.RUnlock()

	if !found || !entry.Live(now) {
		c.mu.Lock()
		if found && !entry.Live(now) {
			c.removeLocked(nid)
		}
		c.misses++
		c.mu.Unlock()
		return domain.PoolSnapshot{}, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.Snapshot, true
}

// Has reports liveness. It is implemented as Get and discards the snapshot,
// matching §4.3's "get without returning data", so each call is tallied as a
// hit or a miss just like Get.
func (c *Cache) Has(id domain.PoolId) bool {
	_, ok := c.Get(id)
	return ok
}

// Remove deletes id and rebuilds the graph from the remaining entries.
func (c *Cache) Remove(id domain.PoolId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id.Normalize())
}

func (c *Cache) removeLocked(id domain.PoolId) {
	delete(c.entries, id)
	c.rebuildAdjacencyLocked()
}

// rebuildAdjacencyLocked rebuilds the token->pool incidence lists by walking
// insertOrder and keeping only ids still present in c.entries, rather than
// ranging over c.entries directly — map iteration order is randomized per
// run, which would make the rebuilt adjacency (and so Pathfinder's
// enumeration order) non-deterministic across processes. insertOrder itself
// is compacted to the surviving ids as a side effect, so it never grows
// past the live entry count.
func (c *Cache) rebuildAdjacencyLocked() {
	c.adjacency = make(map[domain.TokenId][]domain.PoolId, len(c.adjacency))
	kept := make([]domain.PoolId, 0, len(c.insertOrder))
	for _, id := range c.insertOrder {
		entry, ok := c.entries[id]
		if !ok {
			continue
		}
		kept = append(kept, id)
		c.appendAdjacency(entry.Snapshot.TokenA.Normalize(), id)
		c.appendAdjacency(entry.Snapshot.TokenB.Normalize(), id)
	}
	c.insertOrder = kept
}

// AllLive returns every currently-live snapshot, purging any expired
// entries it encounters along the way.
func (c *Cache) AllLive() []domain.PoolSnapshot {
	now := c.clock.NowMs()
	c.mu.Lock()
	defer c.mu.Unlock()

	live := make([]domain.PoolSnapshot, 0, len(c.entries))
	var expired []domain.PoolId
	for id, entry := range c.entries {
		if entry.Live(now) {
			live = append(live, entry.Snapshot)
		} else {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(c.entries, id)
	}
	if len(expired) > 0 {
		c.rebuildAdjacencyLocked()
	}
	return live
}

// PoolsForToken returns the pools incident to t, in insertion order, live
// snapshots only.
func (c *Cache) PoolsForToken(t domain.TokenId) []domain.PoolSnapshot {
	now := c.clock.NowMs()
	nt := t.Normalize()

	c.mu.RLock()
	ids := append([]domain.PoolId(nil), c.adjacency[nt]...)
	c.mu.RUnlock()

	out := make([]domain.PoolSnapshot, 0, len(ids))
	c.mu.RLock()
	for _, id := range ids {
		if entry, ok := c.entries[id]; ok && entry.Live(now) {
			out = append(out, entry.Snapshot)
		}
	}
	c.mu.RUnlock()
	return out
}

// TokenGraph is the derived multigraph view handed to the pathfinder:
// tokens are nodes, pools are labelled edges, and two pools between the
// same pair are distinct edges.
type TokenGraph struct {
	Adjacency map[domain.TokenId][]domain.PoolSnapshot
}

// Graph returns the current multigraph view. Snapshots in the view may
// expire between the view being taken and used; consumers must tolerate
// this (§4.3).
func (c *Cache) Graph() TokenGraph {
	now := c.clock.NowMs()
	c.mu.RLock()
	defer c.mu.RUnlock()

	g := TokenGraph{Adjacency: make(map[domain.TokenId][]domain.PoolSnapshot, len(c.adjacency))}
	for token, ids := range c.adjacency {
		edges := make([]domain.PoolSnapshot, 0, len(ids))
		for _, id := range ids {
			if entry, ok := c.entries[id]; ok && entry.Live(now) {
				edges = append(edges, entry.Snapshot)
			}
		}
		g.Adjacency[token] = edges
	}
	return g
}

// CleanExpired sweeps every entry, removes the ones no longer live, rebuilds
// the graph if anything was purged, and returns the number purged.
func (c *Cache) CleanExpired() int {
	now := c.clock.NowMs()
	c.mu.Lock()
	defer c.mu.Unlock()

	var purged []domain.PoolId
	for id, entry := range c.entries {
		if !entry.Live(now) {
			purged = append(purged, id)
		}
	}
	for _, id := range purged {
		delete(c.entries, id)
	}
	if len(purged) > 0 {
		c.rebuildAdjacencyLocked()
	}
	return len(purged)
}

// Stats reports size, hit/miss counters and derived hit rate, and the
// number of distinct tokens currently in the graph.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:       len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
		HitRate:    rate,
		TokenCount: len(c.adjacency),
	}
}

// SetTTL changes the TTL applied to entries inserted from this point on;
// entries already in the cache keep their existing expiry.
func (c *Cache) SetTTL(newTTLMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttlMs = newTTLMs
}

// Clear discards every entry and the derived graph. It backs the Router
// façade's clear_cache and the force path of refresh_pools; it is not one
// of §4.3's enumerated PoolCache operations on its own, but those all
// assume an existing table to mutate incrementally, and the façade needs a
// way to start over.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domain.PoolId]domain.CacheEntry)
	c.adjacency = make(map[domain.TokenId][]domain.PoolId)
	c.insertOrder = nil
}
