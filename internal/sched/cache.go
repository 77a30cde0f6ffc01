package sched

import (
	"colony.ai/internal/sched/costmatrix"
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sched/zonestats"
)

// WorldCache holds the per-tick derived state shared by every agent turn.
// It is rebuilt lazily after each tick boundary and never patched.
type WorldCache struct {
	Costs *costmatrix.Cache
	Stats *zonestats.Cache

	tick    uint64
	started bool
}

func NewWorldCache(p costmatrix.Params) *WorldCache {
	return &WorldCache{
		Costs: costmatrix.NewCache(nil, p),
		Stats: zonestats.NewCache(nil),
	}
}

// OnTickStart binds the caches to w and drops every entry, once per
// distinct tick. It reports whether anything was invalidated.
func (c *WorldCache) OnTickStart(w host.Zones) bool {
	t := w.Tick()
	if c.started && c.tick == t {
		return false
	}
	c.started = true
	c.tick = t
	c.Costs.Bind(w)
	c.Stats.Bind(w)
	return true
}

// Invalidate forces a rebuild on the next access regardless of tick.
func (c *WorldCache) Invalidate() {
	c.Costs.Invalidate()
	c.Stats.Invalidate()
}
