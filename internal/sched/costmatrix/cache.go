package costmatrix

import "colony.ai/internal/sim/world/kernel/model"

// ZoneSource yields zone state; nil means the zone is not observable.
type ZoneSource interface {
	Zone(id model.ZoneID) *model.Zone
}

// Cache memoises one Matrix per zone until the next Invalidate. Entries are
// built on first access and never modified afterwards.
type Cache struct {
	src    ZoneSource
	params Params
	mats   map[model.ZoneID]*Matrix
	builds int

	// last lookup, hot in pathfinding
	lastID  model.ZoneID
	lastMat *Matrix
}

func NewCache(src ZoneSource, p Params) *Cache {
	return &Cache{src: src, params: p, mats: map[model.ZoneID]*Matrix{}}
}

// Bind swaps the zone source and drops every entry.
func (c *Cache) Bind(src ZoneSource) {
	c.src = src
	c.Invalidate()
}

func (c *Cache) Invalidate() {
	c.mats = map[model.ZoneID]*Matrix{}
	c.builds = 0
	c.lastMat = nil
}

// Builds counts matrices built since the last Invalidate.
func (c *Cache) Builds() int { return c.builds }

func (c *Cache) Matrix(id model.ZoneID) *Matrix {
	if c.lastMat != nil && c.lastID == id {
		return c.lastMat
	}
	m, ok := c.mats[id]
	if !ok {
		var z *model.Zone
		if c.src != nil {
			z = c.src.Zone(id)
		}
		if z == nil {
			m = Unobserved(id, c.params)
		} else {
			m = Build(z, c.params)
			c.builds++
		}
		c.mats[id] = m
	}
	c.lastID, c.lastMat = id, m
	return m
}

// Cost adapts the cache to pathfind.CostFunc.
func (c *Cache) Cost(gx, gy int) uint8 {
	p := model.FromGlobal(gx, gy)
	return c.Matrix(p.Zone).At(p.X, p.Y)
}
