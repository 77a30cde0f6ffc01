// Package zonestats computes per-zone damage and construction aggregates,
// cached until the next tick boundary.
package zonestats

import (
	"colony.ai/internal/sim/world/kernel/model"
)

type Agg struct {
	Count int
	Mean  float64
	Min   int
}

type RatioAgg struct {
	Count int
	Mean  float64
	Min   float64
}

type Stats struct {
	Zone model.ZoneID

	// Damaged walls and ramparts.
	BarrierRemaining Agg
	BarrierHits      Agg

	// Damaged structures that are not barriers.
	HitRatio RatioAgg
	Hits     Agg

	// Own construction sites, remaining progress.
	SiteRemaining Agg
}

// Compute scans the zone once.
func Compute(z *model.Zone) Stats {
	st := Stats{Zone: z.ID}
	var barRem, barHits, hits, sites accum
	var ratio ratioAccum
	for _, s := range z.Structures {
		if !s.Usable() || !s.Damaged() {
			continue
		}
		if s.Kind.Barrier() {
			barRem.add(s.HitsMax - s.Hits)
			barHits.add(s.Hits)
			continue
		}
		hits.add(s.Hits)
		ratio.add(float64(s.Hits) / float64(s.HitsMax))
	}
	for _, c := range z.MySites() {
		sites.add(c.Remaining())
	}
	st.BarrierRemaining = barRem.agg()
	st.BarrierHits = barHits.agg()
	st.Hits = hits.agg()
	st.HitRatio = ratio.agg()
	st.SiteRemaining = sites.agg()
	return st
}

// BuildThreshold admits sites at or below the mean remaining progress.
func (s Stats) BuildThreshold() int {
	return int(s.SiteRemaining.Mean) + 1
}

// RatioThreshold admits non-barriers at or below the mean hit ratio plus eps.
func (s Stats) RatioThreshold(eps float64) float64 {
	return s.HitRatio.Mean + eps
}

// BarrierThreshold admits the weakest barriers: min + (mean-min)/divisor + 1.
func (s Stats) BarrierThreshold(divisor int) int {
	if divisor <= 0 {
		divisor = 1
	}
	b := s.BarrierHits
	return b.Min + int(b.Mean-float64(b.Min))/divisor + 1
}

type accum struct {
	n   int
	sum int64
	min int
}

func (a *accum) add(v int) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	a.n++
	a.sum += int64(v)
}

func (a accum) agg() Agg {
	if a.n == 0 {
		return Agg{}
	}
	return Agg{Count: a.n, Mean: float64(a.sum) / float64(a.n), Min: a.min}
}

type ratioAccum struct {
	n   int
	sum float64
	min float64
}

func (a *ratioAccum) add(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	a.n++
	a.sum += v
}

func (a ratioAccum) agg() RatioAgg {
	if a.n == 0 {
		return RatioAgg{}
	}
	return RatioAgg{Count: a.n, Mean: a.sum / float64(a.n), Min: a.min}
}

// ZoneSource yields zone state; nil means the zone is not observable.
type ZoneSource interface {
	Zone(id model.ZoneID) *model.Zone
}

// Cache memoises Stats per zone until Invalidate.
type Cache struct {
	src   ZoneSource
	stats map[model.ZoneID]Stats
}

func NewCache(src ZoneSource) *Cache {
	return &Cache{src: src, stats: map[model.ZoneID]Stats{}}
}

func (c *Cache) Bind(src ZoneSource) {
	c.src = src
	c.Invalidate()
}

func (c *Cache) Invalidate() { c.stats = map[model.ZoneID]Stats{} }

// Stats returns zero aggregates for unobservable zones.
func (c *Cache) Stats(id model.ZoneID) Stats {
	if st, ok := c.stats[id]; ok {
		return st
	}
	st := Stats{Zone: id}
	if c.src != nil {
		if z := c.src.Zone(id); z != nil {
			st = Compute(z)
		}
	}
	c.stats[id] = st
	return st
}
