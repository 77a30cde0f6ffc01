package zonestats

import (
	"math"
	"testing"

	"colony.ai/internal/sim/world/kernel/model"
)

type zones map[model.ZoneID]*model.Zone

func (z zones) Zone(id model.ZoneID) *model.Zone { return z[id] }

func damagedZone() *model.Zone {
	z := model.NewZone(model.ZoneID{})
	z.Structures = []*model.Structure{
		{ID: "w1", Kind: model.StructWall, Hits: 1000, HitsMax: 300000},
		{ID: "w2", Kind: model.StructWall, Hits: 3000, HitsMax: 300000},
		{ID: "r1", Kind: model.StructRampart, Owner: model.OwnerMine, Hits: 5000, HitsMax: 300000},
		{ID: "road", Kind: model.StructRoad, Hits: 2500, HitsMax: 5000},
		{ID: "ext", Kind: model.StructExtension, Owner: model.OwnerMine, Hits: 1000, HitsMax: 1000},
		{ID: "box", Kind: model.StructContainer, Hits: 100000, HitsMax: 250000},
		{ID: "enemy", Kind: model.StructTower, Owner: model.OwnerHostile, Hits: 1, HitsMax: 3000},
	}
	z.Sites = []*model.ConstructionSite{
		{ID: "c1", Kind: model.StructRoad, Owner: model.OwnerMine, Progress: 100, ProgressTotal: 300},
		{ID: "c2", Kind: model.StructExtension, Owner: model.OwnerMine, Progress: 0, ProgressTotal: 3000},
		{ID: "c3", Kind: model.StructSpawn, Owner: model.OwnerHostile, Progress: 0, ProgressTotal: 15000},
	}
	return z
}

func TestCompute(t *testing.T) {
	st := Compute(damagedZone())
	if st.BarrierHits.Count != 3 || st.BarrierHits.Min != 1000 || st.BarrierHits.Mean != 3000 {
		t.Fatalf("barrier hits: %+v", st.BarrierHits)
	}
	if st.BarrierRemaining.Min != 295000 {
		t.Fatalf("barrier remaining: %+v", st.BarrierRemaining)
	}
	if st.HitRatio.Count != 2 || math.Abs(st.HitRatio.Min-0.4) > 1e-9 || math.Abs(st.HitRatio.Mean-0.45) > 1e-9 {
		t.Fatalf("hit ratio: %+v", st.HitRatio)
	}
	if st.SiteRemaining.Count != 2 || st.SiteRemaining.Min != 200 || st.SiteRemaining.Mean != 1600 {
		t.Fatalf("sites: %+v", st.SiteRemaining)
	}
	if st.BuildThreshold() != 1601 {
		t.Fatalf("build threshold: %d", st.BuildThreshold())
	}
	// 1000 + (3000-1000)/1000 + 1
	if st.BarrierThreshold(1000) != 1003 {
		t.Fatalf("barrier threshold: %d", st.BarrierThreshold(1000))
	}
}

func TestCacheInvalidate(t *testing.T) {
	z := damagedZone()
	c := NewCache(zones{z.ID: z})
	first := c.Stats(z.ID)
	z.Sites = nil
	if c.Stats(z.ID).SiteRemaining != first.SiteRemaining {
		t.Fatalf("stats changed mid-tick")
	}
	c.Invalidate()
	if c.Stats(z.ID).SiteRemaining.Count != 0 {
		t.Fatalf("expected recompute after invalidate")
	}
	if st := c.Stats(model.ZoneID{X: 9}); st.HitRatio.Count != 0 {
		t.Fatalf("unobservable zone should be empty")
	}
}
