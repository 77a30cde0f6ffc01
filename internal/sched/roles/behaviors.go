package roles

import (
	"math"

	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/targeting"
	"colony.ai/internal/sim/world/kernel/model"
)

// Behavior runs one role's work for the turn and reports whether it acted.
type Behavior func(c *Context) bool

var behaviors = map[Role]Behavior{
	HarvesterSpawn:   feedSpawn,
	Harvester:        deliver,
	HarvesterMineral: deliver,
	Builder:          build,
	Repairer:         repair,
	Upgrader:         upgrade,
}

// Run walks r's fallback chain and returns the role whose behavior acted.
func Run(c *Context, r Role) (Role, bool) {
	for _, step := range Chain(r) {
		b, ok := behaviors[step]
		if !ok {
			continue
		}
		if b(c) {
			return step, true
		}
	}
	return None, false
}

// repairRange is how far build, repair and upgrade reach.
const repairRange = 3

var spawnSinks = []model.StructureKind{model.StructSpawn, model.StructExtension, model.StructTower}

func feedSpawn(c *Context) bool {
	a := c.Agent
	if a.Store.Of(model.ResourceEnergy) <= 0 {
		return false
	}
	if z := c.Zone(); z != nil {
		for _, s := range z.StructuresOf(spawnSinks...) {
			if !s.Mine() || s.Store.FreeFor(model.ResourceEnergy) <= 0 || !a.Pos.IsNearTo(s.Pos) {
				continue
			}
			if c.Transfer(s.ID, model.ResourceEnergy).Ok() {
				return true
			}
		}
	}
	return c.Follow(c.Targets.FindTransferTarget(a, model.ResourceEnergy, targeting.Exclusions{}, c.Targets.SpawnSinks()))
}

func deliver(c *Context) bool {
	a := c.Agent
	types := a.Store.Types()
	if len(types) == 0 {
		return false
	}
	ex := c.Exclusions()
	if z := c.Zone(); z != nil {
		for _, rt := range types {
			for _, s := range z.StructuresOf(c.Targets.SinkKinds(rt)...) {
				if !s.Usable() || ex.Excludes(s.Kind) || s.Store.FreeFor(rt) <= 0 || !a.Pos.IsNearTo(s.Pos) {
					continue
				}
				if c.Transfer(s.ID, rt).Ok() {
					return true
				}
			}
		}
	}
	for _, rt := range types {
		if c.Follow(c.Targets.FindTransferTarget(a, rt, ex, nil)) {
			return true
		}
	}
	return false
}

func build(c *Context) bool {
	a := c.Agent
	z := c.Zone()
	if z == nil || a.Store.Of(model.ResourceEnergy) <= 0 {
		return false
	}
	th := c.Stats.Stats(z.ID).BuildThreshold()
	for _, site := range z.MySites() {
		if site.Remaining() > th || !a.Pos.InRangeTo(site.Pos, repairRange) {
			continue
		}
		if c.Build(site.ID).Ok() {
			return true
		}
	}
	return c.Follow(c.Targets.FindSite(a, th))
}

func repair(c *Context) bool {
	a := c.Agent
	z := c.Zone()
	if z == nil || a.Store.Of(model.ResourceEnergy) <= 0 {
		return false
	}
	st := c.Stats.Stats(z.ID)
	rp := c.Tuning.Repair
	ratioTh := st.RatioThreshold(rp.HitRatioEpsilon)
	barrierTh := st.BarrierThreshold(rp.BarrierSpreadDivisor)

	preds := []func(*model.Structure) bool{
		func(s *model.Structure) bool { return s.Kind == model.StructSpawn && s.Mine() },
		func(s *model.Structure) bool {
			return s.Kind != model.StructWall && c.lifetime(s) <= rp.DyingThresholdTicks
		},
		func(s *model.Structure) bool {
			return !s.Kind.Barrier() && float64(s.Hits)/float64(s.HitsMax) <= ratioTh
		},
		func(s *model.Structure) bool { return s.Kind.Barrier() && s.Hits <= barrierTh },
	}

	for _, pred := range preds {
		for _, s := range z.Structures {
			if !repairable(s) || !pred(s) || !a.Pos.InRangeTo(s.Pos, repairRange) {
				continue
			}
			if c.Repair(s.ID).Ok() {
				return true
			}
		}
	}
	for _, pred := range preds {
		pred := pred
		res := c.Targets.FindRepairTarget(a, func(s *model.Structure) bool { return repairable(s) && pred(s) })
		if c.Follow(res) {
			return true
		}
	}
	return false
}

func repairable(s *model.Structure) bool { return s.Usable() && s.Damaged() && s.Hits > 0 }

// lifetime estimates the ticks until s decays away. Kinds without decay
// tuning never count as dying.
func (c *Context) lifetime(s *model.Structure) int {
	d, ok := c.Tuning.Repair.Decay[string(s.Kind)]
	if !ok || d.Amount <= 0 || d.Interval <= 0 {
		return math.MaxInt
	}
	mult := 1
	if z := c.Host.Zone(s.Pos.Zone); z != nil && z.TerrainAt(s.Pos.X, s.Pos.Y) == model.TerrainSwamp && d.SwampMultiplier > 0 {
		mult = d.SwampMultiplier
	}
	return d.Interval * (s.Hits / (d.Amount * mult))
}

func upgrade(c *Context) bool {
	a := c.Agent
	z := c.Zone()
	if z == nil || a.Store.Of(model.ResourceEnergy) <= 0 {
		return false
	}
	ctrl := z.Controller()
	if ctrl == nil || !ctrl.Mine() {
		return false
	}
	code := c.Upgrade(ctrl.ID)
	if code == protocol.ErrNotInRange {
		return c.Follow(c.Targets.PathTo(a, ctrl.Pos, repairRange))
	}
	return code.Ok()
}
