package world

import (
	"colony.ai/internal/protocol"
	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/logic/mathx"
)

// Per-part rates.
const (
	harvestPerWork  = 2
	buildPerWork    = 5
	repairPerWork   = 100
	upgradePerWork  = 1
	attackPerPart   = 30
	rangedPerPart   = 10
	healPerPart     = 12
	depositCooldown = 5

	controllerLevelProgress = 1000
	controllerMaxLevel      = 8
)

type pendingMove struct {
	agent *model.Agent
	to    model.Pos
}

// ready rejects agents we don't control this tick.
func ready(a *model.Agent) protocol.Code {
	if a == nil || !a.Mine() || a.Hits <= 0 {
		return protocol.ErrFail
	}
	if a.Spawning {
		return protocol.ErrFail
	}
	return protocol.OK
}

// Move queues the first step of path; moves resolve after every agent acted.
func (w *World) Move(a *model.Agent, path []model.Pos) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	if a.Fatigue > 0 {
		return protocol.ErrTired
	}
	if a.Count(model.PartMove) == 0 {
		return protocol.ErrFail
	}
	if len(path) == 0 {
		return protocol.ErrNoPath
	}
	step := path[0]
	if model.Range(a.Pos, step) != 1 || !w.passable(step) {
		return protocol.ErrNoPath
	}
	for i, m := range w.moves {
		if m.agent == a {
			w.moves[i].to = step
			return protocol.OK
		}
	}
	w.moves = append(w.moves, pendingMove{agent: a, to: step})
	return protocol.OK
}

func (w *World) Harvest(a *model.Agent, targetID string) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	work := a.Count(model.PartWork)

	if s := w.findSource(targetID); s != nil {
		switch {
		case !a.Pos.IsNearTo(s.Pos):
			return protocol.ErrNotInRange
		case work == 0:
			return protocol.ErrFail
		case s.Energy <= 0:
			return protocol.ErrNotEnough
		case a.Store.Free() == 0:
			return protocol.ErrFull
		}
		n := mathx.MinInt(harvestPerWork*work, mathx.MinInt(s.Energy, a.Store.Free()))
		s.Energy -= n
		a.Store.Add(model.ResourceEnergy, n)
		if s.TicksToRegeneration == 0 {
			s.TicksToRegeneration = w.cfg.SourceRegen
		}
		return protocol.OK
	}

	if m, z := w.findMineral(targetID); m != nil {
		switch {
		case !a.Pos.IsNearTo(m.Pos):
			return protocol.ErrNotInRange
		case !z.HasExtractor(m.Pos) || work == 0:
			return protocol.ErrFail
		case m.Amount <= 0:
			return protocol.ErrNotEnough
		case a.Store.Free() == 0:
			return protocol.ErrFull
		}
		n := mathx.MinInt(work, mathx.MinInt(m.Amount, a.Store.Free()))
		m.Amount -= n
		a.Store.Add(m.Type, n)
		return protocol.OK
	}

	if d := w.findDeposit(targetID); d != nil {
		switch {
		case !a.Pos.IsNearTo(d.Pos):
			return protocol.ErrNotInRange
		case work == 0:
			return protocol.ErrFail
		case d.Cooldown > 0:
			return protocol.ErrTired
		case a.Store.Free() == 0:
			return protocol.ErrFull
		}
		a.Store.Add(d.Type, mathx.MinInt(work, a.Store.Free()))
		d.Cooldown = depositCooldown
		return protocol.OK
	}
	return protocol.ErrInvalidTarget
}

func (w *World) Pickup(a *model.Agent, dropID string) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	d, z := w.findDrop(dropID)
	switch {
	case d == nil:
		return protocol.ErrInvalidTarget
	case !a.Pos.IsNearTo(d.Pos):
		return protocol.ErrNotInRange
	case a.Store.Free() == 0:
		return protocol.ErrFull
	}
	n := mathx.MinInt(d.Amount, a.Store.Free())
	a.Store.Add(d.Type, n)
	d.Amount -= n
	if d.Amount <= 0 {
		z.Drops = removeDrop(z.Drops, d)
	}
	return protocol.OK
}

func (w *World) Withdraw(a *model.Agent, targetID string, rt model.ResourceType) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	var (
		store *model.Store
		pos   model.Pos
	)
	if s, _ := w.findStructure(targetID); s != nil {
		if !s.Usable() {
			return protocol.ErrFail
		}
		store, pos = s.Store, s.Pos
	} else if r := w.findRemains(targetID); r != nil {
		store, pos = r.Store, r.Pos
	}
	switch {
	case store == nil:
		return protocol.ErrInvalidTarget
	case !a.Pos.IsNearTo(pos):
		return protocol.ErrNotInRange
	case store.Of(rt) <= 0:
		return protocol.ErrNotEnough
	case a.Store.FreeFor(rt) == 0:
		return protocol.ErrFull
	}
	n := mathx.MinInt(store.Of(rt), a.Store.FreeFor(rt))
	store.Add(rt, -n)
	a.Store.Add(rt, n)
	return protocol.OK
}

func (w *World) Transfer(a *model.Agent, targetID string, rt model.ResourceType) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	s, _ := w.findStructure(targetID)
	switch {
	case s == nil || s.Store == nil:
		return protocol.ErrInvalidTarget
	case !a.Pos.IsNearTo(s.Pos):
		return protocol.ErrNotInRange
	case a.Store.Of(rt) <= 0:
		return protocol.ErrNotEnough
	case s.Store.FreeFor(rt) == 0:
		return protocol.ErrFull
	}
	n := mathx.MinInt(a.Store.Of(rt), s.Store.FreeFor(rt))
	a.Store.Add(rt, -n)
	s.Store.Add(rt, n)
	return protocol.OK
}

func (w *World) Build(a *model.Agent, siteID string) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	site, z := w.findSite(siteID)
	work := a.Count(model.PartWork)
	energy := a.Store.Of(model.ResourceEnergy)
	switch {
	case site == nil || site.Owner != model.OwnerMine:
		return protocol.ErrInvalidTarget
	case !a.Pos.InRangeTo(site.Pos, 3):
		return protocol.ErrNotInRange
	case work == 0:
		return protocol.ErrFail
	case energy <= 0:
		return protocol.ErrNotEnough
	}
	n := mathx.MinInt(buildPerWork*work, mathx.MinInt(energy, site.Remaining()))
	a.Store.Add(model.ResourceEnergy, -n)
	site.Progress += n
	if site.Remaining() <= 0 {
		z.Sites = removeSite(z.Sites, site)
		s := w.newStructure(site.Kind, site.Pos)
		s.Owner = site.Owner
		z.Structures = append(z.Structures, s)
	}
	return protocol.OK
}

func (w *World) Repair(a *model.Agent, structureID string) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	s, _ := w.findStructure(structureID)
	work := a.Count(model.PartWork)
	energy := a.Store.Of(model.ResourceEnergy)
	switch {
	case s == nil || !s.Usable() || s.HitsMax == 0:
		return protocol.ErrInvalidTarget
	case !a.Pos.InRangeTo(s.Pos, 3):
		return protocol.ErrNotInRange
	case work == 0:
		return protocol.ErrFail
	case !s.Damaged():
		return protocol.ErrFull
	case energy <= 0:
		return protocol.ErrNotEnough
	}
	spend := mathx.MinInt(work, energy)
	hits := mathx.MinInt(repairPerWork*spend, s.HitsMax-s.Hits)
	s.Hits += hits
	a.Store.Add(model.ResourceEnergy, -((hits + repairPerWork - 1) / repairPerWork))
	return protocol.OK
}

func (w *World) Upgrade(a *model.Agent, controllerID string) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	s, _ := w.findStructure(controllerID)
	work := a.Count(model.PartWork)
	energy := a.Store.Of(model.ResourceEnergy)
	switch {
	case s == nil || s.Kind != model.StructController || !s.Mine():
		return protocol.ErrInvalidTarget
	case !a.Pos.InRangeTo(s.Pos, 3):
		return protocol.ErrNotInRange
	case work == 0:
		return protocol.ErrFail
	case energy <= 0:
		return protocol.ErrNotEnough
	}
	n := mathx.MinInt(upgradePerWork*work, energy)
	a.Store.Add(model.ResourceEnergy, -n)
	s.Progress += n
	if need := s.Level * controllerLevelProgress; s.Level < controllerMaxLevel && s.Progress >= need {
		s.Progress -= need
		s.Level++
	}
	return protocol.OK
}

func (w *World) Attack(a *model.Agent, targetID string) protocol.Code {
	return w.strike(a, targetID, 1, attackPerPart*a.Count(model.PartAttack))
}

func (w *World) RangedAttack(a *model.Agent, targetID string) protocol.Code {
	return w.strike(a, targetID, 3, rangedPerPart*a.Count(model.PartRangedAttack))
}

func (w *World) strike(a *model.Agent, targetID string, rng, damage int) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	if damage == 0 {
		return protocol.ErrFail
	}
	if t, z := w.findAgent(targetID); t != nil {
		switch {
		case t.Mine():
			return protocol.ErrInvalidTarget
		case !a.Pos.InRangeTo(t.Pos, rng):
			return protocol.ErrNotInRange
		}
		t.Hits -= damage
		if t.Hits <= 0 {
			w.kill(z, t)
		}
		return protocol.OK
	}
	if s, z := w.findStructure(targetID); s != nil {
		switch {
		case s.Usable() || s.HitsMax == 0:
			return protocol.ErrInvalidTarget
		case !a.Pos.InRangeTo(s.Pos, rng):
			return protocol.ErrNotInRange
		}
		s.Hits -= damage
		if s.Hits <= 0 {
			w.destroy(z, s)
		}
		return protocol.OK
	}
	return protocol.ErrInvalidTarget
}

func (w *World) Heal(a *model.Agent, targetID string) protocol.Code {
	if c := ready(a); !c.Ok() {
		return c
	}
	t, _ := w.findAgent(targetID)
	heal := a.Count(model.PartHeal)
	switch {
	case t == nil || !t.Mine():
		return protocol.ErrInvalidTarget
	case !a.Pos.IsNearTo(t.Pos):
		return protocol.ErrNotInRange
	case heal == 0:
		return protocol.ErrFail
	case t.Hits >= t.HitsMax:
		return protocol.ErrFull
	}
	t.Hits = mathx.MinInt(t.HitsMax, t.Hits+healPerPart*heal)
	return protocol.OK
}

// kill removes a and leaves a tombstone holding its store.
func (w *World) kill(z *model.Zone, a *model.Agent) {
	z.Agents = removeAgent(z.Agents, a)
	if a.Store.Used() > 0 {
		z.Tombstones = append(z.Tombstones, &model.Remains{
			ID:    w.newID("tombstone"),
			Kind:  model.RemainsTombstone,
			Pos:   a.Pos,
			Store: a.Store.Clone(),
		})
	}
	for i, m := range w.moves {
		if m.agent == a {
			w.moves = append(w.moves[:i], w.moves[i+1:]...)
			break
		}
	}
	if a.Mine() {
		w.died = append(w.died, a.ID)
		w.totalDeaths++
	}
}

// destroy removes s and leaves a ruin when it held anything.
func (w *World) destroy(z *model.Zone, s *model.Structure) {
	z.Structures = removeStructure(z.Structures, s)
	if s.Store.Used() > 0 {
		z.Ruins = append(z.Ruins, &model.Remains{
			ID:    w.newID("ruin"),
			Kind:  model.RemainsRuin,
			Pos:   s.Pos,
			Store: s.Store.Clone(),
		})
	}
}

func removeAgent(in []*model.Agent, a *model.Agent) []*model.Agent {
	for i, v := range in {
		if v == a {
			return append(in[:i], in[i+1:]...)
		}
	}
	return in
}

func removeStructure(in []*model.Structure, s *model.Structure) []*model.Structure {
	for i, v := range in {
		if v == s {
			return append(in[:i], in[i+1:]...)
		}
	}
	return in
}

func removeSite(in []*model.ConstructionSite, c *model.ConstructionSite) []*model.ConstructionSite {
	for i, v := range in {
		if v == c {
			return append(in[:i], in[i+1:]...)
		}
	}
	return in
}

func removeDrop(in []*model.Drop, d *model.Drop) []*model.Drop {
	for i, v := range in {
		if v == d {
			return append(in[:i], in[i+1:]...)
		}
	}
	return in
}
