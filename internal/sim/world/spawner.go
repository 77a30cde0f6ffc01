package world

import (
	"colony.ai/internal/sim/world/kernel/model"
)

var (
	workerBody = []model.BodyPart{model.PartWork, model.PartCarry, model.PartCarry, model.PartMove, model.PartMove}
	guardBody  = []model.BodyPart{model.PartAttack, model.PartAttack, model.PartMove, model.PartMove}
)

// systemSpawn produces at most one agent per tick from the home spawn.
// Bodies are fixed; a guard is made once workers exist and hostiles are
// known while the last census counted no attackers.
func (w *World) systemSpawn(tick uint64) {
	home := w.zones[w.home]
	if home == nil {
		return
	}
	var spawn *model.Structure
	for _, s := range home.StructuresOf(model.StructSpawn) {
		if s.Mine() {
			spawn = s
			break
		}
	}
	if spawn == nil || len(w.MyAgents()) >= w.cfg.MaxAgents {
		return
	}

	body, prefix := workerBody, "worker"
	p := w.population
	if p.Total >= 4 && p.AttackShort+p.AttackRanged == 0 && w.hostilesKnown() {
		body, prefix = guardBody, "guard"
	}
	cost := model.BodyCost(body)
	if w.spawnEnergy(home) < cost {
		return
	}
	x, y, ok := openNeighbour(home, spawn.Pos.X, spawn.Pos.Y)
	if !ok {
		return
	}
	w.drainSpawnEnergy(home, cost)

	a := &model.Agent{
		ID:          w.newAgentID(prefix),
		Pos:         model.Pos{Zone: home.ID, X: x, Y: y},
		Owner:       model.OwnerMine,
		Body:        append([]model.BodyPart(nil), body...),
		Store:       model.NewStore(model.CarryPerPart * countPart(body, model.PartCarry)),
		Hits:        100 * len(body),
		HitsMax:     100 * len(body),
		TicksToLive: w.cfg.AgentLifetime,
		Spawning:    true,
	}
	home.Agents = append(home.Agents, a)
	w.spawned = append(w.spawned, a.ID)
	w.totalSpawned++
	w.log.Debug("spawned", "tick", tick, "agent", a.ID, "cost", cost)
}

func (w *World) hostilesKnown() bool {
	for _, id := range w.visible {
		if len(w.zones[id].Hostiles()) > 0 {
			return true
		}
	}
	return false
}

// spawnEnergy sums energy in our spawns and extensions.
func (w *World) spawnEnergy(z *model.Zone) int {
	n := 0
	for _, s := range z.StructuresOf(model.StructSpawn, model.StructExtension) {
		if s.Mine() {
			n += s.Store.Of(model.ResourceEnergy)
		}
	}
	return n
}

// drainSpawnEnergy takes from spawns first, then extensions.
func (w *World) drainSpawnEnergy(z *model.Zone, n int) {
	for _, kind := range []model.StructureKind{model.StructSpawn, model.StructExtension} {
		for _, s := range z.StructuresOf(kind) {
			if n == 0 {
				return
			}
			if !s.Mine() {
				continue
			}
			take := s.Store.Of(model.ResourceEnergy)
			if take > n {
				take = n
			}
			s.Store.Add(model.ResourceEnergy, -take)
			n -= take
		}
	}
}

func countPart(body []model.BodyPart, p model.BodyPart) int {
	n := 0
	for _, b := range body {
		if b == p {
			n++
		}
	}
	return n
}
