package world

import (
	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/logic/mathx"
)

// Fatigue per non-move part for entering a tile.
const (
	fatigueRoad  = 1
	fatiguePlain = 2
	fatigueSwamp = 10
)

// systemMovement applies queued moves in issue order. A move onto a tile
// occupied at that point is dropped; agents never swap.
func (w *World) systemMovement() {
	for _, m := range w.moves {
		a := m.agent
		to := w.zones[m.to.Zone]
		if to == nil || to.AgentAt(m.to.X, m.to.Y) != nil {
			continue
		}
		if from := w.zones[a.Pos.Zone]; from != nil {
			from.Agents = removeAgent(from.Agents, a)
		}
		a.Pos = m.to
		to.Agents = append(to.Agents, a)

		a.Fatigue += weight(a) * tileFatigue(to, m.to)
	}
	w.moves = w.moves[:0]

	for _, a := range w.allAgents() {
		if a.Fatigue > 0 {
			a.Fatigue = mathx.MaxInt(0, a.Fatigue-2*a.Count(model.PartMove))
		}
	}
}

// weight counts parts that generate fatigue; carry parts only when loaded.
func weight(a *model.Agent) int {
	n := len(a.Body) - a.Count(model.PartMove)
	if a.Store.Used() == 0 {
		n -= a.Count(model.PartCarry)
	}
	return n
}

func tileFatigue(z *model.Zone, p model.Pos) int {
	for _, s := range z.StructuresAt(p.X, p.Y) {
		if s.Kind == model.StructRoad {
			return fatigueRoad
		}
	}
	if z.TerrainAt(p.X, p.Y) == model.TerrainSwamp {
		return fatigueSwamp
	}
	return fatiguePlain
}
