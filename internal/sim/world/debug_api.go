package world

import (
	"fmt"

	"colony.ai/internal/sim/world/kernel/model"
)

// ---- Debug/Test Helpers ----
//
// These let black-box tests in sibling packages set up deterministic
// preconditions. They are NOT safe to call concurrently with Run(); drive the
// world with StepOnce() from a single goroutine instead.

// DebugStateDigest hashes the current state as the tick log would for tick.
func (w *World) DebugStateDigest(tick uint64) string {
	return w.stateDigest(tick)
}

func (w *World) DebugHome() model.ZoneID { return w.home }

// DebugZone returns any generated zone, visible or not.
func (w *World) DebugZone(id model.ZoneID) *model.Zone { return w.zones[id] }

func (w *World) DebugAgent(id string) *model.Agent {
	a, _ := w.findAgent(id)
	return a
}

// DebugAddAgent places a in its zone. An empty ID gets the next agent id.
func (w *World) DebugAddAgent(a *model.Agent) error {
	z := w.zones[a.Pos.Zone]
	if z == nil {
		return fmt.Errorf("unknown zone %s", a.Pos.Zone)
	}
	if z.TerrainAt(a.Pos.X, a.Pos.Y) == model.TerrainWall {
		return fmt.Errorf("%s is a wall", a.Pos)
	}
	if z.AgentAt(a.Pos.X, a.Pos.Y) != nil {
		return fmt.Errorf("%s is occupied", a.Pos)
	}
	if a.ID == "" {
		a.ID = w.newAgentID("agent")
	}
	if a.Store == nil {
		a.Store = model.NewStore(model.CarryPerPart * a.Count(model.PartCarry))
	}
	z.Agents = append(z.Agents, a)
	w.refreshVisible()
	return nil
}
