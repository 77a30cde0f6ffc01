// Package host declares the world surface the scheduler consumes.
package host

import (
	"colony.ai/internal/protocol"
	"colony.ai/internal/sim/world/kernel/model"
)

// Zones is the read-only query surface.
type Zones interface {
	Tick() uint64
	// VisibleZones lists zones observable this tick, in a stable order.
	VisibleZones() []model.ZoneID
	// Zone returns nil when the zone is not observable this tick.
	Zone(id model.ZoneID) *model.Zone
}

// Commands are fire-and-forget requests resolved synchronously to a code.
type Commands interface {
	// Move takes the first step of path.
	Move(a *model.Agent, path []model.Pos) protocol.Code
	Harvest(a *model.Agent, targetID string) protocol.Code
	Pickup(a *model.Agent, dropID string) protocol.Code
	// Withdraw takes up to the agent's free capacity of rt from a structure,
	// tombstone or ruin.
	Withdraw(a *model.Agent, targetID string, rt model.ResourceType) protocol.Code
	Transfer(a *model.Agent, targetID string, rt model.ResourceType) protocol.Code
	Build(a *model.Agent, siteID string) protocol.Code
	Repair(a *model.Agent, structureID string) protocol.Code
	Upgrade(a *model.Agent, controllerID string) protocol.Code
	Attack(a *model.Agent, targetID string) protocol.Code
	RangedAttack(a *model.Agent, targetID string) protocol.Code
	Heal(a *model.Agent, targetID string) protocol.Code
}

// KV is one agent's persistent memory.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// World is everything a scheduling pass needs from the host.
type World interface {
	Zones
	Commands
	// MyAgents enumerates our agents in host order.
	MyAgents() []*model.Agent
	Memory(agentID string) KV
	// Publish stores the per-tick census for the spawning collaborator.
	Publish(p model.Population)
}

// MemoryGC is implemented by hosts that keep memory for agents after they die.
type MemoryGC interface {
	MemoryAgents() []string
	DropMemory(agentID string)
}
