package world

import (
	"colony.ai/internal/sched"
	"colony.ai/internal/sched/host"
)

// Controller decides every agent's commands for one tick.
type Controller interface {
	RunTick(w host.World) sched.TickReport
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry is one line of the tick log. Digest covers world state after
// the tick's commands and upkeep.
type TickLogEntry struct {
	Tick   uint64           `json:"tick"`
	Digest string           `json:"digest"`
	Spawns []string         `json:"spawns,omitempty"`
	Deaths []string         `json:"deaths,omitempty"`
	Report sched.TickReport `json:"report"`
}

// ControllerFunc adapts a plain function to Controller.
type ControllerFunc func(w host.World) sched.TickReport

func (f ControllerFunc) RunTick(w host.World) sched.TickReport { return f(w) }
