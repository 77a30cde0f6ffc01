package roles

import (
	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sched/memory"
	"colony.ai/internal/sched/targeting"
	"colony.ai/internal/sched/zonestats"
	"colony.ai/internal/sim/tasks"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
)

// Host is the part of the world an agent turn touches.
type Host interface {
	host.Zones
	host.Commands
}

// Context carries one agent's turn. Commands issued through it are recorded
// in Actions.
type Context struct {
	Agent   *model.Agent
	Host    Host
	Targets *targeting.Resolver
	Stats   *zonestats.Cache
	Memory  *memory.Record
	Tuning  *tuning.Tuning

	Actions []tasks.Record
}

// Zone is the agent's own zone, nil if the host cannot see it.
func (c *Context) Zone() *model.Zone { return c.Host.Zone(c.Agent.Pos.Zone) }

// Exclusions derives the reserve exclusions from the memory flags.
func (c *Context) Exclusions() targeting.Exclusions {
	if c.Memory == nil {
		return targeting.Exclusions{}
	}
	return targeting.Exclusions{
		Storage:  c.Memory.FromStorage,
		Terminal: c.Memory.FromTerminal,
		Link:     c.Memory.FromLink,
	}
}

func (c *Context) note(kind tasks.Kind, target string, code protocol.Code) protocol.Code {
	c.Actions = append(c.Actions, tasks.Record{AgentID: c.Agent.ID, Kind: kind, TargetID: target, Code: string(code)})
	return code
}

func (c *Context) Move(path []model.Pos) protocol.Code {
	return c.note(tasks.KindMove, "", c.Host.Move(c.Agent, path))
}

func (c *Context) Harvest(id string) protocol.Code {
	return c.note(tasks.KindHarvest, id, c.Host.Harvest(c.Agent, id))
}

func (c *Context) Pickup(id string) protocol.Code {
	return c.note(tasks.KindPickup, id, c.Host.Pickup(c.Agent, id))
}

func (c *Context) Withdraw(id string, rt model.ResourceType) protocol.Code {
	return c.note(tasks.KindWithdraw, id, c.Host.Withdraw(c.Agent, id, rt))
}

func (c *Context) Transfer(id string, rt model.ResourceType) protocol.Code {
	return c.note(tasks.KindTransfer, id, c.Host.Transfer(c.Agent, id, rt))
}

func (c *Context) Build(id string) protocol.Code {
	return c.note(tasks.KindBuild, id, c.Host.Build(c.Agent, id))
}

func (c *Context) Repair(id string) protocol.Code {
	return c.note(tasks.KindRepair, id, c.Host.Repair(c.Agent, id))
}

func (c *Context) Upgrade(id string) protocol.Code {
	return c.note(tasks.KindUpgrade, id, c.Host.Upgrade(c.Agent, id))
}

func (c *Context) Attack(id string) protocol.Code {
	return c.note(tasks.KindAttack, id, c.Host.Attack(c.Agent, id))
}

func (c *Context) RangedAttack(id string) protocol.Code {
	return c.note(tasks.KindRangedAttack, id, c.Host.RangedAttack(c.Agent, id))
}

// Follow moves along a resolved path. It reports false when there is nothing
// to walk, so the caller can fall through.
func (c *Context) Follow(res targeting.Result) bool {
	if !res.Found || len(res.Path) == 0 {
		return false
	}
	c.Move(res.Path)
	return true
}
