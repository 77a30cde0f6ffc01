// Package hosttest provides a scripted in-memory host for scheduler tests.
package hosttest

import (
	"sort"

	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sim/tasks"
	"colony.ai/internal/sim/world/kernel/model"
)

// Call is one command the scheduler issued.
type Call struct {
	Kind     tasks.Kind
	AgentID  string
	TargetID string
	Resource model.ResourceType
	Path     []model.Pos
}

// KV is a map-backed host.KV that counts writes.
type KV struct {
	Values map[string]string
	Writes int
}

func NewKV() *KV { return &KV{Values: map[string]string{}} }

func (m *KV) Get(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

func (m *KV) Set(key, value string) {
	m.Values[key] = value
	m.Writes++
}

func (m *KV) Delete(key string) {
	delete(m.Values, key)
	m.Writes++
}

// Fake answers every command with Codes[kind] (OK when unset) unless CodeFor
// is set. Commands never change the world.
type Fake struct {
	TickN  uint64
	Zones  map[model.ZoneID]*model.Zone
	Agents []*model.Agent
	Mem    map[string]*KV

	Codes   map[tasks.Kind]protocol.Code
	CodeFor func(c Call) protocol.Code

	Calls     []Call
	Published []model.Population
	Dropped   []string
}

var _ host.World = (*Fake)(nil)
var _ host.MemoryGC = (*Fake)(nil)

func New(zones ...*model.Zone) *Fake {
	f := &Fake{
		TickN: 1,
		Zones: map[model.ZoneID]*model.Zone{},
		Mem:   map[string]*KV{},
		Codes: map[tasks.Kind]protocol.Code{},
	}
	for _, z := range zones {
		f.Zones[z.ID] = z
	}
	return f
}

// AddAgent places a into its zone and, when ours, into MyAgents.
func (f *Fake) AddAgent(a *model.Agent) *model.Agent {
	if z := f.Zones[a.Pos.Zone]; z != nil {
		z.Agents = append(z.Agents, a)
	}
	if a.Mine() {
		f.Agents = append(f.Agents, a)
	}
	return a
}

// KV returns the agent's memory, creating it on first use.
func (f *Fake) KV(id string) *KV {
	kv, ok := f.Mem[id]
	if !ok {
		kv = NewKV()
		f.Mem[id] = kv
	}
	return kv
}

// CallsOf filters recorded calls by kind.
func (f *Fake) CallsOf(k tasks.Kind) []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Tick() uint64 { return f.TickN }

func (f *Fake) VisibleZones() []model.ZoneID {
	out := make([]model.ZoneID, 0, len(f.Zones))
	for id := range f.Zones {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func (f *Fake) Zone(id model.ZoneID) *model.Zone { return f.Zones[id] }

func (f *Fake) MyAgents() []*model.Agent { return f.Agents }

func (f *Fake) Memory(id string) host.KV { return f.KV(id) }

func (f *Fake) Publish(p model.Population) { f.Published = append(f.Published, p) }

func (f *Fake) MemoryAgents() []string {
	out := make([]string, 0, len(f.Mem))
	for id := range f.Mem {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (f *Fake) DropMemory(id string) {
	delete(f.Mem, id)
	f.Dropped = append(f.Dropped, id)
}

func (f *Fake) do(c Call) protocol.Code {
	f.Calls = append(f.Calls, c)
	if f.CodeFor != nil {
		return f.CodeFor(c)
	}
	if code, ok := f.Codes[c.Kind]; ok {
		return code
	}
	return protocol.OK
}

func (f *Fake) Move(a *model.Agent, path []model.Pos) protocol.Code {
	if len(path) == 0 {
		return f.do(Call{Kind: tasks.KindMove, AgentID: a.ID})
	}
	return f.do(Call{Kind: tasks.KindMove, AgentID: a.ID, Path: append([]model.Pos(nil), path...)})
}

func (f *Fake) Harvest(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindHarvest, AgentID: a.ID, TargetID: id})
}

func (f *Fake) Pickup(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindPickup, AgentID: a.ID, TargetID: id})
}

func (f *Fake) Withdraw(a *model.Agent, id string, rt model.ResourceType) protocol.Code {
	return f.do(Call{Kind: tasks.KindWithdraw, AgentID: a.ID, TargetID: id, Resource: rt})
}

func (f *Fake) Transfer(a *model.Agent, id string, rt model.ResourceType) protocol.Code {
	return f.do(Call{Kind: tasks.KindTransfer, AgentID: a.ID, TargetID: id, Resource: rt})
}

func (f *Fake) Build(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindBuild, AgentID: a.ID, TargetID: id})
}

func (f *Fake) Repair(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindRepair, AgentID: a.ID, TargetID: id})
}

func (f *Fake) Upgrade(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindUpgrade, AgentID: a.ID, TargetID: id})
}

func (f *Fake) Attack(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindAttack, AgentID: a.ID, TargetID: id})
}

func (f *Fake) RangedAttack(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindRangedAttack, AgentID: a.ID, TargetID: id})
}

func (f *Fake) Heal(a *model.Agent, id string) protocol.Code {
	return f.do(Call{Kind: tasks.KindHeal, AgentID: a.ID, TargetID: id})
}
