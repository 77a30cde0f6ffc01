package roles

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
)

// QuotaEnv is the census a quota expression sees.
type QuotaEnv struct {
	Total             int `expr:"total"`
	Harvesters        int `expr:"harvesters"`
	SpawnCouriers     int `expr:"spawn_couriers"`
	MineralHarvesters int `expr:"mineral_harvesters"`
	Builders          int `expr:"builders"`
	Repairers         int `expr:"repairers"`
	Upgraders         int `expr:"upgraders"`
	Attackers         int `expr:"attackers"`
}

// Balancer assigns roles to unassigned agents against running counts.
type Balancer struct {
	upgraders *vm.Program
	builders  *vm.Program
	repairers *vm.Program
	mineral   *vm.Program
}

func NewBalancer(cfg tuning.Roles) (*Balancer, error) {
	var b Balancer
	var err error
	if b.upgraders, err = compileQuota("upgrader_quota", cfg.UpgraderQuota); err != nil {
		return nil, err
	}
	if b.builders, err = compileQuota("builder_quota", cfg.BuilderQuota); err != nil {
		return nil, err
	}
	if b.repairers, err = compileQuota("repairer_quota", cfg.RepairerQuota); err != nil {
		return nil, err
	}
	if b.mineral, err = expr.Compile(cfg.MineralHarvesterWhen, expr.Env(QuotaEnv{}), expr.AsBool()); err != nil {
		return nil, fmt.Errorf("compile mineral_harvester_when: %w", err)
	}
	return &b, nil
}

func compileQuota(name, src string) (*vm.Program, error) {
	prog, err := expr.Compile(src, expr.Env(QuotaEnv{}), expr.AsInt())
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return prog, nil
}

// Member is one agent with its stored role string, possibly empty.
type Member struct {
	Agent *model.Agent
	Role  string
}

// Census is the running tally for one balancing pass.
type Census struct {
	total        int
	counts       map[Role]int
	unknown      int
	attackShort  int
	attackRanged int
	workerCarry  int
}

// Tally counts every member. Members without a role count toward the total
// only, until Assign gives them one.
func (b *Balancer) Tally(members []Member) *Census {
	c := &Census{counts: make(map[Role]int, len(All))}
	for _, m := range members {
		c.total++
		switch m.Agent.AttackerKind() {
		case model.AttackerShort:
			c.attackShort++
		case model.AttackerRanged:
			c.attackRanged++
		}
		if m.Role == "" {
			continue
		}
		if r, ok := Parse(m.Role); ok {
			c.add(r, m.Agent)
		} else {
			c.unknown++
		}
	}
	return c
}

func (c *Census) add(r Role, a *model.Agent) {
	c.counts[r]++
	// Worker carry is what the energy couriers can move per trip.
	if (r == Harvester || r == HarvesterSpawn) && a != nil && a.Store != nil {
		c.workerCarry += a.Store.Capacity
	}
}

func (c *Census) Count(r Role) int { return c.counts[r] }

func (c *Census) Unknown() int { return c.unknown }

func (c *Census) env() QuotaEnv {
	return QuotaEnv{
		Total:             c.total,
		Harvesters:        c.counts[Harvester],
		SpawnCouriers:     c.counts[HarvesterSpawn],
		MineralHarvesters: c.counts[HarvesterMineral],
		Builders:          c.counts[Builder],
		Repairers:         c.counts[Repairer],
		Upgraders:         c.counts[Upgrader],
		Attackers:         c.attackShort + c.attackRanged,
	}
}

// Assign picks a role for the unassigned agent a and records it in the
// census so the next call sees it. When a quota expression fails the agent
// becomes a Harvester and the error is returned for logging.
func (b *Balancer) Assign(c *Census, a *model.Agent) (Role, error) {
	r, err := b.pick(c)
	c.add(r, a)
	return r, err
}

func (b *Balancer) pick(c *Census) (Role, error) {
	if c.counts[HarvesterSpawn] == 0 {
		return HarvesterSpawn, nil
	}
	env := c.env()
	steps := []struct {
		role  Role
		quota *vm.Program
	}{
		{Upgrader, b.upgraders},
		{Builder, b.builders},
		{Repairer, b.repairers},
	}
	for _, s := range steps {
		out, err := vm.Run(s.quota, env)
		if err != nil {
			return Harvester, fmt.Errorf("%s quota: %w", s.role, err)
		}
		if n, ok := out.(int); ok && c.counts[s.role] < n {
			return s.role, nil
		}
	}
	out, err := vm.Run(b.mineral, env)
	if err != nil {
		return Harvester, fmt.Errorf("mineral_harvester_when: %w", err)
	}
	if ok, _ := out.(bool); ok {
		return HarvesterMineral, nil
	}
	return Harvester, nil
}

// Population converts the census into the published form.
func (c *Census) Population(tick uint64) model.Population {
	p := model.Population{
		Tick:         tick,
		Total:        c.total,
		Roles:        make(map[string]int, len(All)),
		Unknown:      c.unknown,
		AttackShort:  c.attackShort,
		AttackRanged: c.attackRanged,
		WorkerCarry:  c.workerCarry,
	}
	for _, r := range All {
		p.Roles[r.String()] = c.counts[r]
	}
	return p
}
