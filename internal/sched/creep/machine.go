// Package creep runs one agent's turn: the attacker routine, the
// Gathering/Acting toggle and the gather phase with its memoised target.
package creep

import (
	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/roles"
	"colony.ai/internal/sched/targeting"
	"colony.ai/internal/sim/world/kernel/model"
)

type Outcome string

const (
	OutcomeSkipped  Outcome = "skipped"
	OutcomeAttacked Outcome = "attacked"
	OutcomeGathered Outcome = "gathered"
	OutcomeMoved    Outcome = "moved"
	OutcomeHeld     Outcome = "held"
	OutcomeFled     Outcome = "fled"
	OutcomeActed    Outcome = "acted"
	OutcomeIdle     Outcome = "idle"
)

// Turn runs one agent turn. State changes land in c.Memory; saving it is
// the caller's job.
func Turn(c *roles.Context, role roles.Role) Outcome {
	a := c.Agent
	if a.Spawning {
		return OutcomeSkipped
	}
	if attack(c) {
		return OutcomeAttacked
	}

	rec := c.Memory
	switch {
	case rec.Gathering && a.Store.Free() == 0:
		rec.Gathering = false
		rec.ClearTarget()
	case !rec.Gathering && a.Store.Used() == 0:
		rec.Gathering = true
		rec.ClearTarget()
	}

	if rec.Gathering {
		return gather(c, role)
	}
	if flee(c) {
		return OutcomeFled
	}
	if _, ok := roles.Run(c, role); ok {
		return OutcomeActed
	}
	return OutcomeIdle
}

// attack engages visible hostiles in the agent's zone. It only takes the
// turn when there is something to fight.
func attack(c *roles.Context) bool {
	a := c.Agent
	kind := a.AttackerKind()
	if kind == model.AttackerNone {
		return false
	}
	z := c.Zone()
	if z == nil {
		return false
	}
	hostiles := z.Hostiles()
	if len(hostiles) == 0 {
		return false
	}
	for _, h := range hostiles {
		if !a.Pos.InRangeTo(h.Pos, kind.Range()) {
			continue
		}
		var code protocol.Code
		if kind == model.AttackerRanged {
			code = c.RangedAttack(h.ID)
		} else {
			code = c.Attack(h.ID)
		}
		if code.Ok() {
			return true
		}
	}
	// An unreachable hostile leaves the turn to the role.
	return c.Follow(c.Targets.FindEnemy(a, kind.Range()))
}

func flee(c *roles.Context) bool {
	rec := c.Memory
	count := 0
	if rec.Fleeing != nil {
		count = *rec.Fleeing
	}
	if count > 0 {
		count--
		rec.Fleeing = &count
		return false
	}
	z := c.Zone()
	if z == nil {
		return false
	}
	var near []model.Pos
	for _, s := range z.ActiveSources() {
		near = append(near, s.Pos)
	}
	adjacent := false
	for _, p := range near {
		if c.Agent.Pos.IsNearTo(p) {
			adjacent = true
			break
		}
	}
	if !adjacent {
		return false
	}
	res := c.Targets.Flee(c.Agent, near, c.Tuning.Flee.Range)
	if !res.Found || len(res.Path) == 0 {
		return false
	}
	if !c.Move(res.Path).Ok() {
		return false
	}
	cool := c.Tuning.Flee.CooldownTicks
	rec.Fleeing = &cool
	return true
}

// kindFor is the resource class a role gathers.
func kindFor(role roles.Role) model.ResourceKind {
	if role == roles.HarvesterMineral {
		return model.KindMinerals
	}
	return model.KindEnergy
}

// TTL is how long a target resolved on tier is trusted. Gatherers trust
// active nodes most; everyone else trusts reserves most.
func TTL(c *roles.Context, role roles.Role, tier targeting.TierName) int {
	g := c.Tuning.Targets
	switch tier {
	case targeting.TierPickup:
		return g.TTLPreferred
	case targeting.TierActive:
		if role.Gatherer() {
			return g.TTLPreferred
		}
		return g.TTLSecondary
	case targeting.TierReserve:
		if role.Gatherer() {
			return g.TTLSecondary
		}
		return g.TTLPreferred
	case targeting.TierAny:
		return g.TTLLastResort
	}
	return g.TTLDefault
}
