package creep

import (
	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/roles"
	"colony.ai/internal/sched/targeting"
	"colony.ai/internal/sim/world/kernel/model"
)

func gather(c *roles.Context, role roles.Role) Outcome {
	a := c.Agent
	rec := c.Memory
	kind := kindFor(role)

	// Direct collection honours the flags in force when the turn started,
	// even if resolving to hold clears them below.
	ex := c.Exclusions()

	var path []model.Pos
	resolved := false
	if !trusted(c) {
		res := c.Targets.FindTarget(a, kind, ex, targeting.Options{Pickups: true, Gatherer: role.Gatherer()})
		resolved = true
		if res.Hold() {
			rec.ClearTarget()
			rec.ClearSourceFlags()
		} else {
			rec.SetTarget(res.End(a.Pos), TTL(c, role, res.Tier))
			path = res.Path
		}
	}

	if collect(c, kind, ex) {
		return OutcomeGathered
	}

	if rec.TargetPos == nil {
		return OutcomeHeld
	}
	target := *rec.TargetPos
	if a.Pos == target {
		rec.ClearTarget()
		return OutcomeHeld
	}

	code := protocol.ErrNoPath
	if !resolved {
		if res := c.Targets.PathTo(a, target, 0); res.Found {
			path = res.Path
		}
	}
	if len(path) > 0 {
		code = c.Move(path)
	}
	switch {
	case code.Ok():
	case code == protocol.ErrNoPath:
		rec.ClearTarget()
	default:
		ttl := c.Tuning.Targets.TTLDefault
		if rec.TargetTTL != nil {
			ttl = *rec.TargetTTL
		}
		ttl--
		if ttl <= 0 {
			rec.ClearTarget()
		} else {
			rec.TargetTTL = &ttl
		}
	}
	return OutcomeMoved
}

// trusted reports whether the memoised target can be walked to without
// resolving again.
func trusted(c *roles.Context) bool {
	rec := c.Memory
	if rec.TargetPos == nil {
		return false
	}
	if rec.TargetTTL != nil && *rec.TargetTTL <= 0 {
		return false
	}
	p := *rec.TargetPos
	if z := c.Host.Zone(p.Zone); z != nil {
		if o := z.AgentAt(p.X, p.Y); o != nil && o.ID != c.Agent.ID {
			return false
		}
	}
	return true
}

// collect tries every adjacent source of kind in priority order. The first
// success ends the gather phase for this turn.
func collect(c *roles.Context, kind model.ResourceKind, ex targeting.Exclusions) bool {
	a := c.Agent
	z := c.Zone()
	if z == nil {
		return false
	}
	rec := c.Memory

	for _, d := range z.Drops {
		if d.Amount <= 0 || !kind.Matches(d.Type) || !a.Pos.IsNearTo(d.Pos) {
			continue
		}
		if c.Pickup(d.ID).Ok() {
			rec.ClearSourceFlags()
			return true
		}
	}
	for _, group := range [][]*model.Remains{z.Ruins, z.Tombstones} {
		for _, r := range group {
			if !a.Pos.IsNearTo(r.Pos) {
				continue
			}
			if withdrawKind(c, r.ID, r.Store, kind) {
				rec.ClearSourceFlags()
				return true
			}
		}
	}

	switch kind {
	case model.KindEnergy:
		for _, s := range z.ActiveSources() {
			if a.Pos.IsNearTo(s.Pos) && c.Harvest(s.ID).Ok() {
				rec.ClearSourceFlags()
				return true
			}
		}
	case model.KindMinerals:
		for _, m := range z.Minerals {
			if m.Amount <= 0 || !z.HasExtractor(m.Pos) || !a.Pos.IsNearTo(m.Pos) {
				continue
			}
			if code := c.Harvest(m.ID); code.Ok() || code == protocol.ErrTired {
				rec.ClearSourceFlags()
				return true
			}
		}
	}

	keep := c.Tuning.Targets.TerminalKeepEnergy
	for _, s := range z.Structures {
		if !s.Usable() || ex.Excludes(s.Kind) || !a.Pos.IsNearTo(s.Pos) {
			continue
		}
		switch s.Kind {
		case model.StructContainer, model.StructStorage:
			if withdrawKind(c, s.ID, s.Store, kind) {
				rec.FromStorage = true
				return true
			}
		case model.StructLink:
			if s.Mine() && withdrawKind(c, s.ID, s.Store, kind) {
				rec.FromLink = true
				return true
			}
		case model.StructTerminal:
			if !s.Mine() || kind != model.KindEnergy || s.Store.Of(model.ResourceEnergy) <= keep {
				continue
			}
			if c.Withdraw(s.ID, model.ResourceEnergy).Ok() {
				rec.FromTerminal = true
				return true
			}
		}
	}
	return false
}

func withdrawKind(c *roles.Context, id string, st *model.Store, kind model.ResourceKind) bool {
	for _, rt := range st.Types() {
		if !kind.Matches(rt) {
			continue
		}
		if c.Withdraw(id, rt).Ok() {
			return true
		}
	}
	return false
}
