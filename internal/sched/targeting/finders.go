package targeting

import (
	"colony.ai/internal/sim/world/kernel/model"
)

// Options shape a source lookup.
type Options struct {
	// Pickups enables the dropped-resource and remains tier.
	Pickups bool
	// Gatherer puts active nodes ahead of reserve stores.
	Gatherer bool
}

// FindTarget resolves where to collect resources of kind k. It never fails:
// when nothing is reachable the result is a hold on the agent's own tile.
func (r *Resolver) FindTarget(a *model.Agent, k model.ResourceKind, ex Exclusions, opt Options) Result {
	var tiers []Tier
	if opt.Pickups {
		tiers = append(tiers, Tier{Name: TierPickup, Gen: func() []Candidate { return r.pickups(a, k) }})
	}
	active := Tier{Name: TierActive, Gen: func() []Candidate { return r.activeNodes(a, k) }}
	reserve := Tier{Name: TierReserve, Gen: func() []Candidate { return r.reserves(a, k, ex) }}
	if opt.Gatherer {
		tiers = append(tiers, active, reserve)
	} else {
		tiers = append(tiers, reserve, active)
	}
	tiers = append(tiers, Tier{Name: TierAny, Gen: func() []Candidate { return r.anyNodes(a, k) }})

	if res := r.Resolve(a, tiers); res.Found {
		return res
	}
	return hold(a)
}

func (r *Resolver) pickups(a *model.Agent, k model.ResourceKind) []Candidate {
	var out []Candidate
	for _, z := range r.zonesFor(a) {
		for _, d := range z.Drops {
			if d.Amount > 0 && k.Matches(d.Type) {
				out = append(out, Candidate{Pos: d.Pos, Range: 1, Kind: KindPile, ID: d.ID})
			}
		}
		for _, t := range z.Tombstones {
			if t.Store.OfKind(k) > 0 {
				out = append(out, Candidate{Pos: t.Pos, Range: 1, Kind: KindTombstone, ID: t.ID})
			}
		}
		for _, t := range z.Ruins {
			if t.Store.OfKind(k) > 0 {
				out = append(out, Candidate{Pos: t.Pos, Range: 1, Kind: KindRuin, ID: t.ID})
			}
		}
	}
	return out
}

func (r *Resolver) activeNodes(a *model.Agent, k model.ResourceKind) []Candidate {
	return r.nodes(a, k, true)
}

func (r *Resolver) anyNodes(a *model.Agent, k model.ResourceKind) []Candidate {
	return r.nodes(a, k, false)
}

// nodes lists harvestable nodes for k. With onlyActive set, depleted nodes
// and nodes on cooldown are left out.
func (r *Resolver) nodes(a *model.Agent, k model.ResourceKind, onlyActive bool) []Candidate {
	var out []Candidate
	for _, z := range r.zonesFor(a) {
		switch k {
		case model.KindEnergy:
			for _, s := range z.Sources {
				if onlyActive && !s.Active() {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 1, Kind: KindSource, ID: s.ID})
			}
		case model.KindMinerals:
			for _, m := range z.Minerals {
				if !z.HasExtractor(m.Pos) {
					continue
				}
				if onlyActive && m.Amount <= 0 {
					continue
				}
				out = append(out, Candidate{Pos: m.Pos, Range: 1, Kind: KindMineral, ID: m.ID})
			}
		case model.KindCommodities:
			for _, d := range z.Deposits {
				if onlyActive && d.Cooldown > 0 {
					continue
				}
				out = append(out, Candidate{Pos: d.Pos, Range: 1, Kind: KindDeposit, ID: d.ID})
			}
		case model.KindPower:
			for _, s := range z.StructuresOf(model.StructPowerBank) {
				if onlyActive && s.Hits <= 0 {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 1, Kind: KindPowerBank, ID: s.ID})
			}
		}
	}
	return out
}

func (r *Resolver) reserves(a *model.Agent, k model.ResourceKind, ex Exclusions) []Candidate {
	var out []Candidate
	for _, z := range r.zonesFor(a) {
		for _, s := range z.Structures {
			if !s.Usable() {
				continue
			}
			switch s.Kind {
			case model.StructContainer:
				if ex.Storage || s.Store.OfKind(k) <= 0 {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 0, Kind: KindContainer, ID: s.ID})
			case model.StructStorage:
				if ex.Storage || !s.Mine() || s.Store.OfKind(k) <= 0 {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 1, Kind: KindStorage, ID: s.ID})
			case model.StructLink:
				if ex.Link || !s.Mine() || s.Store.OfKind(k) <= 0 {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 1, Kind: KindLink, ID: s.ID})
			case model.StructTerminal:
				if ex.Terminal || !s.Mine() || k != model.KindEnergy {
					continue
				}
				if s.Store.Of(model.ResourceEnergy) <= r.cfg.TerminalKeepEnergy {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 1, Kind: KindTerminal, ID: s.ID})
			case model.StructLab:
				if !s.Mine() || k == model.KindEnergy || s.Store.OfKind(k) <= 0 {
					continue
				}
				out = append(out, Candidate{Pos: s.Pos, Range: 1, Kind: KindLab, ID: s.ID})
			}
		}
	}
	return out
}

// SinkTier is one delivery tier: structures of the listed kinds whose free
// capacity for the carried resource exceeds CapacityRate of their total.
type SinkTier struct {
	Name         TierName
	Kinds        []model.StructureKind
	MaxCost      int
	CapacityRate float64
}

// SpawnSinks are the energy tiers that keep spawning going: spawns, then
// nearby extensions, then towers.
func (r *Resolver) SpawnSinks() []SinkTier {
	return []SinkTier{
		{Name: "spawn", Kinds: []model.StructureKind{model.StructSpawn}},
		{Name: "extension", Kinds: []model.StructureKind{model.StructExtension}, MaxCost: r.cfg.ExtensionMaxCost},
		{Name: "tower", Kinds: []model.StructureKind{model.StructTower}},
	}
}

// DefaultSinks is the delivery order for rt.
func (r *Resolver) DefaultSinks(rt model.ResourceType) []SinkTier {
	if rt == model.ResourceEnergy {
		return append(r.SpawnSinks(), SinkTier{
			Name:  TierReserve,
			Kinds: []model.StructureKind{model.StructLink, model.StructContainer, model.StructStorage, model.StructTerminal},
		})
	}
	return []SinkTier{
		{Name: TierReserve, Kinds: []model.StructureKind{model.StructContainer, model.StructStorage, model.StructTerminal}},
		{Name: "lab", Kinds: []model.StructureKind{model.StructLab}},
	}
}

// FindTransferTarget picks where to deliver rt. Found is false when no sink
// has room.
func (r *Resolver) FindTransferTarget(a *model.Agent, rt model.ResourceType, ex Exclusions, sinks []SinkTier) Result {
	if sinks == nil {
		sinks = r.DefaultSinks(rt)
	}
	tiers := make([]Tier, 0, len(sinks))
	for _, st := range sinks {
		st := st
		tiers = append(tiers, Tier{Name: st.Name, MaxCost: st.MaxCost, Gen: func() []Candidate {
			return r.sinks(a, rt, ex, st)
		}})
	}
	return r.Resolve(a, tiers)
}

func (r *Resolver) sinks(a *model.Agent, rt model.ResourceType, ex Exclusions, st SinkTier) []Candidate {
	var out []Candidate
	for _, z := range r.zonesFor(a) {
		for _, s := range z.StructuresOf(st.Kinds...) {
			if !s.Usable() || s.Store == nil {
				continue
			}
			if ex.Excludes(s.Kind) {
				continue
			}
			free := s.Store.FreeFor(rt)
			if free <= 0 || float64(free) <= float64(s.Store.Capacity)*st.CapacityRate {
				continue
			}
			rng := 1
			if s.Kind == model.StructContainer {
				rng = 0
			}
			out = append(out, Candidate{Pos: s.Pos, Range: rng, Kind: structKind(s.Kind), ID: s.ID})
		}
	}
	return out
}

// Excludes reports whether structures of kind k are skipped. Containers
// share the storage flag.
func (ex Exclusions) Excludes(k model.StructureKind) bool {
	switch k {
	case model.StructContainer, model.StructStorage:
		return ex.Storage
	case model.StructTerminal:
		return ex.Terminal
	case model.StructLink:
		return ex.Link
	}
	return false
}

// SinkKinds flattens the default delivery tiers for rt.
func (r *Resolver) SinkKinds(rt model.ResourceType) []model.StructureKind {
	var out []model.StructureKind
	for _, st := range r.DefaultSinks(rt) {
		out = append(out, st.Kinds...)
	}
	return out
}

func structKind(k model.StructureKind) Kind {
	switch k {
	case model.StructContainer:
		return KindContainer
	case model.StructStorage:
		return KindStorage
	case model.StructTerminal:
		return KindTerminal
	case model.StructLink:
		return KindLink
	case model.StructLab:
		return KindLab
	case model.StructController:
		return KindController
	case model.StructPowerBank:
		return KindPowerBank
	}
	return KindStructure
}

// FindRepairTarget routes to the nearest structure of ours (or unowned)
// matching pred, to within repair range.
func (r *Resolver) FindRepairTarget(a *model.Agent, pred func(*model.Structure) bool) Result {
	return r.Resolve(a, []Tier{{Name: "repair", Gen: func() []Candidate {
		var out []Candidate
		for _, z := range r.zonesFor(a) {
			for _, s := range z.Structures {
				if s.Usable() && s.Damaged() && pred(s) {
					out = append(out, Candidate{Pos: s.Pos, Range: 3, Kind: structKind(s.Kind), ID: s.ID})
				}
			}
		}
		return out
	}}})
}

// FindSite routes to the nearest of our construction sites with at most
// maxRemaining progress left. maxRemaining <= 0 admits every site.
func (r *Resolver) FindSite(a *model.Agent, maxRemaining int) Result {
	return r.Resolve(a, []Tier{{Name: "site", Gen: func() []Candidate {
		var out []Candidate
		for _, z := range r.zonesFor(a) {
			for _, c := range z.MySites() {
				if maxRemaining > 0 && c.Remaining() > maxRemaining {
					continue
				}
				out = append(out, Candidate{Pos: c.Pos, Range: 3, Kind: KindSite, ID: c.ID})
			}
		}
		return out
	}}})
}

func (r *Resolver) FindController(a *model.Agent) Result {
	return r.Resolve(a, []Tier{{Name: "controller", Gen: func() []Candidate {
		var out []Candidate
		for _, z := range r.zonesFor(a) {
			if c := z.Controller(); c != nil && c.Mine() {
				out = append(out, Candidate{Pos: c.Pos, Range: 3, Kind: KindController, ID: c.ID})
			}
		}
		return out
	}}})
}

// FindEnemy looks for hostiles in the agent's own zone only.
func (r *Resolver) FindEnemy(a *model.Agent, rng int) Result {
	return r.Resolve(a, []Tier{{Name: "enemy", Gen: func() []Candidate {
		z := r.zones.Zone(a.Pos.Zone)
		if z == nil {
			return nil
		}
		var out []Candidate
		for _, h := range z.Hostiles() {
			out = append(out, Candidate{Pos: h.Pos, Range: rng, Kind: KindHostile, ID: h.ID})
		}
		return out
	}}})
}
