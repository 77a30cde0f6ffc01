// Package targeting ranks candidate targets by path cost, tier by tier.
package targeting

import (
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/logic/pathfind"
)

type Kind uint8

const (
	KindPosition Kind = iota
	KindPile
	KindTombstone
	KindRuin
	KindContainer
	KindStorage
	KindTerminal
	KindLink
	KindLab
	KindSource
	KindMineral
	KindDeposit
	KindPowerBank
	KindSite
	KindStructure
	KindController
	KindHostile
)

var kindNames = [...]string{
	KindPosition:   "position",
	KindPile:       "pile",
	KindTombstone:  "tombstone",
	KindRuin:       "ruin",
	KindContainer:  "container",
	KindStorage:    "storage",
	KindTerminal:   "terminal",
	KindLink:       "link",
	KindLab:        "lab",
	KindSource:     "source",
	KindMineral:    "mineral",
	KindDeposit:    "deposit",
	KindPowerBank:  "power_bank",
	KindSite:       "site",
	KindStructure:  "structure",
	KindController: "controller",
	KindHostile:    "hostile",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Candidate is a target entity reduced to what the search needs.
type Candidate struct {
	Pos   model.Pos
	Range int
	Kind  Kind
	ID    string
}

type TierName string

const (
	TierPickup  TierName = "pickup"
	TierActive  TierName = "active"
	TierReserve TierName = "reserve"
	TierAny     TierName = "any"
	TierHold    TierName = "hold"
)

// Generator lists the candidates of one tier.
type Generator func() []Candidate

type Tier struct {
	Name TierName
	Gen  Generator
	// MaxCost caps the search for this tier; 0 means unbounded.
	MaxCost int
}

type Result struct {
	Tier   TierName
	Target Candidate
	Path   []model.Pos
	Cost   int
	Found  bool
}

// End is where the agent will stand once the path is walked.
func (r Result) End(start model.Pos) model.Pos {
	if len(r.Path) == 0 {
		return start
	}
	return r.Path[len(r.Path)-1]
}

func (r Result) Hold() bool { return r.Tier == TierHold }

// Exclusions skip reserve tiers the agent drained last.
type Exclusions struct {
	Storage  bool
	Terminal bool
	Link     bool
}

// Zones is the slice of the host the resolver reads.
type Zones interface {
	VisibleZones() []model.ZoneID
	Zone(id model.ZoneID) *model.Zone
}

type Config struct {
	TerminalKeepEnergy int
	ExtensionMaxCost   int
	MaxOps             int
}

func ConfigFrom(t tuning.Tuning) Config {
	return Config{
		TerminalKeepEnergy: t.Targets.TerminalKeepEnergy,
		ExtensionMaxCost:   t.Targets.ExtensionMaxCost,
		MaxOps:             t.Pathfinding.MaxOps,
	}
}

type Resolver struct {
	zones Zones
	cost  pathfind.CostFunc
	cfg   Config
}

func New(zones Zones, cost pathfind.CostFunc, cfg Config) *Resolver {
	return &Resolver{zones: zones, cost: cost, cfg: cfg}
}

// Resolve tries tiers in order. Empty tiers are skipped; within a tier the
// cheapest reachable candidate wins and equal costs go to the first listed.
// A tier whose candidates are all unreachable falls through.
func (r *Resolver) Resolve(a *model.Agent, tiers []Tier) Result {
	for _, t := range tiers {
		cands := t.Gen()
		if len(cands) == 0 {
			continue
		}
		if res, ok := r.search(a, t.Name, cands, pathfind.Options{MaxCost: t.MaxCost}); ok {
			return res
		}
	}
	return Result{}
}

func (r *Resolver) search(a *model.Agent, tier TierName, cands []Candidate, opt pathfind.Options) (Result, bool) {
	goals := make([]pathfind.Goal, len(cands))
	for i, c := range cands {
		goals[i] = pathfind.Goal{Pos: c.Pos, Range: c.Range}
	}
	if opt.MaxOps == 0 {
		opt.MaxOps = r.cfg.MaxOps
	}
	pr := pathfind.Search(a.Pos, goals, r.cost, opt)
	if !pr.Found {
		return Result{}, false
	}
	res := Result{Tier: tier, Path: pr.Path, Cost: pr.Cost, Found: true}
	if pr.Goal >= 0 && pr.Goal < len(cands) {
		res.Target = cands[pr.Goal]
	}
	return res, true
}

func hold(a *model.Agent) Result {
	return Result{Tier: TierHold, Found: true, Target: Candidate{Pos: a.Pos, Kind: KindPosition}}
}

// zonesFor lists the agent's own zone first, then every other visible zone.
func (r *Resolver) zonesFor(a *model.Agent) []*model.Zone {
	var out []*model.Zone
	if z := r.zones.Zone(a.Pos.Zone); z != nil {
		out = append(out, z)
	}
	for _, id := range r.zones.VisibleZones() {
		if id == a.Pos.Zone {
			continue
		}
		if z := r.zones.Zone(id); z != nil {
			out = append(out, z)
		}
	}
	return out
}

// PathTo routes to within rng of pos.
func (r *Resolver) PathTo(a *model.Agent, pos model.Pos, rng int) Result {
	res, _ := r.search(a, TierActive, []Candidate{{Pos: pos, Range: rng, Kind: KindPosition}}, pathfind.Options{})
	return res
}

// Flee routes to a tile at least rng away from every position in from.
func (r *Resolver) Flee(a *model.Agent, from []model.Pos, rng int) Result {
	if len(from) == 0 {
		return Result{}
	}
	goals := make([]pathfind.Goal, len(from))
	for i, p := range from {
		goals[i] = pathfind.Goal{Pos: p, Range: rng}
	}
	pr := pathfind.Search(a.Pos, goals, r.cost, pathfind.Options{Flee: true, MaxOps: r.cfg.MaxOps})
	if !pr.Found || len(pr.Path) == 0 {
		return Result{}
	}
	end := pr.Path[len(pr.Path)-1]
	return Result{Tier: "flee", Path: pr.Path, Cost: pr.Cost, Found: true, Target: Candidate{Pos: end, Kind: KindPosition}}
}
