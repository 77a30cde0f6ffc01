package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	MemoryGCEveryTicks int `yaml:"memory_gc_every_ticks"`
	MemoryBudgetBytes  int `yaml:"memory_budget_bytes"`

	Pathfinding Pathfinding `yaml:"pathfinding"`
	Targets     Targets     `yaml:"targets"`
	Flee        Flee        `yaml:"flee"`
	Roles       Roles       `yaml:"roles"`
	Repair      Repair      `yaml:"repair"`
	World       World       `yaml:"world"`
}

// UnobservedBlocked and UnobservedOpen are the accepted unobserved_zones values.
const (
	UnobservedBlocked = "blocked"
	UnobservedOpen    = "open"
)

type Pathfinding struct {
	PlainCost           int    `yaml:"plain_cost"`
	SwampCost           int    `yaml:"swamp_cost"`
	RoadCost            int    `yaml:"road_cost"`
	MaxOps              int    `yaml:"max_ops"`
	SourceRingRadius    int    `yaml:"source_ring_radius"`
	SourceRingSurcharge int    `yaml:"source_ring_surcharge"`
	UnobservedZones     string `yaml:"unobserved_zones"`
}

type Targets struct {
	TTLPreferred       int `yaml:"ttl_preferred"`
	TTLSecondary       int `yaml:"ttl_secondary"`
	TTLLastResort      int `yaml:"ttl_last_resort"`
	TTLDefault         int `yaml:"ttl_default"`
	TerminalKeepEnergy int `yaml:"terminal_keep_energy"`
	ExtensionMaxCost   int `yaml:"extension_max_cost"`
	DecodeCacheSize    int `yaml:"decode_cache_size"`
}

type Flee struct {
	Range         int `yaml:"range"`
	CooldownTicks int `yaml:"cooldown_ticks"`
}

// Roles holds the balancer quota expressions. Each is evaluated against the
// running census (total, harvesters, spawn_couriers, mineral_harvesters,
// builders, repairers, upgraders, attackers).
type Roles struct {
	UpgraderQuota        string `yaml:"upgrader_quota"`
	BuilderQuota         string `yaml:"builder_quota"`
	RepairerQuota        string `yaml:"repairer_quota"`
	MineralHarvesterWhen string `yaml:"mineral_harvester_when"`
}

type Repair struct {
	DyingThresholdTicks  int              `yaml:"dying_threshold_ticks"`
	BarrierSpreadDivisor int              `yaml:"barrier_spread_divisor"`
	HitRatioEpsilon      float64          `yaml:"hit_ratio_epsilon"`
	Decay                map[string]Decay `yaml:"decay"`
}

// Decay describes how a structure kind loses hits over time. SwampMultiplier
// scales Amount for structures built on swamp terrain.
type Decay struct {
	Amount          int `yaml:"amount"`
	Interval        int `yaml:"interval"`
	SwampMultiplier int `yaml:"swamp_multiplier"`
}

// World sizes the in-memory sandbox host.
type World struct {
	ZonesX          int     `yaml:"zones_x"`
	ZonesY          int     `yaml:"zones_y"`
	MaxAgents       int     `yaml:"max_agents"`
	SourcesPerZone  int     `yaml:"sources_per_zone"`
	SourceEnergy    int     `yaml:"source_energy"`
	SourceRegen     int     `yaml:"source_regen_ticks"`
	AgentLifetime   int     `yaml:"agent_lifetime_ticks"`
	HostilesPerZone int     `yaml:"hostiles_per_zone"`
	SwampNoiseAbove float64 `yaml:"swamp_noise_above"`
	WallNoiseAbove  float64 `yaml:"wall_noise_above"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	var t Tuning
	t.ApplyDefaults()
	return t
}

func (t *Tuning) ApplyDefaults() {
	if t.TickRateHz <= 0 {
		t.TickRateHz = 5
	}
	if t.SnapshotEveryTicks <= 0 {
		t.SnapshotEveryTicks = 3000
	}
	if t.MemoryGCEveryTicks <= 0 {
		t.MemoryGCEveryTicks = 32
	}
	if t.MemoryBudgetBytes <= 0 {
		t.MemoryBudgetBytes = 2048
	}

	p := &t.Pathfinding
	if p.PlainCost <= 0 {
		p.PlainCost = 2
	}
	if p.SwampCost <= 0 {
		p.SwampCost = 10
	}
	if p.RoadCost <= 0 {
		p.RoadCost = 1
	}
	if p.MaxOps <= 0 {
		p.MaxOps = 20000
	}
	if p.SourceRingRadius <= 0 {
		p.SourceRingRadius = 1
	}
	if p.SourceRingSurcharge <= 0 {
		p.SourceRingSurcharge = 10
	}
	if p.UnobservedZones == "" {
		p.UnobservedZones = UnobservedBlocked
	}

	g := &t.Targets
	if g.TTLPreferred <= 0 {
		g.TTLPreferred = 20
	}
	if g.TTLSecondary <= 0 {
		g.TTLSecondary = 10
	}
	if g.TTLLastResort <= 0 {
		g.TTLLastResort = 5
	}
	if g.TTLDefault <= 0 {
		g.TTLDefault = 10
	}
	if g.TerminalKeepEnergy <= 0 {
		g.TerminalKeepEnergy = 10000
	}
	if g.ExtensionMaxCost <= 0 {
		g.ExtensionMaxCost = 100
	}
	if g.DecodeCacheSize <= 0 {
		g.DecodeCacheSize = 4096
	}

	if t.Flee.Range <= 0 {
		t.Flee.Range = 3
	}
	if t.Flee.CooldownTicks <= 0 {
		t.Flee.CooldownTicks = 5
	}

	r := &t.Roles
	if r.UpgraderQuota == "" {
		r.UpgraderQuota = "int(total / 6) + 1"
	}
	if r.BuilderQuota == "" {
		r.BuilderQuota = "int(total / 6)"
	}
	if r.RepairerQuota == "" {
		r.RepairerQuota = "int(total / 6)"
	}
	if r.MineralHarvesterWhen == "" {
		r.MineralHarvesterWhen = "total > 20 && mineral_harvesters < 1"
	}

	rp := &t.Repair
	if rp.DyingThresholdTicks <= 0 {
		rp.DyingThresholdTicks = 1000
	}
	if rp.BarrierSpreadDivisor <= 0 {
		rp.BarrierSpreadDivisor = 1000
	}
	if rp.HitRatioEpsilon <= 0 {
		rp.HitRatioEpsilon = 0.05
	}
	if rp.Decay == nil {
		rp.Decay = map[string]Decay{
			"road":      {Amount: 100, Interval: 1000, SwampMultiplier: 5},
			"container": {Amount: 5000, Interval: 500, SwampMultiplier: 1},
			"rampart":   {Amount: 300, Interval: 100, SwampMultiplier: 1},
		}
	}

	w := &t.World
	if w.ZonesX <= 0 {
		w.ZonesX = 2
	}
	if w.ZonesY <= 0 {
		w.ZonesY = 1
	}
	if w.MaxAgents <= 0 {
		w.MaxAgents = 12
	}
	if w.SourcesPerZone <= 0 {
		w.SourcesPerZone = 2
	}
	if w.SourceEnergy <= 0 {
		w.SourceEnergy = 3000
	}
	if w.SourceRegen <= 0 {
		w.SourceRegen = 300
	}
	if w.AgentLifetime <= 0 {
		w.AgentLifetime = 1500
	}
	if w.SwampNoiseAbove <= 0 {
		w.SwampNoiseAbove = 0.62
	}
	if w.WallNoiseAbove <= 0 {
		w.WallNoiseAbove = 0.74
	}
}

func (t Tuning) Validate() error {
	switch t.Pathfinding.UnobservedZones {
	case UnobservedBlocked, UnobservedOpen:
	default:
		return fmt.Errorf("pathfinding.unobserved_zones: unknown policy %q", t.Pathfinding.UnobservedZones)
	}
	if t.Pathfinding.SourceRingSurcharge >= 255 {
		return fmt.Errorf("pathfinding.source_ring_surcharge must be below 255")
	}
	return nil
}
