package world

import (
	"fmt"
	"log/slog"

	"colony.ai/internal/sim/tuning"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       int64

	ZonesX int
	ZonesY int

	MaxAgents      int
	SourcesPerZone int
	SourceEnergy   int
	SourceRegen    int
	AgentLifetime  int
	// HostilesPerZone places idle hostile agents in every zone except home.
	HostilesPerZone int

	SwampNoiseAbove float64
	WallNoiseAbove  float64

	// Decay is keyed by structure kind.
	Decay map[string]tuning.Decay

	// Operational parameters.
	SnapshotEveryTicks int
	// MaxTicks stops Run after that many ticks; 0 runs until cancelled.
	MaxTicks uint64

	Logger *slog.Logger
}

// ConfigFromTuning copies the sandbox section of t.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		Seed:               seed,
		ZonesX:             t.World.ZonesX,
		ZonesY:             t.World.ZonesY,
		MaxAgents:          t.World.MaxAgents,
		SourcesPerZone:     t.World.SourcesPerZone,
		SourceEnergy:       t.World.SourceEnergy,
		SourceRegen:        t.World.SourceRegen,
		AgentLifetime:      t.World.AgentLifetime,
		HostilesPerZone:    t.World.HostilesPerZone,
		SwampNoiseAbove:    t.World.SwampNoiseAbove,
		WallNoiseAbove:     t.World.WallNoiseAbove,
		Decay:              t.Repair.Decay,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.ZonesX <= 0 {
		c.ZonesX = 2
	}
	if c.ZonesY <= 0 {
		c.ZonesY = 1
	}
	if c.MaxAgents <= 0 {
		c.MaxAgents = 12
	}
	if c.SourcesPerZone <= 0 {
		c.SourcesPerZone = 2
	}
	if c.SourceEnergy <= 0 {
		c.SourceEnergy = 3000
	}
	if c.SourceRegen <= 0 {
		c.SourceRegen = 300
	}
	if c.AgentLifetime <= 0 {
		c.AgentLifetime = 1500
	}
	if c.SwampNoiseAbove <= 0 {
		c.SwampNoiseAbove = 0.62
	}
	if c.WallNoiseAbove <= 0 {
		c.WallNoiseAbove = 0.74
	}
	if c.Decay == nil {
		c.Decay = tuning.Defaults().Repair.Decay
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = 3000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func (c WorldConfig) validate() error {
	if c.ZonesX*c.ZonesY > 64 {
		return fmt.Errorf("world: %dx%d zones exceeds 64", c.ZonesX, c.ZonesY)
	}
	if c.SwampNoiseAbove >= 1 || c.WallNoiseAbove >= 1 {
		return fmt.Errorf("world: noise thresholds must be below 1")
	}
	return nil
}
