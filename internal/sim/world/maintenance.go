package world

import (
	"colony.ai/internal/sim/world/kernel/model"
)

const spawnRegenPerTick = 1

// systemUpkeep ages agents, regenerates nodes and decays structures.
func (w *World) systemUpkeep(tick uint64) {
	for _, id := range w.order {
		z := w.zones[id]

		for _, a := range append([]*model.Agent(nil), z.Agents...) {
			if !a.Mine() {
				continue
			}
			if a.Spawning {
				a.Spawning = false
				continue
			}
			a.TicksToLive--
			if a.TicksToLive <= 0 {
				w.kill(z, a)
			}
		}

		for _, s := range z.Sources {
			if s.TicksToRegeneration > 0 {
				s.TicksToRegeneration--
				if s.TicksToRegeneration == 0 {
					s.Energy = s.EnergyCapacity
				}
			}
		}
		for _, d := range z.Deposits {
			if d.Cooldown > 0 {
				d.Cooldown--
			}
		}

		for _, s := range append([]*model.Structure(nil), z.Structures...) {
			d, ok := w.cfg.Decay[string(s.Kind)]
			if !ok || d.Interval <= 0 || tick == 0 || tick%uint64(d.Interval) != 0 {
				continue
			}
			amount := d.Amount
			if z.TerrainAt(s.Pos.X, s.Pos.Y) == model.TerrainSwamp && d.SwampMultiplier > 1 {
				amount *= d.SwampMultiplier
			}
			s.Hits -= amount
			if s.Hits <= 0 {
				w.destroy(z, s)
			}
		}

		for _, s := range z.StructuresOf(model.StructSpawn) {
			if s.Mine() && s.Store.Free() > 0 {
				s.Store.Add(model.ResourceEnergy, spawnRegenPerTick)
			}
		}

		drops := z.Drops[:0]
		for _, d := range z.Drops {
			d.Amount -= (d.Amount + 999) / 1000
			if d.Amount > 0 {
				drops = append(drops, d)
			}
		}
		z.Drops = drops

		z.Tombstones = keepNonEmpty(z.Tombstones)
		z.Ruins = keepNonEmpty(z.Ruins)
	}
}

func keepNonEmpty(in []*model.Remains) []*model.Remains {
	out := in[:0]
	for _, r := range in {
		if r.Store.Used() > 0 {
			out = append(out, r)
		}
	}
	return out
}
