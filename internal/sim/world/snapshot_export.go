package world

import (
	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sim/world/kernel/model"
)

// ExportSnapshot captures the world as of the end of nowTick.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: snapshot.Version, RunID: w.runID, Tick: nowTick},
		Seed:     w.cfg.Seed,
		TickRate: w.cfg.TickRateHz,
		ZonesX:   w.cfg.ZonesX,
		ZonesY:   w.cfg.ZonesY,
		Memory:   w.mem.Export(),
		Counters: snapshot.CountersV1{NextAgent: w.nextAgent, NextEntity: w.nextEntity},
	}
	for _, id := range w.order {
		z := w.zones[id]
		zs := snapshot.ZoneV1{ID: id.String(), Terrain: make([]byte, len(z.Terrain))}
		for i, t := range z.Terrain {
			zs.Terrain[i] = byte(t)
		}
		for _, s := range z.Structures {
			zs.Structures = append(zs.Structures, snapshot.StructureV1{
				ID: s.ID, Kind: string(s.Kind), Pos: posV1(s.Pos), Owner: uint8(s.Owner),
				Hits: s.Hits, HitsMax: s.HitsMax, Store: storePtrV1(s.Store),
				Level: s.Level, Progress: s.Progress,
			})
		}
		for _, c := range z.Sites {
			zs.Sites = append(zs.Sites, snapshot.SiteV1{
				ID: c.ID, Kind: string(c.Kind), Pos: posV1(c.Pos), Owner: uint8(c.Owner),
				Progress: c.Progress, ProgressTotal: c.ProgressTotal,
			})
		}
		for _, s := range z.Sources {
			zs.Sources = append(zs.Sources, snapshot.SourceV1{
				ID: s.ID, Pos: posV1(s.Pos), Energy: s.Energy,
				EnergyCapacity: s.EnergyCapacity, TicksToRegeneration: s.TicksToRegeneration,
			})
		}
		for _, m := range z.Minerals {
			zs.Minerals = append(zs.Minerals, snapshot.MineralV1{ID: m.ID, Pos: posV1(m.Pos), Type: string(m.Type), Amount: m.Amount})
		}
		for _, d := range z.Deposits {
			zs.Deposits = append(zs.Deposits, snapshot.DepositV1{ID: d.ID, Pos: posV1(d.Pos), Type: string(d.Type), Cooldown: d.Cooldown})
		}
		for _, d := range z.Drops {
			zs.Drops = append(zs.Drops, snapshot.DropV1{ID: d.ID, Pos: posV1(d.Pos), Type: string(d.Type), Amount: d.Amount})
		}
		for _, r := range z.Tombstones {
			zs.Tombstones = append(zs.Tombstones, snapshot.RemainsV1{ID: r.ID, Pos: posV1(r.Pos), Store: storeV1(r.Store)})
		}
		for _, r := range z.Ruins {
			zs.Ruins = append(zs.Ruins, snapshot.RemainsV1{ID: r.ID, Pos: posV1(r.Pos), Store: storeV1(r.Store)})
		}
		for _, a := range z.Agents {
			body := make([]string, len(a.Body))
			for i, p := range a.Body {
				body[i] = string(p)
			}
			snap.Agents = append(snap.Agents, snapshot.AgentV1{
				ID: a.ID, Pos: posV1(a.Pos), Owner: uint8(a.Owner), Body: body,
				Store: storeV1(a.Store), Hits: a.Hits, HitsMax: a.HitsMax,
				Fatigue: a.Fatigue, TicksToLive: a.TicksToLive, Spawning: a.Spawning,
			})
		}
		snap.Zones = append(snap.Zones, zs)
	}
	return snap
}

func posV1(p model.Pos) snapshot.PosV1 {
	return snapshot.PosV1{Zone: p.Zone.String(), X: p.X, Y: p.Y}
}

func storeV1(s *model.Store) snapshot.StoreV1 {
	if s == nil {
		return snapshot.StoreV1{}
	}
	out := snapshot.StoreV1{Capacity: s.Capacity}
	if len(s.Amounts) > 0 {
		out.Amounts = make(map[string]int, len(s.Amounts))
		for rt, n := range s.Amounts {
			out.Amounts[string(rt)] = n
		}
	}
	for _, rt := range s.Accepts {
		out.Accepts = append(out.Accepts, string(rt))
	}
	return out
}

func storePtrV1(s *model.Store) *snapshot.StoreV1 {
	if s == nil {
		return nil
	}
	v := storeV1(s)
	return &v
}
