package world

import (
	"fmt"

	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sim/world/kernel/model"
)

// ImportSnapshot replaces all world state. The next step runs the tick after
// the snapshot's.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d", s.Header.Version)
	}
	zones := map[model.ZoneID]*model.Zone{}
	var order []model.ZoneID
	for _, zs := range s.Zones {
		id, ok := model.ParseZoneID(zs.ID)
		if !ok {
			return fmt.Errorf("snapshot zone: bad id %q", zs.ID)
		}
		if len(zs.Terrain) != model.ZoneSize*model.ZoneSize {
			return fmt.Errorf("snapshot zone %s: terrain has %d tiles", zs.ID, len(zs.Terrain))
		}
		z := model.NewZone(id)
		for i, t := range zs.Terrain {
			z.Terrain[i] = model.Terrain(t)
		}
		var err error
		at := func(p snapshot.PosV1) model.Pos {
			pos, perr := posFromV1(p)
			if perr != nil && err == nil {
				err = perr
			}
			return pos
		}
		for _, v := range zs.Structures {
			z.Structures = append(z.Structures, &model.Structure{
				ID: v.ID, Kind: model.StructureKind(v.Kind), Pos: at(v.Pos), Owner: model.Owner(v.Owner),
				Hits: v.Hits, HitsMax: v.HitsMax, Store: storePtrFromV1(v.Store),
				Level: v.Level, Progress: v.Progress,
			})
		}
		for _, v := range zs.Sites {
			z.Sites = append(z.Sites, &model.ConstructionSite{
				ID: v.ID, Kind: model.StructureKind(v.Kind), Pos: at(v.Pos), Owner: model.Owner(v.Owner),
				Progress: v.Progress, ProgressTotal: v.ProgressTotal,
			})
		}
		for _, v := range zs.Sources {
			z.Sources = append(z.Sources, &model.Source{
				ID: v.ID, Pos: at(v.Pos), Energy: v.Energy,
				EnergyCapacity: v.EnergyCapacity, TicksToRegeneration: v.TicksToRegeneration,
			})
		}
		for _, v := range zs.Minerals {
			z.Minerals = append(z.Minerals, &model.Mineral{ID: v.ID, Pos: at(v.Pos), Type: model.ResourceType(v.Type), Amount: v.Amount})
		}
		for _, v := range zs.Deposits {
			z.Deposits = append(z.Deposits, &model.Deposit{ID: v.ID, Pos: at(v.Pos), Type: model.ResourceType(v.Type), Cooldown: v.Cooldown})
		}
		for _, v := range zs.Drops {
			z.Drops = append(z.Drops, &model.Drop{ID: v.ID, Pos: at(v.Pos), Type: model.ResourceType(v.Type), Amount: v.Amount})
		}
		for _, v := range zs.Tombstones {
			z.Tombstones = append(z.Tombstones, &model.Remains{ID: v.ID, Kind: model.RemainsTombstone, Pos: at(v.Pos), Store: storeFromV1(v.Store)})
		}
		for _, v := range zs.Ruins {
			z.Ruins = append(z.Ruins, &model.Remains{ID: v.ID, Kind: model.RemainsRuin, Pos: at(v.Pos), Store: storeFromV1(v.Store)})
		}
		if err != nil {
			return fmt.Errorf("snapshot zone %s: %w", zs.ID, err)
		}
		zones[id] = z
		order = append(order, id)
	}

	for _, v := range s.Agents {
		pos, err := posFromV1(v.Pos)
		if err != nil {
			return fmt.Errorf("snapshot agent %s: %w", v.ID, err)
		}
		z := zones[pos.Zone]
		if z == nil {
			return fmt.Errorf("snapshot agent %s: unknown zone %s", v.ID, pos.Zone)
		}
		body := make([]model.BodyPart, len(v.Body))
		for i, p := range v.Body {
			body[i] = model.BodyPart(p)
		}
		z.Agents = append(z.Agents, &model.Agent{
			ID: v.ID, Pos: pos, Owner: model.Owner(v.Owner), Body: body,
			Store: storeFromV1(v.Store), Hits: v.Hits, HitsMax: v.HitsMax,
			Fatigue: v.Fatigue, TicksToLive: v.TicksToLive, Spawning: v.Spawning,
		})
	}

	w.zones = zones
	w.order = order
	w.cfg.Seed = s.Seed
	w.cfg.TickRateHz = s.TickRate
	w.cfg.ZonesX, w.cfg.ZonesY = s.ZonesX, s.ZonesY
	w.runID = s.Header.RunID
	w.nextAgent = s.Counters.NextAgent
	w.nextEntity = s.Counters.NextEntity
	w.mem.Import(s.Memory)
	w.tick.Store(s.Header.Tick + 1)
	w.refreshVisible()
	return nil
}

func posFromV1(p snapshot.PosV1) (model.Pos, error) {
	id, ok := model.ParseZoneID(p.Zone)
	if !ok {
		return model.Pos{}, fmt.Errorf("bad zone id %q", p.Zone)
	}
	return model.Pos{Zone: id, X: p.X, Y: p.Y}, nil
}

func storeFromV1(v snapshot.StoreV1) *model.Store {
	s := &model.Store{Amounts: make(map[model.ResourceType]int, len(v.Amounts)), Capacity: v.Capacity}
	for rt, n := range v.Amounts {
		s.Amounts[model.ResourceType(rt)] = n
	}
	for _, rt := range v.Accepts {
		s.Accepts = append(s.Accepts, model.ResourceType(rt))
	}
	return s
}

func storePtrFromV1(v *snapshot.StoreV1) *model.Store {
	if v == nil {
		return nil
	}
	return storeFromV1(*v)
}
