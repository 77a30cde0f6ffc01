package world

import (
	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/terrain/gen"
)

var mineralTypes = []model.ResourceType{
	model.ResourceHydrogen, model.ResourceOxygen, model.ResourceUtrium,
	model.ResourceLemergium, model.ResourceKeanium, model.ResourceZynthium,
	model.ResourceCatalyst,
}

const (
	homeSpawnX = 25
	homeSpawnY = 25

	mineralAmount = 50000
)

// generate lays out every zone. Zone (0,0) is home and gets our spawn,
// controller and starter structures.
func (w *World) generate() {
	g := gen.New(gen.Params{Seed: w.cfg.Seed, SwampAbove: w.cfg.SwampNoiseAbove, WallAbove: w.cfg.WallNoiseAbove})
	w.home = model.ZoneID{}

	for y := 0; y < w.cfg.ZonesY; y++ {
		for x := 0; x < w.cfg.ZonesX; x++ {
			z := model.NewZone(model.ZoneID{X: x, Y: y})
			g.Zone(z)
			w.zones[z.ID] = z
			w.order = append(w.order, z.ID)

			if z.ID == w.home {
				gen.ClearAround(z, homeSpawnX, homeSpawnY, 3)
			}
			w.placeNodes(z)
			if z.ID == w.home {
				w.placeHome(z)
			} else {
				w.placeHostiles(z)
			}
		}
	}
}

func (w *World) placeNodes(z *model.Zone) {
	seed := w.cfg.Seed
	for i := 0; i < w.cfg.SourcesPerZone; i++ {
		x, y, ok := gen.PickTile(seed, z, i+1, 3)
		if !ok {
			continue
		}
		gen.ClearAround(z, x, y, 1)
		z.Sources = append(z.Sources, &model.Source{
			ID:             w.newID("source"),
			Pos:            model.Pos{Zone: z.ID, X: x, Y: y},
			Energy:         w.cfg.SourceEnergy,
			EnergyCapacity: w.cfg.SourceEnergy,
		})
	}

	if x, y, ok := gen.PickTile(seed, z, 100, 4); ok {
		gen.ClearAround(z, x, y, 1)
		h := gen.Hash2(seed, z.ID.X, z.ID.Y)
		z.Minerals = append(z.Minerals, &model.Mineral{
			ID:     w.newID("mineral"),
			Pos:    model.Pos{Zone: z.ID, X: x, Y: y},
			Type:   mineralTypes[h%uint64(len(mineralTypes))],
			Amount: mineralAmount,
		})
	}

	owner := model.OwnerNone
	if z.ID == w.home {
		owner = model.OwnerMine
	}
	if x, y, ok := gen.PickTile(seed, z, 200, 5); ok {
		gen.ClearAround(z, x, y, 1)
		z.Structures = append(z.Structures, &model.Structure{
			ID:    w.newID("controller"),
			Kind:  model.StructController,
			Pos:   model.Pos{Zone: z.ID, X: x, Y: y},
			Owner: owner,
			Level: 1,
		})
	}
}

func (w *World) placeHome(z *model.Zone) {
	at := func(x, y int) model.Pos { return model.Pos{Zone: z.ID, X: x, Y: y} }

	spawn := w.newStructure(model.StructSpawn, at(homeSpawnX, homeSpawnY))
	spawn.Store.Add(model.ResourceEnergy, spawn.Store.Capacity)
	z.Structures = append(z.Structures,
		spawn,
		w.newStructure(model.StructExtension, at(homeSpawnX-2, homeSpawnY)),
		w.newStructure(model.StructExtension, at(homeSpawnX+2, homeSpawnY)),
		w.newStructure(model.StructRoad, at(homeSpawnX, homeSpawnY+1)),
		w.newStructure(model.StructRoad, at(homeSpawnX, homeSpawnY+2)),
	)
	z.Sites = append(z.Sites, &model.ConstructionSite{
		ID:            w.newID("site"),
		Kind:          model.StructExtension,
		Pos:           at(homeSpawnX, homeSpawnY-2),
		Owner:         model.OwnerMine,
		ProgressTotal: 3000,
	})

	if len(z.Sources) > 0 {
		p := z.Sources[0].Pos
		if cx, cy, ok := openNeighbour(z, p.X, p.Y); ok {
			z.Structures = append(z.Structures, w.newStructure(model.StructContainer, at(cx, cy)))
		}
	}
	for _, m := range z.Minerals {
		z.Structures = append(z.Structures, w.newStructure(model.StructExtractor, m.Pos))
	}
}

func (w *World) placeHostiles(z *model.Zone) {
	for i := 0; i < w.cfg.HostilesPerZone; i++ {
		x, y, ok := gen.PickTile(w.cfg.Seed, z, 300+i, 2)
		if !ok || z.AgentAt(x, y) != nil {
			continue
		}
		body := []model.BodyPart{model.PartTough, model.PartAttack, model.PartMove}
		z.Agents = append(z.Agents, &model.Agent{
			ID:          w.newAgentID("hostile"),
			Pos:         model.Pos{Zone: z.ID, X: x, Y: y},
			Owner:       model.OwnerHostile,
			Body:        body,
			Store:       model.NewStore(0),
			Hits:        100 * len(body),
			HitsMax:     100 * len(body),
			TicksToLive: -1,
		})
	}
}

// newStructure builds a completed structure of kind, ours.
func (w *World) newStructure(kind model.StructureKind, p model.Pos) *model.Structure {
	hits := hitsMaxFor(kind)
	return &model.Structure{
		ID:      w.newID(string(kind)),
		Kind:    kind,
		Pos:     p,
		Owner:   ownerFor(kind),
		Hits:    hits,
		HitsMax: hits,
		Store:   storeFor(kind),
	}
}

func ownerFor(kind model.StructureKind) model.Owner {
	switch kind {
	case model.StructRoad, model.StructContainer, model.StructWall:
		return model.OwnerNone
	}
	return model.OwnerMine
}

func hitsMaxFor(kind model.StructureKind) int {
	switch kind {
	case model.StructSpawn:
		return 5000
	case model.StructExtension:
		return 1000
	case model.StructRoad:
		return 5000
	case model.StructContainer:
		return 250000
	case model.StructStorage, model.StructTerminal:
		return 10000
	case model.StructRampart, model.StructWall:
		return 300000
	case model.StructTower, model.StructLab, model.StructLink, model.StructExtractor:
		return 3000
	}
	return 0
}

func storeFor(kind model.StructureKind) *model.Store {
	switch kind {
	case model.StructSpawn:
		return model.NewStore(300, model.ResourceEnergy)
	case model.StructExtension:
		return model.NewStore(50, model.ResourceEnergy)
	case model.StructTower:
		return model.NewStore(1000, model.ResourceEnergy)
	case model.StructLink:
		return model.NewStore(800, model.ResourceEnergy)
	case model.StructContainer:
		return model.NewStore(2000)
	case model.StructStorage:
		return model.NewStore(1000000)
	case model.StructTerminal:
		return model.NewStore(300000)
	case model.StructLab:
		return model.NewStore(3000)
	}
	return nil
}

var neighbours = [8][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}

// openNeighbour finds a plain or swamp tile next to (x,y) with nothing on it.
func openNeighbour(z *model.Zone, x, y int) (int, int, bool) {
	for _, d := range neighbours {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || nx >= model.ZoneSize || ny < 0 || ny >= model.ZoneSize {
			continue
		}
		if z.TerrainAt(nx, ny) == model.TerrainWall || z.AgentAt(nx, ny) != nil {
			continue
		}
		if len(z.StructuresAt(nx, ny)) > 0 || sourceAt(z, nx, ny) {
			continue
		}
		return nx, ny, true
	}
	return 0, 0, false
}

func sourceAt(z *model.Zone, x, y int) bool {
	for _, s := range z.Sources {
		if s.Pos.X == x && s.Pos.Y == y {
			return true
		}
	}
	for _, m := range z.Minerals {
		if m.Pos.X == x && m.Pos.Y == y {
			return true
		}
	}
	return false
}
