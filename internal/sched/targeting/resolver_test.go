package targeting

import (
	"testing"

	"colony.ai/internal/sched/costmatrix"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
)

type world map[model.ZoneID]*model.Zone

func (w world) Zone(id model.ZoneID) *model.Zone { return w[id] }

func (w world) VisibleZones() []model.ZoneID {
	out := make([]model.ZoneID, 0, len(w))
	for id := range w {
		out = append(out, id)
	}
	return out
}

func at(x, y int) model.Pos { return model.Pos{X: x, Y: y} }

func newResolver(zs ...*model.Zone) *Resolver {
	w := world{}
	for _, z := range zs {
		w[z.ID] = z
	}
	tn := tuning.Defaults()
	cache := costmatrix.NewCache(w, costmatrix.ParamsFrom(tn.Pathfinding))
	return New(w, cache.Cost, ConfigFrom(tn))
}

func worker(z *model.Zone, p model.Pos) *model.Agent {
	a := &model.Agent{
		ID:    "w1",
		Pos:   p,
		Owner: model.OwnerMine,
		Body:  []model.BodyPart{model.PartWork, model.PartCarry, model.PartMove},
		Store: model.NewStore(model.CarryPerPart),
	}
	z.Agents = append(z.Agents, a)
	return a
}

func storeWith(capacity int, rt model.ResourceType, n int) *model.Store {
	s := model.NewStore(capacity)
	s.Add(rt, n)
	return s
}

func TestActiveSourceEndsAdjacent(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(10, 10), Energy: 3000, EnergyCapacity: 3000})
	a := worker(z, at(10, 12))

	res := newResolver(z).FindTarget(a, model.KindEnergy, Exclusions{}, Options{Gatherer: true})
	if !res.Found || res.Tier != TierActive {
		t.Fatalf("expected active tier, got %+v", res)
	}
	end := res.End(a.Pos)
	if model.Range(end, at(10, 10)) != 1 {
		t.Fatalf("path should end adjacent to the source, ended at %+v", end)
	}
	if res.Target.ID != "src" || res.Target.Kind != KindSource {
		t.Fatalf("target: %+v", res.Target)
	}
}

func TestPickupsBeforeReserve(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Structures = append(z.Structures, &model.Structure{
		ID: "st", Kind: model.StructStorage, Pos: at(12, 10), Owner: model.OwnerMine,
		Store: storeWith(1000000, model.ResourceEnergy, 5000),
	})
	z.Drops = append(z.Drops, &model.Drop{ID: "pile", Pos: at(30, 10), Type: model.ResourceEnergy, Amount: 40})
	a := worker(z, at(10, 10))

	res := newResolver(z).FindTarget(a, model.KindEnergy, Exclusions{}, Options{Pickups: true})
	if res.Tier != TierPickup || res.Target.ID != "pile" {
		t.Fatalf("expected the far pile over the near storage, got %+v", res)
	}
}

func TestExclusionsRespected(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Structures = append(z.Structures,
		&model.Structure{ID: "st", Kind: model.StructStorage, Pos: at(11, 10), Owner: model.OwnerMine,
			Store: storeWith(1000000, model.ResourceEnergy, 5000)},
		&model.Structure{ID: "term", Kind: model.StructTerminal, Pos: at(20, 20), Owner: model.OwnerMine,
			Store: storeWith(300000, model.ResourceEnergy, 20000)},
	)
	a := worker(z, at(10, 10))
	r := newResolver(z)

	res := r.FindTarget(a, model.KindEnergy, Exclusions{Storage: true}, Options{})
	if res.Tier != TierReserve || res.Target.ID != "term" {
		t.Fatalf("storage excluded, expected terminal, got %+v", res)
	}
	res = r.FindTarget(a, model.KindEnergy, Exclusions{}, Options{})
	if res.Target.ID != "st" {
		t.Fatalf("expected storage without exclusions, got %+v", res)
	}
}

func TestTerminalKeepsFloor(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Structures = append(z.Structures, &model.Structure{
		ID: "term", Kind: model.StructTerminal, Pos: at(11, 10), Owner: model.OwnerMine,
		Store: storeWith(300000, model.ResourceEnergy, 10000),
	})
	a := worker(z, at(10, 10))

	res := newResolver(z).FindTarget(a, model.KindEnergy, Exclusions{}, Options{})
	if !res.Hold() {
		t.Fatalf("terminal at the keep floor must not be drained, got %+v", res)
	}
}

func TestEmptyWorldHolds(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	a := worker(z, at(25, 25))

	res := newResolver(z).FindTarget(a, model.KindEnergy, Exclusions{}, Options{Pickups: true, Gatherer: true})
	if !res.Found || !res.Hold() || len(res.Path) != 0 {
		t.Fatalf("expected hold, got %+v", res)
	}
	if res.End(a.Pos) != a.Pos {
		t.Fatalf("hold must stay put")
	}
}

func TestUnreachableTierFallsThrough(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(40, 40), Energy: 100})
	for x := 38; x <= 42; x++ {
		for y := 38; y <= 42; y++ {
			if x == 38 || x == 42 || y == 38 || y == 42 {
				z.SetTerrain(x, y, model.TerrainWall)
			}
		}
	}
	z.Structures = append(z.Structures, &model.Structure{
		ID: "box", Kind: model.StructContainer, Pos: at(5, 5),
		Store: storeWith(2000, model.ResourceEnergy, 100),
	})
	a := worker(z, at(10, 10))

	res := newResolver(z).FindTarget(a, model.KindEnergy, Exclusions{}, Options{Gatherer: true})
	if res.Tier != TierReserve || res.Target.ID != "box" {
		t.Fatalf("walled-in source should fall through to reserve, got %+v", res)
	}
	if res.End(a.Pos) != at(5, 5) {
		t.Fatalf("container is approached to range 0, ended at %+v", res.End(a.Pos))
	}
}

func TestCrossZoneTarget(t *testing.T) {
	home := model.NewZone(model.ZoneID{})
	east := model.NewZone(model.ZoneID{X: 1})
	east.Sources = append(east.Sources, &model.Source{ID: "far", Pos: model.Pos{Zone: east.ID, X: 2, Y: 10}, Energy: 10})
	a := worker(home, at(47, 10))

	res := newResolver(home, east).FindTarget(a, model.KindEnergy, Exclusions{}, Options{Gatherer: true})
	if res.Target.ID != "far" {
		t.Fatalf("expected source across the border, got %+v", res)
	}
	if end := res.End(a.Pos); end.Zone != east.ID {
		t.Fatalf("path should cross into the east zone, ended at %+v", end)
	}
}

func transferZone(extAt model.Pos) (*model.Zone, *model.Structure) {
	z := model.NewZone(model.ZoneID{})
	ext := &model.Structure{ID: "ext", Kind: model.StructExtension, Pos: extAt, Owner: model.OwnerMine,
		Store: model.NewStore(50, model.ResourceEnergy)}
	z.Structures = append(z.Structures,
		&model.Structure{ID: "spawn", Kind: model.StructSpawn, Pos: at(12, 10), Owner: model.OwnerMine,
			Store: storeWith(300, model.ResourceEnergy, 300)},
		&model.Structure{ID: "tower", Kind: model.StructTower, Pos: at(14, 10), Owner: model.OwnerMine,
			Store: model.NewStore(1000, model.ResourceEnergy)},
	)
	return z, ext
}

func TestTransferOrder(t *testing.T) {
	z, ext := transferZone(at(13, 13))
	z.Structures = append(z.Structures, ext)
	a := worker(z, at(10, 10))

	res := newResolver(z).FindTransferTarget(a, model.ResourceEnergy, Exclusions{}, nil)
	if res.Tier != "extension" || res.Target.ID != "ext" {
		t.Fatalf("full spawn should yield the extension, got %+v", res)
	}
}

func TestTransferExtensionCostCap(t *testing.T) {
	z, _ := transferZone(model.Pos{})
	east := model.NewZone(model.ZoneID{X: 1})
	east.Structures = append(east.Structures, &model.Structure{
		ID: "ext", Kind: model.StructExtension, Pos: model.Pos{Zone: east.ID, X: 40, Y: 40}, Owner: model.OwnerMine,
		Store: model.NewStore(50, model.ResourceEnergy),
	})
	a := worker(z, at(10, 10))

	res := newResolver(z, east).FindTransferTarget(a, model.ResourceEnergy, Exclusions{}, nil)
	if res.Tier != "tower" {
		t.Fatalf("extension beyond the cost cap should yield the tower, got %+v", res)
	}
}

func TestTransferMineralsToLab(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Structures = append(z.Structures, &model.Structure{
		ID: "lab", Kind: model.StructLab, Pos: at(12, 12), Owner: model.OwnerMine,
		Store: model.NewStore(3000),
	})
	a := worker(z, at(10, 10))
	r := newResolver(z)

	if res := r.FindTransferTarget(a, model.ResourceHydrogen, Exclusions{}, nil); res.Tier != "lab" {
		t.Fatalf("minerals should reach the lab, got %+v", res)
	}
	if res := r.FindTransferTarget(a, model.ResourceEnergy, Exclusions{}, nil); res.Found {
		t.Fatalf("labs are not energy sinks, got %+v", res)
	}
}

func TestFindEnemyOwnZoneOnly(t *testing.T) {
	home := model.NewZone(model.ZoneID{})
	east := model.NewZone(model.ZoneID{X: 1})
	east.Agents = append(east.Agents, &model.Agent{ID: "h", Owner: model.OwnerHostile, Pos: model.Pos{Zone: east.ID, X: 1, Y: 10}})
	a := worker(home, at(48, 10))
	r := newResolver(home, east)

	if res := r.FindEnemy(a, 1); res.Found {
		t.Fatalf("hostile in another zone must be ignored, got %+v", res)
	}
	home.Agents = append(home.Agents, &model.Agent{ID: "h2", Owner: model.OwnerHostile, Pos: at(44, 10)})
	if res := r.FindEnemy(a, 1); !res.Found || res.Target.ID != "h2" {
		t.Fatalf("expected local hostile, got %+v", res)
	}
}

func TestFleeMovesAway(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	a := worker(z, at(20, 20))
	res := newResolver(z).Flee(a, []model.Pos{at(21, 20)}, 3)
	if !res.Found {
		t.Fatalf("flee should find a tile")
	}
	if d := model.Range(res.End(a.Pos), at(21, 20)); d < 3 {
		t.Fatalf("fled only to range %d", d)
	}
}

func TestSpawnSinksSkipReserve(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Structures = append(z.Structures,
		&model.Structure{ID: "spawn", Kind: model.StructSpawn, Pos: at(5, 5), Owner: model.OwnerMine, Store: storeWith(300, model.ResourceEnergy, 300)},
		&model.Structure{ID: "st", Kind: model.StructStorage, Pos: at(12, 10), Owner: model.OwnerMine, Store: storeWith(1000000, model.ResourceEnergy, 10)},
	)
	a := worker(z, at(10, 10))
	r := newResolver(z)

	var names []TierName
	for _, st := range r.SpawnSinks() {
		names = append(names, st.Name)
	}
	if len(names) != 3 || names[0] != "spawn" || names[1] != "extension" || names[2] != "tower" {
		t.Fatalf("spawn sink tiers = %v", names)
	}

	if res := r.FindTransferTarget(a, model.ResourceEnergy, Exclusions{}, r.SpawnSinks()); res.Found {
		t.Fatalf("full spawn and no extensions should find nothing, got %+v", res)
	}
	res := r.FindTransferTarget(a, model.ResourceEnergy, Exclusions{}, nil)
	if !res.Found || res.Tier != TierReserve || res.Target.ID != "st" {
		t.Fatalf("default sinks should fall through to storage, got %+v", res)
	}
}
