package world

import (
	"testing"

	"colony.ai/internal/protocol"
	"colony.ai/internal/sim/world/kernel/model"
)

func TestHarvestTransferUpgrade(t *testing.T) {
	w, z := newFlatWorld(t)
	src := &model.Source{ID: "src", Pos: at(10, 10), Energy: 100, EnergyCapacity: 100}
	z.Sources = append(z.Sources, src)
	ext := w.newStructure(model.StructExtension, at(10, 11))
	ctrl := &model.Structure{ID: "ctrl", Kind: model.StructController, Pos: at(12, 11), Owner: model.OwnerMine, Level: 1}
	z.Structures = append(z.Structures, ext, ctrl)

	a := addWorker(t, w, at(11, 10))
	far := addWorker(t, w, at(20, 20))

	if got := w.Harvest(far, src.ID); got != protocol.ErrNotInRange {
		t.Fatalf("far harvest: got %s", got)
	}
	if got := w.Harvest(a, src.ID); got != protocol.OK {
		t.Fatalf("harvest: got %s", got)
	}
	if a.Store.Of(model.ResourceEnergy) != 2 || src.Energy != 98 {
		t.Fatalf("after harvest: carry=%d source=%d", a.Store.Of(model.ResourceEnergy), src.Energy)
	}
	if src.TicksToRegeneration != w.cfg.SourceRegen {
		t.Fatalf("regen timer: got %d want %d", src.TicksToRegeneration, w.cfg.SourceRegen)
	}

	if got := w.Upgrade(a, ctrl.ID); got != protocol.OK {
		t.Fatalf("upgrade: got %s", got)
	}
	if ctrl.Progress != 1 || a.Store.Of(model.ResourceEnergy) != 1 {
		t.Fatalf("after upgrade: progress=%d carry=%d", ctrl.Progress, a.Store.Of(model.ResourceEnergy))
	}

	if got := w.Transfer(a, ext.ID, model.ResourceEnergy); got != protocol.OK {
		t.Fatalf("transfer: got %s", got)
	}
	if ext.Store.Of(model.ResourceEnergy) != 1 || a.Store.Used() != 0 {
		t.Fatalf("after transfer: ext=%d carry=%d", ext.Store.Of(model.ResourceEnergy), a.Store.Used())
	}
	if got := w.Transfer(a, ext.ID, model.ResourceEnergy); got != protocol.ErrNotEnough {
		t.Fatalf("empty transfer: got %s", got)
	}
	if got := w.Harvest(a, "missing"); got != protocol.ErrInvalidTarget {
		t.Fatalf("unknown target: got %s", got)
	}
}

func TestMineralNeedsExtractor(t *testing.T) {
	w, z := newFlatWorld(t)
	m := &model.Mineral{ID: "min", Pos: at(10, 10), Type: model.ResourceOxygen, Amount: 10}
	z.Minerals = append(z.Minerals, m)
	a := addWorker(t, w, at(11, 10))

	if got := w.Harvest(a, m.ID); got != protocol.ErrFail {
		t.Fatalf("without extractor: got %s", got)
	}
	z.Structures = append(z.Structures, w.newStructure(model.StructExtractor, m.Pos))
	if got := w.Harvest(a, m.ID); got != protocol.OK {
		t.Fatalf("with extractor: got %s", got)
	}
	if a.Store.Of(model.ResourceOxygen) != 1 || m.Amount != 9 {
		t.Fatalf("after harvest: carry=%d mineral=%d", a.Store.Of(model.ResourceOxygen), m.Amount)
	}
}

func TestBuildCompletesStructure(t *testing.T) {
	w, z := newFlatWorld(t)
	site := &model.ConstructionSite{ID: "site", Kind: model.StructExtension, Pos: at(13, 10), Owner: model.OwnerMine, ProgressTotal: 10}
	z.Sites = append(z.Sites, site)
	a := addAgent(t, w, at(11, 10), model.PartWork, model.PartWork, model.PartCarry, model.PartMove)
	a.Store.Add(model.ResourceEnergy, 50)

	if got := w.Build(a, site.ID); got != protocol.OK {
		t.Fatalf("build: got %s", got)
	}
	if len(z.Sites) != 0 {
		t.Fatalf("site should be finished")
	}
	got := z.StructuresAt(13, 10)
	if len(got) != 1 || got[0].Kind != model.StructExtension || !got[0].Mine() {
		t.Fatalf("structures at site: %+v", got)
	}
	if a.Store.Of(model.ResourceEnergy) != 40 {
		t.Fatalf("energy left: got %d want 40", a.Store.Of(model.ResourceEnergy))
	}
	if got := w.Build(a, site.ID); got != protocol.ErrInvalidTarget {
		t.Fatalf("finished site: got %s", got)
	}
}

func TestRepairSpendsEnergy(t *testing.T) {
	w, z := newFlatWorld(t)
	road := w.newStructure(model.StructRoad, at(12, 10))
	road.Hits = road.HitsMax - 150
	z.Structures = append(z.Structures, road)
	a := addWorker(t, w, at(11, 10))

	if got := w.Repair(a, road.ID); got != protocol.ErrNotEnough {
		t.Fatalf("repair without energy: got %s", got)
	}
	a.Store.Add(model.ResourceEnergy, 5)
	if got := w.Repair(a, road.ID); got != protocol.OK {
		t.Fatalf("repair: got %s", got)
	}
	if road.Hits != road.HitsMax-50 || a.Store.Of(model.ResourceEnergy) != 4 {
		t.Fatalf("after repair: hits=%d carry=%d", road.Hits, a.Store.Of(model.ResourceEnergy))
	}
}

func TestAttackKillLeavesTombstone(t *testing.T) {
	w, z := newFlatWorld(t)
	hostile := &model.Agent{
		ID:          "hostile-x",
		Pos:         at(11, 11),
		Owner:       model.OwnerHostile,
		Body:        []model.BodyPart{model.PartMove},
		Store:       model.NewStore(50),
		Hits:        30,
		HitsMax:     100,
		TicksToLive: -1,
	}
	hostile.Store.Add(model.ResourceEnergy, 20)
	z.Agents = append(z.Agents, hostile)
	a := addAgent(t, w, at(10, 10), model.PartAttack, model.PartMove)
	friend := addWorker(t, w, at(9, 10))

	if got := w.Attack(a, friend.ID); got != protocol.ErrInvalidTarget {
		t.Fatalf("attack own agent: got %s", got)
	}
	if got := w.Attack(a, hostile.ID); got != protocol.OK {
		t.Fatalf("attack: got %s", got)
	}
	if w.DebugAgent(hostile.ID) != nil {
		t.Fatalf("hostile should be dead")
	}
	if len(z.Tombstones) != 1 || z.Tombstones[0].Store.Of(model.ResourceEnergy) != 20 {
		t.Fatalf("tombstones: %+v", z.Tombstones)
	}
	if len(w.died) != 0 {
		t.Fatalf("hostile deaths are not ours: %v", w.died)
	}

	if got := w.Withdraw(friend, z.Tombstones[0].ID, model.ResourceEnergy); got != protocol.ErrNotInRange {
		t.Fatalf("withdraw out of range: got %s", got)
	}
}

func TestMoveFatigueAndOccupancy(t *testing.T) {
	w, z := newFlatWorld(t)
	z.SetTerrain(11, 10, model.TerrainSwamp)
	z.SetTerrain(10, 9, model.TerrainWall)

	a := addWorker(t, w, at(10, 10))
	b := addWorker(t, w, at(12, 10))

	if got := w.Move(a, []model.Pos{at(10, 9)}); got != protocol.ErrNoPath {
		t.Fatalf("into wall: got %s", got)
	}
	if got := w.Move(a, []model.Pos{at(12, 12)}); got != protocol.ErrNoPath {
		t.Fatalf("non-adjacent: got %s", got)
	}
	if got := w.Move(a, []model.Pos{at(11, 10)}); got != protocol.OK {
		t.Fatalf("move a: got %s", got)
	}
	if got := w.Move(b, []model.Pos{at(11, 10)}); got != protocol.OK {
		t.Fatalf("move b: got %s", got)
	}
	w.systemMovement()

	if a.Pos != at(11, 10) || b.Pos != at(12, 10) {
		t.Fatalf("positions: a=%s b=%s", a.Pos, b.Pos)
	}
	// One loaded-free work part on swamp: 10, less 2 recovered.
	if a.Fatigue != 8 || b.Fatigue != 0 {
		t.Fatalf("fatigue: a=%d b=%d", a.Fatigue, b.Fatigue)
	}
	if got := w.Move(a, []model.Pos{at(12, 11)}); got != protocol.ErrTired {
		t.Fatalf("tired move: got %s", got)
	}

	a.Spawning = true
	if got := w.Move(a, []model.Pos{at(12, 11)}); got != protocol.ErrFail {
		t.Fatalf("spawning move: got %s", got)
	}
}
