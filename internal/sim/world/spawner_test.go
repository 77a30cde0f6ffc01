package world

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"colony.ai/internal/sim/world/kernel/model"
)

func homeSpawn(w *World, z *model.Zone, energy int) *model.Structure {
	s := w.newStructure(model.StructSpawn, at(homeSpawnX, homeSpawnY))
	s.Store.Add(model.ResourceEnergy, energy)
	z.Structures = append(z.Structures, s)
	w.refreshVisible()
	return s
}

func TestSpawnWorker(t *testing.T) {
	w, z := newFlatWorld(t)
	spawn := homeSpawn(w, z, 300)

	w.systemSpawn(0)

	if diff := cmp.Diff([]string{"worker-1"}, w.spawned); diff != "" {
		t.Fatalf("spawned mismatch (-want +got):\n%s", diff)
	}
	a := w.DebugAgent("worker-1")
	if a == nil {
		t.Fatalf("worker not placed")
	}
	if diff := cmp.Diff(workerBody, a.Body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if !a.Spawning || a.TicksToLive != w.cfg.AgentLifetime || a.Store.Capacity != 100 {
		t.Fatalf("new agent: %+v", a)
	}
	if model.Range(a.Pos, spawn.Pos) != 1 {
		t.Fatalf("worker at %s, not next to spawn", a.Pos)
	}
	if spawn.Store.Of(model.ResourceEnergy) != 0 {
		t.Fatalf("spawn energy left: %d", spawn.Store.Of(model.ResourceEnergy))
	}
}

func TestSpawnDrawsExtensions(t *testing.T) {
	w, z := newFlatWorld(t)
	spawn := homeSpawn(w, z, 260)
	ext := w.newStructure(model.StructExtension, at(20, 20))
	ext.Store.Add(model.ResourceEnergy, 50)
	z.Structures = append(z.Structures, ext)

	w.systemSpawn(0)

	if len(w.spawned) != 1 {
		t.Fatalf("expected a spawn, got %v", w.spawned)
	}
	if spawn.Store.Of(model.ResourceEnergy) != 0 || ext.Store.Of(model.ResourceEnergy) != 10 {
		t.Fatalf("energy left: spawn=%d ext=%d", spawn.Store.Of(model.ResourceEnergy), ext.Store.Of(model.ResourceEnergy))
	}
}

func TestSpawnWaitsForEnergyAndCap(t *testing.T) {
	w, z := newFlatWorld(t)
	homeSpawn(w, z, 299)
	w.systemSpawn(0)
	if len(w.spawned) != 0 {
		t.Fatalf("spawned without energy: %v", w.spawned)
	}

	w2, z2 := newFlatWorld(t)
	w2.cfg.MaxAgents = 1
	homeSpawn(w2, z2, 300)
	addWorker(t, w2, at(5, 5))
	w2.systemSpawn(0)
	if len(w2.spawned) != 0 {
		t.Fatalf("spawned past the cap: %v", w2.spawned)
	}
}

func TestSpawnGuardWhenHostilesSeen(t *testing.T) {
	w, z := newFlatWorld(t)
	homeSpawn(w, z, 300)
	z.Agents = append(z.Agents, &model.Agent{
		ID: "hostile-1", Pos: at(40, 40), Owner: model.OwnerHostile,
		Body: []model.BodyPart{model.PartAttack}, Store: model.NewStore(0), Hits: 100, HitsMax: 100,
	})
	w.population = model.Population{Total: 4}

	w.systemSpawn(0)

	if diff := cmp.Diff([]string{"guard-1"}, w.spawned); diff != "" {
		t.Fatalf("spawned mismatch (-want +got):\n%s", diff)
	}
	if a := w.DebugAgent("guard-1"); a.AttackerKind() != model.AttackerShort {
		t.Fatalf("guard body: %v", a.Body)
	}
}
