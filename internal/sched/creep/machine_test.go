package creep

import (
	"testing"

	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/costmatrix"
	"colony.ai/internal/sched/hosttest"
	"colony.ai/internal/sched/memory"
	"colony.ai/internal/sched/roles"
	"colony.ai/internal/sched/targeting"
	"colony.ai/internal/sched/zonestats"
	"colony.ai/internal/sim/tasks"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
)

func at(x, y int) model.Pos { return model.Pos{X: x, Y: y} }

type rig struct {
	f     *hosttest.Fake
	codec *memory.Codec
	tn    tuning.Tuning
}

func newRig(t *testing.T, zs ...*model.Zone) *rig {
	t.Helper()
	codec, err := memory.NewCodec(64)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return &rig{f: hosttest.New(zs...), codec: codec, tn: tuning.Defaults()}
}

func (r *rig) context(a *model.Agent) *roles.Context {
	cache := costmatrix.NewCache(r.f, costmatrix.ParamsFrom(r.tn.Pathfinding))
	return &roles.Context{
		Agent:   a,
		Host:    r.f,
		Targets: targeting.New(r.f, cache.Cost, targeting.ConfigFrom(r.tn)),
		Stats:   zonestats.NewCache(r.f),
		Memory:  r.codec.Load(r.f.KV(a.ID)),
		Tuning:  &r.tn,
	}
}

func (r *rig) turn(a *model.Agent, role roles.Role) (Outcome, *roles.Context) {
	c := r.context(a)
	out := Turn(c, role)
	r.codec.Save(r.f.KV(a.ID), c.Memory)
	return out, c
}

func newWorker(id string, p model.Pos) *model.Agent {
	return &model.Agent{
		ID:    id,
		Pos:   p,
		Owner: model.OwnerMine,
		Body:  []model.BodyPart{model.PartWork, model.PartCarry, model.PartMove},
		Store: model.NewStore(model.CarryPerPart),
	}
}

func TestGatheringToActingClearsTarget(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))
	a.Store.Add(model.ResourceEnergy, model.CarryPerPart)

	kv := r.f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyGathering, "true")
	kv.Set(memory.KeyTargetPos, memory.EncodePos(at(20, 20)))
	kv.Set(memory.KeyTargetTTL, "7")

	r.turn(a, roles.Harvester)
	if _, ok := kv.Get(memory.KeyTargetPos); ok {
		t.Fatalf("target_pos survived the transition")
	}
	if _, ok := kv.Get(memory.KeyTargetTTL); ok {
		t.Fatalf("target_pos_count survived the transition")
	}
	if v, _ := kv.Get(memory.KeyGathering); v == "true" {
		t.Fatalf("still gathering with a full store")
	}
}

func TestFailedMoveExpiresTarget(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	r.f.Codes[tasks.KindMove] = protocol.ErrTired
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))

	kv := r.f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyGathering, "true")
	kv.Set(memory.KeyTargetPos, memory.EncodePos(at(20, 20)))
	kv.Set(memory.KeyTargetTTL, "1")

	if out, _ := r.turn(a, roles.Harvester); out != OutcomeMoved {
		t.Fatalf("outcome = %s", out)
	}
	if len(r.f.CallsOf(tasks.KindMove)) != 1 {
		t.Fatalf("expected one move attempt, got %+v", r.f.Calls)
	}
	if _, ok := kv.Get(memory.KeyTargetPos); ok {
		t.Fatalf("target_pos should be deleted")
	}
	if _, ok := kv.Get(memory.KeyTargetTTL); ok {
		t.Fatalf("target_pos_count should be deleted")
	}
}

func TestFailedMoveDecrementsTTL(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	r.f.Codes[tasks.KindMove] = protocol.ErrTired
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))

	kv := r.f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyGathering, "true")
	kv.Set(memory.KeyTargetPos, memory.EncodePos(at(20, 20)))

	r.turn(a, roles.Harvester)
	if v, _ := kv.Get(memory.KeyTargetTTL); v != "9" {
		t.Fatalf("absent TTL should default to 10 and drop to 9, got %q", v)
	}
}

func TestNoPathClearsTarget(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	r.f.Codes[tasks.KindMove] = protocol.ErrNoPath
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))

	kv := r.f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyGathering, "true")
	kv.Set(memory.KeyTargetPos, memory.EncodePos(at(20, 20)))
	kv.Set(memory.KeyTargetTTL, "15")

	r.turn(a, roles.Harvester)
	if _, ok := kv.Get(memory.KeyTargetPos); ok {
		t.Fatalf("NoPath should clear target_pos")
	}
}

func TestOccupiedTargetResolvesAgain(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(30, 10), Energy: 100})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))
	r.f.AddAgent(&model.Agent{ID: "other", Pos: at(20, 20), Owner: model.OwnerMine, Store: model.NewStore(50)})

	kv := r.f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyGathering, "true")
	kv.Set(memory.KeyTargetPos, memory.EncodePos(at(20, 20)))

	r.turn(a, roles.Harvester)
	raw, _ := kv.Get(memory.KeyTargetPos)
	p, ok := r.codec.DecodePos(raw)
	if !ok || !p.IsNearTo(at(30, 10)) {
		t.Fatalf("expected a fresh target next to the source, got %q", raw)
	}
	if v, _ := kv.Get(memory.KeyTargetTTL); v != "20" {
		t.Fatalf("active tier TTL for a gatherer = %q", v)
	}
}

func TestUnparsableTargetIsAbsent(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))

	kv := r.f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyGathering, "true")
	kv.Set(memory.KeyTargetPos, `{"zone":"nowhere"}`)

	if out, _ := r.turn(a, roles.Harvester); out != OutcomeHeld {
		t.Fatalf("empty world should hold, got %s", out)
	}
	if _, ok := kv.Get(memory.KeyTargetPos); ok {
		t.Fatalf("hold must not persist a target")
	}
}

func TestDirectHarvestEndsTurn(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(11, 10), Energy: 100})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))

	if out, _ := r.turn(a, roles.Harvester); out != OutcomeGathered {
		t.Fatalf("outcome = %s", out)
	}
	if h := r.f.CallsOf(tasks.KindHarvest); len(h) != 1 || h[0].TargetID != "src" {
		t.Fatalf("harvest calls: %+v", r.f.Calls)
	}
	if len(r.f.CallsOf(tasks.KindMove)) != 0 {
		t.Fatalf("no move expected after a successful harvest")
	}
}

func TestReserveWithdrawSetsFlag(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	st := model.NewStore(1000000)
	st.Add(model.ResourceEnergy, 500)
	z.Structures = append(z.Structures, &model.Structure{ID: "st", Kind: model.StructStorage, Pos: at(11, 10), Owner: model.OwnerMine, Store: st})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("b1", at(10, 10)))

	if out, _ := r.turn(a, roles.Builder); out != OutcomeGathered {
		t.Fatalf("outcome = %s", out)
	}
	kv := r.f.KV(a.ID)
	if v, _ := kv.Get(memory.KeyFromStorage); v != "true" {
		t.Fatalf("harvested_from_storage = %q", v)
	}

	// The drained storage stays excluded while the agent keeps gathering.
	r.f.Calls = nil
	if out, _ := r.turn(a, roles.Builder); out != OutcomeHeld {
		t.Fatalf("outcome = %s", out)
	}
	if v, _ := kv.Get(memory.KeyFromStorage); v != "true" {
		t.Fatalf("flag dropped before a fresh resolution")
	}
	r.turn(a, roles.Builder)
	if len(r.f.CallsOf(tasks.KindWithdraw)) != 0 {
		t.Fatalf("excluded storage withdrawn from: %+v", r.f.Calls)
	}
	if _, ok := kv.Get(memory.KeyFromStorage); ok {
		t.Fatalf("resolving to hold should clear the exclusion flags")
	}
}

func TestFleeFromSourceWithCooldown(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(21, 20), Energy: 100})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("u1", at(20, 20)))
	a.Store.Add(model.ResourceEnergy, 10)

	if out, _ := r.turn(a, roles.Upgrader); out != OutcomeFled {
		t.Fatalf("outcome = %s", out)
	}
	kv := r.f.KV(a.ID)
	if v, _ := kv.Get(memory.KeyFleeing); v != "5" {
		t.Fatalf("fleeing_count = %q", v)
	}
	move := r.f.CallsOf(tasks.KindMove)[0]
	if end := move.Path[len(move.Path)-1]; model.Range(end, at(21, 20)) < 3 {
		t.Fatalf("fled only to %+v", end)
	}

	if out, _ := r.turn(a, roles.Upgrader); out == OutcomeFled {
		t.Fatalf("fled again during cooldown")
	}
	if v, _ := kv.Get(memory.KeyFleeing); v != "4" {
		t.Fatalf("fleeing_count after cooldown tick = %q", v)
	}
}

func TestAttackerEngagesAdjacentHostile(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	a := newWorker("a1", at(10, 10))
	a.Body = []model.BodyPart{model.PartAttack, model.PartMove}
	r.f.AddAgent(a)
	r.f.AddAgent(&model.Agent{ID: "h1", Pos: at(11, 11), Owner: model.OwnerHostile})

	if out, _ := r.turn(a, roles.Harvester); out != OutcomeAttacked {
		t.Fatalf("outcome = %s", out)
	}
	if calls := r.f.CallsOf(tasks.KindAttack); len(calls) != 1 || calls[0].TargetID != "h1" {
		t.Fatalf("attack calls: %+v", r.f.Calls)
	}
}

func TestRangedAttackerApproaches(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	a := newWorker("a1", at(10, 10))
	a.Body = []model.BodyPart{model.PartRangedAttack, model.PartMove}
	r.f.AddAgent(a)
	r.f.AddAgent(&model.Agent{ID: "h1", Pos: at(20, 10), Owner: model.OwnerHostile})

	if out, _ := r.turn(a, roles.Harvester); out != OutcomeAttacked {
		t.Fatalf("outcome = %s", out)
	}
	if len(r.f.CallsOf(tasks.KindRangedAttack)) != 0 {
		t.Fatalf("out of range, no shot expected")
	}
	move := r.f.CallsOf(tasks.KindMove)
	if len(move) != 1 || model.Range(move[0].Path[len(move[0].Path)-1], at(20, 10)) > 3 {
		t.Fatalf("expected an approach to range 3, got %+v", move)
	}
}

func TestUnreachableHostileLeavesTurnToRole(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	for x := 38; x <= 42; x++ {
		for y := 38; y <= 42; y++ {
			if x == 40 && y == 40 {
				continue
			}
			z.SetTerrain(x, y, model.TerrainWall)
		}
	}
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(11, 10), Energy: 100})
	r := newRig(t, z)
	a := newWorker("w1", at(10, 10))
	a.Body = append(a.Body, model.PartAttack)
	r.f.AddAgent(a)
	r.f.AddAgent(&model.Agent{ID: "h1", Pos: at(40, 40), Owner: model.OwnerHostile})

	for i := 0; i < 3; i++ {
		r.f.Calls = nil
		if out, _ := r.turn(a, roles.Harvester); out != OutcomeGathered {
			t.Fatalf("turn %d: outcome = %s", i, out)
		}
		if h := r.f.CallsOf(tasks.KindHarvest); len(h) != 1 || h[0].TargetID != "src" {
			t.Fatalf("turn %d: harvest calls: %+v", i, r.f.Calls)
		}
	}
}

func TestSpawningSkipped(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	r := newRig(t, z)
	a := r.f.AddAgent(newWorker("w1", at(10, 10)))
	a.Spawning = true

	if out, _ := r.turn(a, roles.Harvester); out != OutcomeSkipped {
		t.Fatalf("outcome = %s", out)
	}
	if len(r.f.Calls) != 0 {
		t.Fatalf("spawning agent issued commands: %+v", r.f.Calls)
	}
}
