package sched

import (
	"io"
	"log/slog"
	"testing"

	"colony.ai/internal/protocol"
	"colony.ai/internal/sched/costmatrix"
	"colony.ai/internal/sched/hosttest"
	"colony.ai/internal/sched/memory"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
)

func at(x, y int) model.Pos { return model.Pos{X: x, Y: y} }

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(Config{
		Tuning: tuning.Defaults(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
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

func TestOnTickStartOncePerTick(t *testing.T) {
	c := NewWorldCache(costmatrixParams())
	f := hosttest.New(model.NewZone(model.ZoneID{}))
	if !c.OnTickStart(f) {
		t.Fatalf("first boundary should invalidate")
	}
	c.Costs.Matrix(model.ZoneID{})
	if c.OnTickStart(f) {
		t.Fatalf("same tick should not invalidate twice")
	}
	if c.Costs.Builds() != 1 {
		t.Fatalf("matrix rebuilt within the tick")
	}
	f.TickN++
	if !c.OnTickStart(f) || c.Costs.Builds() != 0 {
		t.Fatalf("new tick should drop the cache")
	}
}

func TestRunTickAssignsRolesAndPublishes(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources, &model.Source{ID: "src", Pos: at(25, 25), Energy: 3000})
	f := hosttest.New(z)
	for i, id := range []string{"a", "b", "c"} {
		f.AddAgent(newWorker(id, at(10+i*2, 10)))
	}
	s := newScheduler(t)

	rep := s.RunTick(f)
	if len(f.Published) != 1 {
		t.Fatalf("published %d times", len(f.Published))
	}
	p := f.Published[0]
	sum := p.Unknown
	for _, n := range p.Roles {
		sum += n
	}
	if p.Total != 3 || sum != 3 {
		t.Fatalf("population: %+v", p)
	}
	for _, id := range []string{"a", "b", "c"} {
		if v, ok := f.KV(id).Get(memory.KeyRole); !ok || v == "" {
			t.Fatalf("agent %s has no persisted role", id)
		}
	}
	if rep.Tick != 1 || rep.MatrixBuilds != 1 || rep.ActionTotal() == 0 {
		t.Fatalf("report: %+v", rep)
	}
}

func TestPanicIsolatedToOneAgent(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	z.Sources = append(z.Sources,
		&model.Source{ID: "s1", Pos: at(10, 11), Energy: 100},
		&model.Source{ID: "s2", Pos: at(30, 11), Energy: 100},
	)
	f := hosttest.New(z)
	f.AddAgent(newWorker("bad", at(10, 10)))
	f.AddAgent(newWorker("good", at(30, 10)))
	f.CodeFor = func(c hosttest.Call) protocol.Code {
		if c.AgentID == "bad" {
			panic("host exploded")
		}
		return protocol.OK
	}
	s := newScheduler(t)

	rep := s.RunTick(f)
	if rep.Faults != 1 {
		t.Fatalf("faults = %d", rep.Faults)
	}
	if v, _ := f.KV("good").Get(memory.KeyGathering); v != "true" {
		t.Fatalf("good agent's turn was not saved")
	}
	if rep.Actions["HARVEST/OK"] != 1 {
		t.Fatalf("actions: %+v", rep.Actions)
	}
}

func TestUnknownRoleIsNoop(t *testing.T) {
	z := model.NewZone(model.ZoneID{})
	f := hosttest.New(z)
	a := f.AddAgent(newWorker("x", at(10, 10)))
	kv := f.KV(a.ID)
	kv.Set(memory.KeyVersion, "1")
	kv.Set(memory.KeyRole, "miner")
	s := newScheduler(t)

	rep := s.RunTick(f)
	if rep.UnknownRoles != 1 || rep.Population.Unknown != 1 {
		t.Fatalf("report: %+v", rep)
	}
	if len(f.Calls) != 0 {
		t.Fatalf("unknown role acted: %+v", f.Calls)
	}
	if v, _ := kv.Get(memory.KeyRole); v != "miner" {
		t.Fatalf("unknown role overwritten: %q", v)
	}
}

func TestMemoryGC(t *testing.T) {
	f := hosttest.New(model.NewZone(model.ZoneID{}))
	f.AddAgent(newWorker("alive", at(10, 10)))
	f.KV("dead").Set(memory.KeyRole, "builder")
	s := newScheduler(t)

	f.TickN = 31
	s.RunTick(f)
	if len(f.Dropped) != 0 {
		t.Fatalf("gc ran off schedule")
	}
	f.TickN = 32
	rep := s.RunTick(f)
	if rep.MemoryGC != 1 || len(f.Dropped) != 1 || f.Dropped[0] != "dead" {
		t.Fatalf("dropped %v, report %d", f.Dropped, rep.MemoryGC)
	}
}

func TestNewRejectsBadQuota(t *testing.T) {
	tn := tuning.Defaults()
	tn.Roles.UpgraderQuota = "total +"
	if _, err := New(Config{Tuning: tn}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWindowStatsRotate(t *testing.T) {
	ws := NewWindowStats(10, 30)
	ws.Observe(TickReport{Tick: 1, Actions: map[string]int{"MOVE/OK": 2}})
	ws.Observe(TickReport{Tick: 15, Faults: 1})
	if got := ws.Summarize(15); got.Ticks != 2 || got.Actions != 2 || got.Faults != 1 {
		t.Fatalf("summary: %+v", got)
	}
	if got := ws.Summarize(45); got.Ticks != 0 {
		t.Fatalf("old buckets should rotate out: %+v", got)
	}
}

func costmatrixParams() costmatrix.Params {
	return costmatrix.ParamsFrom(tuning.Defaults().Pathfinding)
}
