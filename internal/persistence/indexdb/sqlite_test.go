package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sched"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world"
	"colony.ai/internal/sim/world/kernel/model"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: world.TickLogEntry{Tick: 1}}

	_ = s.WriteTick(world.TickLogEntry{Tick: 2})
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.DropSnapshotTotal != 1 {
		t.Fatalf("DropSnapshotTotal=%d want=1", st.DropSnapshotTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_TicksAndSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("upsert tuning: %v", err)
	}

	for tick := uint64(1); tick <= 3; tick++ {
		_ = s.WriteTick(world.TickLogEntry{
			Tick:   tick,
			Digest: "d",
			Spawns: []string{"worker-1"},
			Report: sched.TickReport{
				Tick:       tick,
				Population: model.Population{Total: int(tick)},
				Actions:    map[string]int{"MOVE/OK": 2, "HARVEST/OK": 1},
			},
		})
	}
	s.RecordSnapshot("/data/3.snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, RunID: "run", Tick: 3},
		Seed:   9,
		Zones:  make([]snapshot.ZoneV1, 2),
		Agents: make([]snapshot.AgentV1, 3),
	})
	// Close drains the queue and commits.
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	ticks, err := s.RecentTicks(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []TickRow{
		{Tick: 3, Digest: "d", Population: 3, Actions: 3},
		{Tick: 2, Digest: "d", Population: 2, Actions: 3},
	}
	if diff := cmp.Diff(want, ticks); diff != "" {
		t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
	}

	totals, err := s.ActionTotals(ctx, 1, 2)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"MOVE/OK": 4, "HARVEST/OK": 2}, totals); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}

	snap, ok, err := s.LatestSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("latest snapshot ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(SnapshotRow{Tick: 3, Path: "/data/3.snap.zst", RunID: "run", Seed: 9, Zones: 2, Agents: 3}, snap); diff != "" {
		t.Fatalf("snapshot row mismatch (-want +got):\n%s", diff)
	}
}
