package worldtest

import (
	"io"
	"log/slog"
	"testing"

	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sched"
	"colony.ai/internal/sim/tuning"
	world "colony.ai/internal/sim/world"
	"colony.ai/internal/sim/world/kernel/model"
)

// Harness drives a world through its exported API only:
// - Step()/StepN() advance via StepOnce()
// - Snapshot() exports at the last completed tick
// - Debug* helpers set deterministic preconditions
type Harness struct {
	T     *testing.T
	W     *world.World
	Sched *sched.Scheduler

	// Digests holds every digest produced so far, indexed by tick.
	Digests []string
}

func DiscardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// Config is a small two-zone sandbox with default tuning.
func Config(seed int64) world.WorldConfig {
	cfg := world.ConfigFromTuning("test", seed, tuning.Defaults())
	cfg.Logger = DiscardLogger()
	return cfg
}

func NewScheduler(t *testing.T) *sched.Scheduler {
	t.Helper()
	s, err := sched.New(sched.Config{Tuning: tuning.Defaults(), Logger: DiscardLogger()})
	if err != nil {
		t.Fatalf("sched.New: %v", err)
	}
	return s
}

// NewHarness builds a world run by a fresh scheduler.
func NewHarness(t *testing.T, cfg world.WorldConfig) *Harness {
	t.Helper()
	s := NewScheduler(t)
	w, err := world.New(cfg, s, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w, Sched: s}
}

// NewHarnessFromSnapshot imports snap into a new world with a fresh scheduler.
func NewHarnessFromSnapshot(t *testing.T, cfg world.WorldConfig, snap snapshot.SnapshotV1) *Harness {
	t.Helper()
	h := NewHarness(t, cfg)
	if err := h.W.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	h.Digests = make([]string, h.W.CurrentTick())
	return h
}

func (h *Harness) Step() (uint64, string) {
	h.T.Helper()
	want := h.W.CurrentTick()
	tick, digest := h.W.StepOnce()
	if tick != want {
		h.T.Fatalf("stepped tick %d, expected %d", tick, want)
	}
	h.Digests = append(h.Digests, digest)
	return tick, digest
}

// StepN steps n ticks and returns the last digest.
func (h *Harness) StepN(n int) string {
	h.T.Helper()
	var d string
	for i := 0; i < n; i++ {
		_, d = h.Step()
	}
	return d
}

// Snapshot exports at the last completed tick, so importing it resumes at the
// current tick.
func (h *Harness) Snapshot() (uint64, snapshot.SnapshotV1) {
	h.T.Helper()
	cur := h.W.CurrentTick()
	if cur == 0 {
		h.T.Fatalf("Snapshot before the first tick")
	}
	return cur - 1, h.W.ExportSnapshot(cur - 1)
}

func (h *Harness) Home() *model.Zone {
	return h.W.DebugZone(h.W.DebugHome())
}

func (h *Harness) MyAgents() []*model.Agent {
	return h.W.MyAgents()
}
