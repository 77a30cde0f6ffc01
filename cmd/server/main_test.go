package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"colony.ai/internal/sim/world"
)

func TestLatestSnapshotPicksHighestTick(t *testing.T) {
	worldDir := t.TempDir()
	dir := filepath.Join(worldDir, "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"900.snap.zst", "12000.snap.zst", "3000.snap.zst", "notes.txt", "x.snap.zst"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got, want := latestSnapshot(worldDir), filepath.Join(dir, "12000.snap.zst"); got != want {
		t.Fatalf("latest: got %q want %q", got, want)
	}
	if got := latestSnapshot(t.TempDir()); got != "" {
		t.Fatalf("empty dir: got %q", got)
	}
}

type fakeTickLogger struct {
	n   int
	err error
}

func (f *fakeTickLogger) WriteTick(world.TickLogEntry) error {
	f.n++
	return f.err
}

func TestMultiTickLoggerWritesAll(t *testing.T) {
	boom := errors.New("boom")
	a, b := &fakeTickLogger{err: boom}, &fakeTickLogger{}
	err := multiTickLogger{a, b}.WriteTick(world.TickLogEntry{Tick: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err: %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("writes: a=%d b=%d", a.n, b.n)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != -4 || parseLevel("nonsense") != 0 {
		t.Fatalf("levels: debug=%v nonsense=%v", parseLevel("debug"), parseLevel("nonsense"))
	}
}
