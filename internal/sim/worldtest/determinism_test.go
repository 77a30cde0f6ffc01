package worldtest

import (
	"testing"
)

func TestDeterminism_SameSeedSameDigests(t *testing.T) {
	h1 := NewHarness(t, Config(42))
	h2 := NewHarness(t, Config(42))

	for i := 0; i < 200; i++ {
		t1, d1 := h1.Step()
		t2, d2 := h2.Step()
		if t1 != t2 {
			t.Fatalf("tick mismatch: %d vs %d", t1, t2)
		}
		if d1 != d2 {
			t.Fatalf("digest mismatch at tick %d: %s vs %s", t1, d1, d2)
		}
	}
	if len(h1.MyAgents()) == 0 {
		t.Fatalf("expected the colony to spawn agents")
	}
}

func TestDeterminism_SeedChangesWorld(t *testing.T) {
	h1 := NewHarness(t, Config(1))
	h2 := NewHarness(t, Config(2))
	if h1.W.DebugStateDigest(0) == h2.W.DebugStateDigest(0) {
		t.Fatalf("different seeds produced the same world")
	}
}

func TestDeterminism_RunIDNotInDigest(t *testing.T) {
	h1 := NewHarness(t, Config(42))
	h2 := NewHarness(t, Config(42))
	if h1.W.RunID() == h2.W.RunID() {
		t.Fatalf("run ids should differ per world")
	}
	if h1.W.DebugStateDigest(0) != h2.W.DebugStateDigest(0) {
		t.Fatalf("digest depends on run id")
	}
}
