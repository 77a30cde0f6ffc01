package world

import (
	"io"
	"log/slog"
	"testing"

	"colony.ai/internal/sim/world/kernel/model"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newFlatWorld builds a one-zone world and replaces home with an empty plain
// zone so tests control every entity on it.
func newFlatWorld(t *testing.T) (*World, *model.Zone) {
	t.Helper()
	w, err := New(WorldConfig{Seed: 7, ZonesX: 1, ZonesY: 1, Logger: discardLogger()}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	z := model.NewZone(w.home)
	w.zones[w.home] = z
	return w, z
}

func at(x, y int) model.Pos { return model.Pos{X: x, Y: y} }

func addAgent(t *testing.T, w *World, p model.Pos, body ...model.BodyPart) *model.Agent {
	t.Helper()
	a := &model.Agent{
		Pos:         p,
		Owner:       model.OwnerMine,
		Body:        body,
		Hits:        100 * len(body),
		HitsMax:     100 * len(body),
		TicksToLive: 100,
	}
	if err := w.DebugAddAgent(a); err != nil {
		t.Fatalf("DebugAddAgent: %v", err)
	}
	return a
}

func addWorker(t *testing.T, w *World, p model.Pos) *model.Agent {
	t.Helper()
	return addAgent(t, w, p, model.PartWork, model.PartCarry, model.PartMove)
}
