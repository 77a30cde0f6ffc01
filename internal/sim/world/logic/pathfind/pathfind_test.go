package pathfind

import (
	"testing"

	"colony.ai/internal/sim/world/kernel/model"
)

var z0 = model.ZoneID{}

func at(x, y int) model.Pos { return model.Pos{Zone: z0, X: x, Y: y} }

// flat returns 2 inside zone Z0.0 and blocks everything else.
func flat(blocked map[[2]int]bool) CostFunc {
	return func(gx, gy int) uint8 {
		if gx < 0 || gy < 0 || gx >= model.ZoneSize || gy >= model.ZoneSize {
			return Impassable
		}
		if blocked[[2]int{gx, gy}] {
			return Impassable
		}
		return 2
	}
}

func TestSearchPicksCheapestGoal(t *testing.T) {
	res := Search(at(10, 10), []Goal{{Pos: at(30, 10), Range: 1}, {Pos: at(14, 10), Range: 1}}, flat(nil), Options{})
	if !res.Found || res.Goal != 1 {
		t.Fatalf("expected nearer goal, got %+v", res)
	}
	if len(res.Path) != 3 || res.Cost != 6 {
		t.Fatalf("path len=%d cost=%d", len(res.Path), res.Cost)
	}
	if end := res.End(at(10, 10)); model.Range(end, at(14, 10)) != 1 {
		t.Fatalf("end %v not adjacent to goal", end)
	}
}

func TestSearchStartAlreadyInRange(t *testing.T) {
	res := Search(at(5, 5), []Goal{{Pos: at(5, 6), Range: 1}}, flat(nil), Options{})
	if !res.Found || len(res.Path) != 0 || res.Goal != 0 {
		t.Fatalf("expected zero-length found path, got %+v", res)
	}
}

func TestSearchWalledOff(t *testing.T) {
	blocked := map[[2]int]bool{}
	for x := 0; x < model.ZoneSize; x++ {
		blocked[[2]int{x, 20}] = true
	}
	res := Search(at(10, 10), []Goal{{Pos: at(10, 30), Range: 0}}, flat(blocked), Options{})
	if res.Found {
		t.Fatalf("expected unreachable, got %+v", res)
	}
}

func TestSearchMaxCost(t *testing.T) {
	res := Search(at(0, 0), []Goal{{Pos: at(20, 0), Range: 0}}, flat(nil), Options{MaxCost: 10})
	if res.Found {
		t.Fatalf("expected max cost to cut search, got %+v", res)
	}
	res = Search(at(0, 0), []Goal{{Pos: at(4, 0), Range: 0}}, flat(nil), Options{MaxCost: 10})
	if !res.Found || res.Cost != 8 {
		t.Fatalf("expected reachable under ceiling, got %+v", res)
	}
}

func TestSearchFlee(t *testing.T) {
	res := Search(at(10, 10), []Goal{{Pos: at(10, 9), Range: 3}}, flat(nil), Options{Flee: true})
	if !res.Found {
		t.Fatalf("flee should find a tile")
	}
	end := res.End(at(10, 10))
	if model.Range(end, at(10, 9)) < 3 {
		t.Fatalf("flee end %v too close", end)
	}
}

func TestSearchCrossesZoneBorder(t *testing.T) {
	open := func(gx, gy int) uint8 {
		if gy < 0 || gy >= model.ZoneSize || gx < 0 || gx >= 2*model.ZoneSize {
			return Impassable
		}
		return 2
	}
	goal := model.Pos{Zone: model.ZoneID{X: 1}, X: 2, Y: 10}
	res := Search(at(47, 10), []Goal{{Pos: goal, Range: 0}}, open, Options{})
	if !res.Found || res.End(at(47, 10)) != goal {
		t.Fatalf("expected path into neighbour zone, got %+v", res)
	}
}

func TestSearchDeterministic(t *testing.T) {
	a := Search(at(0, 0), []Goal{{Pos: at(6, 6), Range: 0}}, flat(nil), Options{})
	b := Search(at(0, 0), []Goal{{Pos: at(6, 6), Range: 0}}, flat(nil), Options{})
	if len(a.Path) != len(b.Path) {
		t.Fatalf("length differs")
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			t.Fatalf("paths differ at %d: %v vs %v", i, a.Path[i], b.Path[i])
		}
	}
}
