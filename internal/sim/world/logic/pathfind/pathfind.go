package pathfind

import (
	"container/heap"

	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/logic/mathx"
)

// Impassable is the tile cost that blocks movement.
const Impassable = 255

// CostFunc returns the cost of entering the tile at global coordinates.
type CostFunc func(gx, gy int) uint8

// Goal is satisfied by any tile within Range (Chebyshev) of Pos.
type Goal struct {
	Pos   model.Pos
	Range int
}

type Options struct {
	// MaxCost bounds the accumulated path cost; 0 means unbounded.
	MaxCost int
	// MaxOps bounds expanded nodes; 0 means DefaultMaxOps.
	MaxOps int
	// Flee inverts goals: a tile satisfies when it is at least Range from every goal.
	Flee bool
}

const DefaultMaxOps = 20000

type Result struct {
	Path  []model.Pos
	Cost  int
	Goal  int
	Found bool
	Ops   int
}

// End is the tile the path finishes on, or start when the path is empty.
func (r Result) End(start model.Pos) model.Pos {
	if len(r.Path) == 0 {
		return start
	}
	return r.Path[len(r.Path)-1]
}

// Fixed neighbour order keeps equal-cost results deterministic.
var dirs = [8][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}

type node struct{ x, y int }

type item struct {
	n    node
	cost int
	seq  int
}

type queue []item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

type goalG struct{ x, y, r int }

// Search runs a Dijkstra expansion from start toward the cheapest tile that
// satisfies any goal. The start tile itself is never costed.
func Search(start model.Pos, goals []Goal, cost CostFunc, opt Options) Result {
	res := Result{Goal: -1}
	if len(goals) == 0 || cost == nil {
		return res
	}
	maxOps := opt.MaxOps
	if maxOps <= 0 {
		maxOps = DefaultMaxOps
	}

	gs := make([]goalG, len(goals))
	for i, g := range goals {
		x, y := g.Pos.Global()
		gs[i] = goalG{x: x, y: y, r: g.Range}
	}
	satisfied := func(n node) int {
		if opt.Flee {
			for _, g := range gs {
				if cheb(n.x, n.y, g.x, g.y) < g.r {
					return -1
				}
			}
			return 0
		}
		for i, g := range gs {
			if cheb(n.x, n.y, g.x, g.y) <= g.r {
				return i
			}
		}
		return -1
	}

	sx, sy := start.Global()
	s := node{sx, sy}
	if gi := satisfied(s); gi >= 0 {
		res.Found = true
		res.Goal = gi
		return res
	}

	dist := map[node]int{s: 0}
	parent := make(map[node]node, 256)
	q := &queue{{n: s, cost: 0}}
	seq := 1

	for q.Len() > 0 {
		it := heap.Pop(q).(item)
		if d, ok := dist[it.n]; ok && it.cost > d {
			continue
		}
		res.Ops++
		if res.Ops > maxOps {
			return res
		}
		if it.n != s {
			if gi := satisfied(it.n); gi >= 0 {
				res.Found = true
				res.Goal = gi
				res.Cost = it.cost
				res.Path = unwind(parent, s, it.n)
				return res
			}
		}
		for _, d := range dirs {
			nb := node{it.n.x + d[0], it.n.y + d[1]}
			c := int(cost(nb.x, nb.y))
			if c >= Impassable {
				continue
			}
			nc := it.cost + c
			if opt.MaxCost > 0 && nc > opt.MaxCost {
				continue
			}
			if old, ok := dist[nb]; ok && old <= nc {
				continue
			}
			dist[nb] = nc
			parent[nb] = it.n
			heap.Push(q, item{n: nb, cost: nc, seq: seq})
			seq++
		}
	}
	return res
}

func unwind(parent map[node]node, start, end node) []model.Pos {
	var rev []model.Pos
	for n := end; n != start; n = parent[n] {
		rev = append(rev, model.FromGlobal(n.x, n.y))
	}
	out := make([]model.Pos, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}

func cheb(ax, ay, bx, by int) int {
	return mathx.MaxInt(mathx.AbsInt(ax-bx), mathx.AbsInt(ay-by))
}
