// Package costmatrix builds and caches per-zone traversal costs.
package costmatrix

import (
	"crypto/sha256"
	"encoding/hex"

	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/logic/mathx"
	"colony.ai/internal/sim/world/logic/pathfind"
)

const blocked = pathfind.Impassable

type Params struct {
	PlainCost     int
	SwampCost     int
	RoadCost      int
	RingRadius    int
	RingSurcharge int
	// BlockUnobserved makes zones without visibility fully impassable.
	BlockUnobserved bool
}

func ParamsFrom(p tuning.Pathfinding) Params {
	return Params{
		PlainCost:       p.PlainCost,
		SwampCost:       p.SwampCost,
		RoadCost:        p.RoadCost,
		RingRadius:      p.SourceRingRadius,
		RingSurcharge:   p.SourceRingSurcharge,
		BlockUnobserved: p.UnobservedZones != tuning.UnobservedOpen,
	}
}

// Matrix is an immutable cost grid for one zone.
type Matrix struct {
	Zone  model.ZoneID
	cells [model.ZoneSize * model.ZoneSize]uint8
}

func (m *Matrix) At(x, y int) uint8 {
	if x < 0 || x >= model.ZoneSize || y < 0 || y >= model.ZoneSize {
		return blocked
	}
	return m.cells[y*model.ZoneSize+x]
}

func (m *Matrix) set(x, y int, v uint8) { m.cells[y*model.ZoneSize+x] = v }

func (m *Matrix) Digest() string {
	sum := sha256.Sum256(m.cells[:])
	return hex.EncodeToString(sum[:])
}

// Build derives the matrix from current zone state. It never patches: every call
// starts from terrain.
func Build(z *model.Zone, p Params) *Matrix {
	m := &Matrix{Zone: z.ID}
	for y := 0; y < model.ZoneSize; y++ {
		for x := 0; x < model.ZoneSize; x++ {
			switch z.TerrainAt(x, y) {
			case model.TerrainWall:
				m.set(x, y, blocked)
			case model.TerrainSwamp:
				m.set(x, y, clampCost(p.SwampCost))
			default:
				m.set(x, y, clampCost(p.PlainCost))
			}
		}
	}

	// Roads first so a blocking structure sharing the tile still wins.
	for _, s := range z.Structures {
		if s.Kind == model.StructRoad {
			m.set(s.Pos.X, s.Pos.Y, clampCost(p.RoadCost))
		}
	}
	for _, s := range z.Structures {
		switch {
		case s.Kind == model.StructRoad, s.Kind == model.StructContainer:
		case s.Kind == model.StructRampart && s.Mine():
		default:
			m.set(s.Pos.X, s.Pos.Y, blocked)
		}
	}

	for _, s := range z.Sources {
		m.set(s.Pos.X, s.Pos.Y, blocked)
	}
	for _, mn := range z.Minerals {
		m.set(mn.Pos.X, mn.Pos.Y, blocked)
	}
	for _, d := range z.Deposits {
		m.set(d.Pos.X, d.Pos.Y, blocked)
	}

	for _, a := range z.Agents {
		m.set(a.Pos.X, a.Pos.Y, blocked)
	}

	for _, c := range z.Sites {
		if c.Owner == model.OwnerMine && !c.Kind.Walkable() {
			m.set(c.Pos.X, c.Pos.Y, blocked)
		}
	}

	r := p.RingRadius
	for _, s := range z.ActiveSources() {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				x, y := s.Pos.X+dx, s.Pos.Y+dy
				if x < 0 || x >= model.ZoneSize || y < 0 || y >= model.ZoneSize {
					continue
				}
				cur := m.At(x, y)
				if cur >= blocked || z.TerrainAt(x, y) == model.TerrainWall {
					continue
				}
				m.set(x, y, clampCost(int(cur)+p.RingSurcharge))
			}
		}
	}
	return m
}

// Unobserved is the matrix used for zones without visibility.
func Unobserved(id model.ZoneID, p Params) *Matrix {
	m := &Matrix{Zone: id}
	v := uint8(blocked)
	if !p.BlockUnobserved {
		v = clampCost(p.PlainCost)
	}
	for i := range m.cells {
		m.cells[i] = v
	}
	return m
}

// clampCost keeps passable costs inside 1..254.
func clampCost(v int) uint8 {
	return uint8(mathx.ClampInt(v, 1, blocked-1))
}
