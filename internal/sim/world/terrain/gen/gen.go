// Package gen produces deterministic zone terrain from a seed.
package gen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"colony.ai/internal/sim/world/kernel/model"
	"colony.ai/internal/sim/world/logic/mathx"
)

type Params struct {
	Seed int64
	// Tiles whose normalized noise exceeds these thresholds become swamp or wall.
	SwampAbove float64
	WallAbove  float64
}

// Generator samples noise in global tile coordinates so neighbouring zones
// line up at their borders.
type Generator struct {
	p     Params
	swamp opensimplex.Noise
	wall  opensimplex.Noise
}

func New(p Params) *Generator {
	return &Generator{
		p:     p,
		swamp: opensimplex.NewNormalized(p.Seed),
		wall:  opensimplex.NewNormalized(p.Seed + 1),
	}
}

// Zone fills the terrain of one zone.
func (g *Generator) Zone(z *model.Zone) {
	for y := 0; y < model.ZoneSize; y++ {
		for x := 0; x < model.ZoneSize; x++ {
			gx, gy := model.Pos{Zone: z.ID, X: x, Y: y}.Global()
			t := model.TerrainPlain
			switch {
			case octaveNoise(g.wall, float64(gx), float64(gy), 3, 0.06, 0.5) > g.p.WallAbove:
				t = model.TerrainWall
			case octaveNoise(g.swamp, float64(gx), float64(gy), 2, 0.09, 0.5) > g.p.SwampAbove:
				t = model.TerrainSwamp
			}
			z.SetTerrain(x, y, t)
		}
	}
}

// ClearAround turns walls within r of (x,y) into plain.
func ClearAround(z *model.Zone, x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			tx, ty := x+dx, y+dy
			if tx < 0 || tx >= model.ZoneSize || ty < 0 || ty >= model.ZoneSize {
				continue
			}
			if z.TerrainAt(tx, ty) == model.TerrainWall {
				z.SetTerrain(tx, ty, model.TerrainPlain)
			}
		}
	}
}

// PickTile hashes (zone, salt) to a non-wall tile at least margin from the
// zone edge, probing forward from the hashed start.
func PickTile(seed int64, z *model.Zone, salt, margin int) (int, int, bool) {
	span := model.ZoneSize - 2*margin
	if span <= 0 {
		return 0, 0, false
	}
	h := Hash2(seed+int64(salt)*7919, z.ID.X, z.ID.Y)
	start := int(h % uint64(span*span))
	for i := 0; i < span*span; i++ {
		k := (start + i) % (span * span)
		x, y := margin+k%span, margin+k/span
		if z.TerrainAt(x, y) != model.TerrainWall {
			return x, y, true
		}
	}
	return 0, 0, false
}

func Hash2(seed int64, x, y int) uint64 {
	return mathx.Hash2(seed, x, y)
}

// octaveNoise layers frequencies and renormalizes to [0,1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
