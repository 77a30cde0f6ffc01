package model

import (
	"fmt"
	"strconv"
	"strings"

	"colony.ai/internal/sim/world/logic/mathx"
)

// ZoneSize is the edge length of a zone in tiles.
const ZoneSize = 50

// ZoneID names a zone by its coordinates on the zone grid.
type ZoneID struct {
	X int
	Y int
}

func (z ZoneID) String() string { return fmt.Sprintf("Z%d.%d", z.X, z.Y) }

func (z ZoneID) MarshalText() ([]byte, error) { return []byte(z.String()), nil }

func (z *ZoneID) UnmarshalText(b []byte) error {
	id, ok := ParseZoneID(string(b))
	if !ok {
		return fmt.Errorf("bad zone id %q", string(b))
	}
	*z = id
	return nil
}

func ParseZoneID(s string) (ZoneID, bool) {
	if !strings.HasPrefix(s, "Z") {
		return ZoneID{}, false
	}
	xs, ys, ok := strings.Cut(s[1:], ".")
	if !ok {
		return ZoneID{}, false
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return ZoneID{}, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return ZoneID{}, false
	}
	return ZoneID{X: x, Y: y}, true
}

// Pos is a tile position inside a zone.
type Pos struct {
	Zone ZoneID `json:"zone"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (p Pos) String() string { return fmt.Sprintf("%s(%d,%d)", p.Zone, p.X, p.Y) }

func (p Pos) Valid() bool {
	return p.X >= 0 && p.X < ZoneSize && p.Y >= 0 && p.Y < ZoneSize
}

// Global returns world-wide tile coordinates; zones tile the plane edge to edge.
func (p Pos) Global() (int, int) {
	return p.Zone.X*ZoneSize + p.X, p.Zone.Y*ZoneSize + p.Y
}

func FromGlobal(gx, gy int) Pos {
	return Pos{
		Zone: ZoneID{X: mathx.FloorDiv(gx, ZoneSize), Y: mathx.FloorDiv(gy, ZoneSize)},
		X:    mathx.Mod(gx, ZoneSize),
		Y:    mathx.Mod(gy, ZoneSize),
	}
}

// Range is the Chebyshev distance between two positions, across zone borders.
func Range(a, b Pos) int {
	ax, ay := a.Global()
	bx, by := b.Global()
	return mathx.MaxInt(mathx.AbsInt(ax-bx), mathx.AbsInt(ay-by))
}

func (p Pos) InRangeTo(o Pos, r int) bool { return Range(p, o) <= r }

func (p Pos) IsNearTo(o Pos) bool { return Range(p, o) <= 1 }
