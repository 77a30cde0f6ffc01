package model

// Zone is the observable state of one zone for the current tick.
type Zone struct {
	ID      ZoneID
	Terrain [ZoneSize * ZoneSize]Terrain

	Structures []*Structure
	Sites      []*ConstructionSite
	Sources    []*Source
	Minerals   []*Mineral
	Deposits   []*Deposit
	Drops      []*Drop
	Tombstones []*Remains
	Ruins      []*Remains
	Agents     []*Agent
}

func NewZone(id ZoneID) *Zone { return &Zone{ID: id} }

func (z *Zone) TerrainAt(x, y int) Terrain {
	if x < 0 || x >= ZoneSize || y < 0 || y >= ZoneSize {
		return TerrainWall
	}
	return z.Terrain[y*ZoneSize+x]
}

func (z *Zone) SetTerrain(x, y int, t Terrain) {
	z.Terrain[y*ZoneSize+x] = t
}

// AgentAt returns the agent standing on (x,y), if any.
func (z *Zone) AgentAt(x, y int) *Agent {
	for _, a := range z.Agents {
		if a.Pos.X == x && a.Pos.Y == y {
			return a
		}
	}
	return nil
}

func (z *Zone) StructuresAt(x, y int) []*Structure {
	var out []*Structure
	for _, s := range z.Structures {
		if s.Pos.X == x && s.Pos.Y == y {
			out = append(out, s)
		}
	}
	return out
}

func (z *Zone) StructuresOf(kinds ...StructureKind) []*Structure {
	var out []*Structure
	for _, s := range z.Structures {
		for _, k := range kinds {
			if s.Kind == k {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func (z *Zone) Controller() *Structure {
	for _, s := range z.Structures {
		if s.Kind == StructController {
			return s
		}
	}
	return nil
}

func (z *Zone) ActiveSources() []*Source {
	var out []*Source
	for _, s := range z.Sources {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

func (z *Zone) Hostiles() []*Agent {
	var out []*Agent
	for _, a := range z.Agents {
		if a.Owner == OwnerHostile {
			out = append(out, a)
		}
	}
	return out
}

// HasExtractor reports whether one of our extractors sits on p.
func (z *Zone) HasExtractor(p Pos) bool {
	for _, s := range z.Structures {
		if s.Kind == StructExtractor && s.Mine() && s.Pos == p {
			return true
		}
	}
	return false
}

func (z *Zone) MySites() []*ConstructionSite {
	var out []*ConstructionSite
	for _, c := range z.Sites {
		if c.Owner == OwnerMine {
			out = append(out, c)
		}
	}
	return out
}
