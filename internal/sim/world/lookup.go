package world

import "colony.ai/internal/sim/world/kernel/model"

// Lookups scan every zone; sandbox worlds are small.

func (w *World) findStructure(id string) (*model.Structure, *model.Zone) {
	for _, zid := range w.order {
		z := w.zones[zid]
		for _, s := range z.Structures {
			if s.ID == id {
				return s, z
			}
		}
	}
	return nil, nil
}

func (w *World) findSite(id string) (*model.ConstructionSite, *model.Zone) {
	for _, zid := range w.order {
		z := w.zones[zid]
		for _, c := range z.Sites {
			if c.ID == id {
				return c, z
			}
		}
	}
	return nil, nil
}

func (w *World) findSource(id string) *model.Source {
	for _, zid := range w.order {
		for _, s := range w.zones[zid].Sources {
			if s.ID == id {
				return s
			}
		}
	}
	return nil
}

func (w *World) findMineral(id string) (*model.Mineral, *model.Zone) {
	for _, zid := range w.order {
		z := w.zones[zid]
		for _, m := range z.Minerals {
			if m.ID == id {
				return m, z
			}
		}
	}
	return nil, nil
}

func (w *World) findDeposit(id string) *model.Deposit {
	for _, zid := range w.order {
		for _, d := range w.zones[zid].Deposits {
			if d.ID == id {
				return d
			}
		}
	}
	return nil
}

func (w *World) findDrop(id string) (*model.Drop, *model.Zone) {
	for _, zid := range w.order {
		z := w.zones[zid]
		for _, d := range z.Drops {
			if d.ID == id {
				return d, z
			}
		}
	}
	return nil, nil
}

func (w *World) findRemains(id string) *model.Remains {
	for _, zid := range w.order {
		z := w.zones[zid]
		for _, r := range z.Tombstones {
			if r.ID == id {
				return r
			}
		}
		for _, r := range z.Ruins {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

func (w *World) findAgent(id string) (*model.Agent, *model.Zone) {
	for _, zid := range w.order {
		z := w.zones[zid]
		for _, a := range z.Agents {
			if a.ID == id {
				return a, z
			}
		}
	}
	return nil, nil
}

// passable reports whether an agent may end its move on p.
func (w *World) passable(p model.Pos) bool {
	z := w.zones[p.Zone]
	if z == nil || !p.Valid() || z.TerrainAt(p.X, p.Y) == model.TerrainWall {
		return false
	}
	for _, s := range z.StructuresAt(p.X, p.Y) {
		if s.Kind.Walkable() {
			if s.Kind == model.StructRampart && !s.Usable() {
				return false
			}
			continue
		}
		return false
	}
	return !sourceAt(z, p.X, p.Y)
}
