package model

type StructureKind string

const (
	StructSpawn      StructureKind = "spawn"
	StructExtension  StructureKind = "extension"
	StructRoad       StructureKind = "road"
	StructWall       StructureKind = "constructedWall"
	StructRampart    StructureKind = "rampart"
	StructContainer  StructureKind = "container"
	StructStorage    StructureKind = "storage"
	StructTerminal   StructureKind = "terminal"
	StructLink       StructureKind = "link"
	StructLab        StructureKind = "lab"
	StructTower      StructureKind = "tower"
	StructController StructureKind = "controller"
	StructExtractor  StructureKind = "extractor"
	StructPowerBank  StructureKind = "powerBank"
)

// Walkable reports whether agents may stand on the structure regardless of owner.
func (k StructureKind) Walkable() bool {
	switch k {
	case StructRoad, StructContainer, StructRampart:
		return true
	}
	return false
}

// Barrier structures are repaired against absolute hits rather than hit ratio.
func (k StructureKind) Barrier() bool {
	return k == StructWall || k == StructRampart
}

type Owner uint8

const (
	OwnerNone Owner = iota
	OwnerMine
	OwnerHostile
)

type Structure struct {
	ID      string
	Kind    StructureKind
	Pos     Pos
	Owner   Owner
	Hits    int
	HitsMax int
	Store   *Store

	// Controller only.
	Level    int
	Progress int
}

func (s *Structure) Mine() bool { return s.Owner == OwnerMine }

// Usable means owned by us or not ownable at all.
func (s *Structure) Usable() bool { return s.Owner != OwnerHostile }

func (s *Structure) Damaged() bool { return s.HitsMax > 0 && s.Hits < s.HitsMax }

type ConstructionSite struct {
	ID            string
	Kind          StructureKind
	Pos           Pos
	Owner         Owner
	Progress      int
	ProgressTotal int
}

func (c *ConstructionSite) Remaining() int { return c.ProgressTotal - c.Progress }

// Source is an energy node.
type Source struct {
	ID                  string
	Pos                 Pos
	Energy              int
	EnergyCapacity      int
	TicksToRegeneration int
}

func (s *Source) Active() bool { return s.Energy > 0 }

type Mineral struct {
	ID     string
	Pos    Pos
	Type   ResourceType
	Amount int
}

// Deposit is a commodity node.
type Deposit struct {
	ID       string
	Pos      Pos
	Type     ResourceType
	Cooldown int
}

// Drop is a resource pile lying on a tile.
type Drop struct {
	ID     string
	Pos    Pos
	Type   ResourceType
	Amount int
}

type RemainsKind uint8

const (
	RemainsTombstone RemainsKind = iota
	RemainsRuin
)

// Remains is a tombstone or ruin holding a lootable store.
type Remains struct {
	ID    string
	Kind  RemainsKind
	Pos   Pos
	Store *Store
}
