package model

import "sort"

type Terrain uint8

const (
	TerrainPlain Terrain = iota
	TerrainSwamp
	TerrainWall
)

func (t Terrain) String() string {
	switch t {
	case TerrainSwamp:
		return "swamp"
	case TerrainWall:
		return "wall"
	default:
		return "plain"
	}
}

type ResourceType string

const (
	ResourceEnergy ResourceType = "energy"
	ResourcePower  ResourceType = "power"

	ResourceHydrogen  ResourceType = "H"
	ResourceOxygen    ResourceType = "O"
	ResourceUtrium    ResourceType = "U"
	ResourceLemergium ResourceType = "L"
	ResourceKeanium   ResourceType = "K"
	ResourceZynthium  ResourceType = "Z"
	ResourceCatalyst  ResourceType = "X"

	ResourceSilicon ResourceType = "silicon"
	ResourceMetal   ResourceType = "metal"
	ResourceBiomass ResourceType = "biomass"
	ResourceMist    ResourceType = "mist"
)

// ResourceKind is the coarse class an agent asks the resolver for.
type ResourceKind uint8

const (
	KindEnergy ResourceKind = iota
	KindMinerals
	KindCommodities
	KindPower
)

func (k ResourceKind) String() string {
	switch k {
	case KindMinerals:
		return "minerals"
	case KindCommodities:
		return "commodities"
	case KindPower:
		return "power"
	default:
		return "energy"
	}
}

func (k ResourceKind) Matches(rt ResourceType) bool {
	return KindOf(rt) == k
}

func KindOf(rt ResourceType) ResourceKind {
	switch rt {
	case ResourceEnergy:
		return KindEnergy
	case ResourcePower:
		return KindPower
	case ResourceSilicon, ResourceMetal, ResourceBiomass, ResourceMist:
		return KindCommodities
	default:
		return KindMinerals
	}
}

// Store is a carried or structure inventory with a shared total capacity.
// A nil Accepts list means any resource type fits.
type Store struct {
	Amounts  map[ResourceType]int
	Capacity int
	Accepts  []ResourceType
}

func NewStore(capacity int, accepts ...ResourceType) *Store {
	return &Store{Amounts: map[ResourceType]int{}, Capacity: capacity, Accepts: accepts}
}

func (s *Store) Of(rt ResourceType) int {
	if s == nil {
		return 0
	}
	return s.Amounts[rt]
}

func (s *Store) Used() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, v := range s.Amounts {
		n += v
	}
	return n
}

func (s *Store) Free() int {
	if s == nil {
		return 0
	}
	if f := s.Capacity - s.Used(); f > 0 {
		return f
	}
	return 0
}

func (s *Store) Accept(rt ResourceType) bool {
	if s == nil {
		return false
	}
	if s.Accepts == nil {
		return true
	}
	for _, a := range s.Accepts {
		if a == rt {
			return true
		}
	}
	return false
}

// FreeFor is the free capacity usable by rt, zero when rt is not accepted.
func (s *Store) FreeFor(rt ResourceType) int {
	if !s.Accept(rt) {
		return 0
	}
	return s.Free()
}

// OfKind sums every held resource of the given kind.
func (s *Store) OfKind(k ResourceKind) int {
	if s == nil {
		return 0
	}
	n := 0
	for rt, v := range s.Amounts {
		if k.Matches(rt) {
			n += v
		}
	}
	return n
}

// Types lists held resource types with a positive amount, energy first then by name.
func (s *Store) Types() []ResourceType {
	if s == nil {
		return nil
	}
	out := make([]ResourceType, 0, len(s.Amounts))
	for rt, v := range s.Amounts {
		if v > 0 {
			out = append(out, rt)
		}
	}
	sortResourceTypes(out)
	return out
}

func (s *Store) Add(rt ResourceType, n int) {
	if s.Amounts == nil {
		s.Amounts = map[ResourceType]int{}
	}
	s.Amounts[rt] += n
	if s.Amounts[rt] <= 0 {
		delete(s.Amounts, rt)
	}
}

func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	out := &Store{Amounts: make(map[ResourceType]int, len(s.Amounts)), Capacity: s.Capacity}
	for k, v := range s.Amounts {
		out.Amounts[k] = v
	}
	if s.Accepts != nil {
		out.Accepts = append([]ResourceType(nil), s.Accepts...)
	}
	return out
}

func sortResourceTypes(in []ResourceType) {
	sort.Slice(in, func(i, j int) bool { return lessResource(in[i], in[j]) })
}

func lessResource(a, b ResourceType) bool {
	if a == ResourceEnergy || b == ResourceEnergy {
		return a == ResourceEnergy && b != ResourceEnergy
	}
	return a < b
}
