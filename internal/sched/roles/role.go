// Package roles holds the closed role set, the balancer that assigns roles
// and the per-role behaviors with their fallback chain.
package roles

type Role uint8

const (
	None Role = iota
	Harvester
	HarvesterSpawn
	HarvesterMineral
	Builder
	Repairer
	Upgrader
)

var roleNames = map[Role]string{
	Harvester:        "harvester",
	HarvesterSpawn:   "harvester_spawn",
	HarvesterMineral: "harvester_mineral",
	Builder:          "builder",
	Repairer:         "repairer",
	Upgrader:         "upgrader",
}

// All lists the known roles in a stable order.
var All = []Role{Harvester, HarvesterSpawn, HarvesterMineral, Builder, Repairer, Upgrader}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "none"
}

// Parse maps a stored role string to a Role. Unknown strings report false.
func Parse(s string) (Role, bool) {
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return None, false
}

// Gatherer roles prefer raw nodes over reserve stores when collecting.
func (r Role) Gatherer() bool {
	switch r {
	case Harvester, HarvesterSpawn, HarvesterMineral:
		return true
	}
	return false
}
