package observerproto

import "colony.ai/internal/sim/world/kernel/model"

// Version is the observer protocol version.
const Version = "0.2"

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Zones limits the stream to these zone ids; empty means every visible zone.
	Zones []string `json:"zones,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	RunID           string      `json:"run_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	TerrainPalette  []string    `json:"terrain_palette"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	ZoneSize   int   `json:"zone_size"`
	ZonesX     int   `json:"zones_x"`
	ZonesY     int   `json:"zones_y"`
	Seed       int64 `json:"seed"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Population model.Population `json:"population"`
	Outcomes   map[string]int   `json:"outcomes,omitempty"`
	Actions    map[string]int   `json:"actions,omitempty"`
	Faults     int              `json:"faults,omitempty"`

	Agents     []AgentState     `json:"agents"`
	Structures []StructureState `json:"structures,omitempty"`
	Spawns     []string         `json:"spawns,omitempty"`
	Deaths     []string         `json:"deaths,omitempty"`
}

type AgentState struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Role  string `json:"role,omitempty"`

	Zone string `json:"zone"`
	X    int    `json:"x"`
	Y    int    `json:"y"`

	HP       int `json:"hp"`
	HPMax    int `json:"hp_max"`
	Carry    int `json:"carry"`
	Capacity int `json:"capacity"`
	TTL      int `json:"ttl"`

	Gathering bool `json:"gathering,omitempty"`
}

type StructureState struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Zone  string `json:"zone"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	HP    int    `json:"hp"`
	HPMax int    `json:"hp_max"`
}

// Server -> Client. Full terrain for a zone, sent once per subscription.
// Encoding "RLE_TERRAIN" is base64 of (terrain byte, uvarint run) pairs in row-major order.
type ZoneTerrainMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Zone            string `json:"zone"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
}
