package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the full sandbox state: zones, agents and agent memory.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64 `json:"seed"`
	TickRate int   `json:"tick_rate_hz"`
	ZonesX   int   `json:"zones_x"`
	ZonesY   int   `json:"zones_y"`

	Zones  []ZoneV1  `json:"zones"`
	Agents []AgentV1 `json:"agents"`

	// Memory is keyed by agent id, including agents that have since died.
	Memory map[string]map[string]string `json:"memory"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextAgent  uint64 `json:"next_agent"`
	NextEntity uint64 `json:"next_entity"`
}

type PosV1 struct {
	Zone string `json:"zone"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type StoreV1 struct {
	Amounts  map[string]int `json:"amounts,omitempty"`
	Capacity int            `json:"capacity"`
	Accepts  []string       `json:"accepts,omitempty"`
}

type ZoneV1 struct {
	ID      string `json:"id"`
	Terrain []byte `json:"terrain"`

	Structures []StructureV1 `json:"structures,omitempty"`
	Sites      []SiteV1      `json:"sites,omitempty"`
	Sources    []SourceV1    `json:"sources,omitempty"`
	Minerals   []MineralV1   `json:"minerals,omitempty"`
	Deposits   []DepositV1   `json:"deposits,omitempty"`
	Drops      []DropV1      `json:"drops,omitempty"`
	Tombstones []RemainsV1   `json:"tombstones,omitempty"`
	Ruins      []RemainsV1   `json:"ruins,omitempty"`
}

type StructureV1 struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Pos      PosV1    `json:"pos"`
	Owner    uint8    `json:"owner"`
	Hits     int      `json:"hits"`
	HitsMax  int      `json:"hits_max"`
	Store    *StoreV1 `json:"store,omitempty"`
	Level    int      `json:"level,omitempty"`
	Progress int      `json:"progress,omitempty"`
}

type SiteV1 struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Pos           PosV1  `json:"pos"`
	Owner         uint8  `json:"owner"`
	Progress      int    `json:"progress"`
	ProgressTotal int    `json:"progress_total"`
}

type SourceV1 struct {
	ID                  string `json:"id"`
	Pos                 PosV1  `json:"pos"`
	Energy              int    `json:"energy"`
	EnergyCapacity      int    `json:"energy_capacity"`
	TicksToRegeneration int    `json:"ticks_to_regeneration"`
}

type MineralV1 struct {
	ID     string `json:"id"`
	Pos    PosV1  `json:"pos"`
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

type DepositV1 struct {
	ID       string `json:"id"`
	Pos      PosV1  `json:"pos"`
	Type     string `json:"type"`
	Cooldown int    `json:"cooldown"`
}

type DropV1 struct {
	ID     string `json:"id"`
	Pos    PosV1  `json:"pos"`
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

type RemainsV1 struct {
	ID    string  `json:"id"`
	Pos   PosV1   `json:"pos"`
	Store StoreV1 `json:"store"`
}

type AgentV1 struct {
	ID          string   `json:"id"`
	Pos         PosV1    `json:"pos"`
	Owner       uint8    `json:"owner"`
	Body        []string `json:"body"`
	Store       StoreV1  `json:"store"`
	Hits        int      `json:"hits"`
	HitsMax     int      `json:"hits_max"`
	Fatigue     int      `json:"fatigue"`
	TicksToLive int      `json:"ticks_to_live"`
	Spawning    bool     `json:"spawning,omitempty"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
