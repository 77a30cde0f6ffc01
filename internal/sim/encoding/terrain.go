// Package encoding packs zone terrain for the observer stream.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"colony.ai/internal/sim/world/kernel/model"
)

// TerrainRLE names the encoding in ZONE_TERRAIN messages: base64 of
// (terrain byte, uvarint run) pairs over the zone in row-major order.
const TerrainRLE = "RLE_TERRAIN"

// EncodeTerrain run-length encodes a zone's terrain cells.
func EncodeTerrain(cells []model.Terrain) string {
	buf := make([]byte, 0, 64)
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(cells); {
		t := cells[i]
		run := 1
		for i+run < len(cells) && cells[i+run] == t {
			run++
		}
		buf = append(buf, byte(t))
		n := binary.PutUvarint(tmp[:], uint64(run))
		buf = append(buf, tmp[:n]...)
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeTerrain reverses EncodeTerrain. The payload must expand to exactly
// one zone of cells.
func DecodeTerrain(b64 string) ([]model.Terrain, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	const cells = model.ZoneSize * model.ZoneSize
	out := make([]model.Terrain, 0, cells)
	for i := 0; i < len(raw); {
		t := model.Terrain(raw[i])
		if t > model.TerrainWall {
			return nil, fmt.Errorf("unknown terrain %d at %d", raw[i], i)
		}
		i++
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 || run == 0 {
			return nil, fmt.Errorf("bad run at %d", i)
		}
		i += n
		if uint64(len(out))+run > cells {
			return nil, fmt.Errorf("terrain overflows zone: %d cells", uint64(len(out))+run)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, t)
		}
	}
	if len(out) != cells {
		return nil, fmt.Errorf("terrain covers %d of %d cells", len(out), cells)
	}
	return out, nil
}
