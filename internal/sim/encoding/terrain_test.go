package encoding

import (
	"encoding/base64"
	"testing"

	"github.com/google/go-cmp/cmp"

	"colony.ai/internal/sim/world/kernel/model"
)

func TestTerrainRoundTrip(t *testing.T) {
	var z model.Zone
	for x := 0; x < model.ZoneSize; x++ {
		z.SetTerrain(x, 0, model.TerrainWall)
	}
	z.SetTerrain(10, 11, model.TerrainSwamp)
	z.SetTerrain(11, 11, model.TerrainSwamp)

	enc := EncodeTerrain(z.Terrain[:])
	out, err := DecodeTerrain(enc)
	if err != nil {
		t.Fatalf("DecodeTerrain: %v", err)
	}
	if diff := cmp.Diff(z.Terrain[:], out); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}

	// wall row, plain, swamp pair, plain: four runs of two or three bytes.
	raw, _ := base64.StdEncoding.DecodeString(enc)
	if len(raw) > 12 {
		t.Fatalf("encoding not run-length compressed: %d bytes", len(raw))
	}
}

func TestDecodeTerrainRejects(t *testing.T) {
	b64 := func(b ...byte) string { return base64.StdEncoding.EncodeToString(b) }
	cases := map[string]string{
		"not base64":      "!!",
		"short zone":      b64(byte(model.TerrainPlain), 10),
		"unknown terrain": b64(9, 1),
		"zero run":        b64(byte(model.TerrainPlain), 0),
		"truncated run":   b64(byte(model.TerrainPlain)),
		"overflow":        b64(byte(model.TerrainPlain), 0xff, 0xff, 0x03),
	}
	for name, in := range cases {
		if _, err := DecodeTerrain(in); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
