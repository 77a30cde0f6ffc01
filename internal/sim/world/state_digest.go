package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"colony.ai/internal/sim/world/kernel/model"
)

// stateDigest hashes everything a replay must reproduce. Run ids and wall
// clock time are excluded.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, w.nextAgent)
	digestWriteU64(h, &tmp, w.nextEntity)
	for _, id := range w.order {
		w.digestZone(h, &tmp, w.zones[id])
	}
	w.digestMemory(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestZone(h hashWriter, tmp *[8]byte, z *model.Zone) {
	h.Write([]byte(z.ID.String()))
	for _, s := range z.Structures {
		digestString(h, tmp, s.ID)
		digestPos(h, tmp, s.Pos)
		digestWriteI64(h, tmp, int64(s.Hits))
		digestWriteI64(h, tmp, int64(s.Level))
		digestWriteI64(h, tmp, int64(s.Progress))
		digestStore(h, tmp, s.Store)
	}
	for _, c := range z.Sites {
		digestString(h, tmp, c.ID)
		digestWriteI64(h, tmp, int64(c.Progress))
	}
	for _, s := range z.Sources {
		digestString(h, tmp, s.ID)
		digestWriteI64(h, tmp, int64(s.Energy))
		digestWriteI64(h, tmp, int64(s.TicksToRegeneration))
	}
	for _, m := range z.Minerals {
		digestString(h, tmp, m.ID)
		digestWriteI64(h, tmp, int64(m.Amount))
	}
	for _, d := range z.Drops {
		digestString(h, tmp, d.ID)
		digestWriteI64(h, tmp, int64(d.Amount))
	}
	for _, rs := range [][]*model.Remains{z.Tombstones, z.Ruins} {
		for _, r := range rs {
			digestString(h, tmp, r.ID)
			digestStore(h, tmp, r.Store)
		}
	}
	for _, a := range z.Agents {
		digestString(h, tmp, a.ID)
		digestPos(h, tmp, a.Pos)
		digestWriteI64(h, tmp, int64(a.Hits))
		digestWriteI64(h, tmp, int64(a.Fatigue))
		digestWriteI64(h, tmp, int64(a.TicksToLive))
		digestStore(h, tmp, a.Store)
	}
}

func (w *World) digestMemory(h hashWriter, tmp *[8]byte) {
	all := w.mem.Export()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		digestString(h, tmp, id)
		kv := all[id]
		keys := make([]string, 0, len(kv))
		for k := range kv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			digestString(h, tmp, k)
			digestString(h, tmp, kv[k])
		}
	}
}

func digestPos(h hashWriter, tmp *[8]byte, p model.Pos) {
	gx, gy := p.Global()
	digestWriteI64(h, tmp, int64(gx))
	digestWriteI64(h, tmp, int64(gy))
}

func digestStore(h hashWriter, tmp *[8]byte, s *model.Store) {
	for _, rt := range s.Types() {
		digestString(h, tmp, string(rt))
		digestWriteI64(h, tmp, int64(s.Of(rt)))
	}
}

func digestString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
