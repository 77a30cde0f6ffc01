package world

import (
	"encoding/json"
	"testing"

	"colony.ai/internal/observerproto"
	"colony.ai/internal/sched/memory"
	simenc "colony.ai/internal/sim/encoding"
	"colony.ai/internal/sim/world/kernel/model"
)

func TestObserverStreamsTerrainOnceAndTicks(t *testing.T) {
	w, z := newFlatWorld(t)
	z.SetTerrain(11, 10, model.TerrainSwamp)
	a := addWorker(t, w, at(10, 10))
	w.mem.Bucket(a.ID).Set(memory.KeyRole, "harvester")

	tickOut := make(chan []byte, 1)
	dataOut := make(chan []byte, 4)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "s1", TickOut: tickOut, DataOut: dataOut})

	w.step()

	if len(dataOut) != 1 {
		t.Fatalf("expected one terrain message, got %d", len(dataOut))
	}
	var terr observerproto.ZoneTerrainMsg
	if err := json.Unmarshal(<-dataOut, &terr); err != nil {
		t.Fatalf("unmarshal terrain: %v", err)
	}
	if terr.Type != "ZONE_TERRAIN" || terr.Zone != z.ID.String() {
		t.Fatalf("terrain msg: type=%s zone=%s", terr.Type, terr.Zone)
	}
	if terr.Encoding != simenc.TerrainRLE {
		t.Fatalf("terrain encoding=%q", terr.Encoding)
	}
	cells, err := simenc.DecodeTerrain(terr.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cells[10*model.ZoneSize+11] != model.TerrainSwamp {
		t.Fatalf("terrain payload: cell (11,10)=%s", cells[10*model.ZoneSize+11])
	}

	var tick observerproto.TickMsg
	if err := json.Unmarshal(<-tickOut, &tick); err != nil {
		t.Fatalf("unmarshal tick: %v", err)
	}
	if tick.Type != "TICK" || tick.Tick != 0 || tick.Digest == "" {
		t.Fatalf("tick msg: %+v", tick)
	}
	if len(tick.Agents) != 1 || tick.Agents[0].Role != "harvester" || tick.Agents[0].Owner != "mine" {
		t.Fatalf("agents: %+v", tick.Agents)
	}

	w.step()
	if len(dataOut) != 0 {
		t.Fatalf("terrain resent")
	}
	if len(tickOut) != 1 {
		t.Fatalf("tick not sent")
	}
	<-tickOut

	w.handleObserverSubscribe(ObserverSubscribeRequest{SessionID: "s1", Zones: []model.ZoneID{{X: 1}}})
	w.step()
	if err := json.Unmarshal(<-tickOut, &tick); err != nil {
		t.Fatalf("unmarshal tick: %v", err)
	}
	if len(tick.Agents) != 0 {
		t.Fatalf("filtered stream leaked agents: %+v", tick.Agents)
	}

	w.handleObserverLeave("s1")
	w.step()
	if len(tickOut) != 0 {
		t.Fatalf("tick sent after leave")
	}
}

func TestSendLatestKeepsNewest(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("a"))
	sendLatest(ch, []byte("b"))
	if got := string(<-ch); got != "b" {
		t.Fatalf("got %q want b", got)
	}
}
