package world

import (
	"encoding/json"

	"colony.ai/internal/observerproto"
	"colony.ai/internal/sched/memory"
	simenc "colony.ai/internal/sim/encoding"
	"colony.ai/internal/sim/world/kernel/model"
)

// ObserverJoinRequest registers a read-only observer session that receives
// zone terrain (DataOut) and per-tick state (TickOut).
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
	DataOut   chan []byte

	// Zones filters the stream; empty means every visible zone.
	Zones []model.ZoneID
}

// ObserverSubscribeRequest replaces an existing session's zone filter.
type ObserverSubscribeRequest struct {
	SessionID string
	Zones     []model.ZoneID
}

type observerClient struct {
	id      string
	tickOut chan []byte
	dataOut chan []byte

	zones map[model.ZoneID]bool
	// sentTerrain tracks zones whose ZONE_TERRAIN was enqueued.
	sentTerrain map[model.ZoneID]bool
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	w.observers[req.SessionID] = &observerClient{
		id:          req.SessionID,
		tickOut:     req.TickOut,
		dataOut:     req.DataOut,
		zones:       zoneSet(req.Zones),
		sentTerrain: map[model.ZoneID]bool{},
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.zones = zoneSet(req.Zones)
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

func zoneSet(ids []model.ZoneID) map[model.ZoneID]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[model.ZoneID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func (c *observerClient) wants(id model.ZoneID) bool {
	return c.zones == nil || c.zones[id]
}

func (w *World) stepObservers(e TickLogEntry) {
	if len(w.observers) == 0 {
		return
	}
	for _, c := range w.observers {
		for _, id := range w.visible {
			if !c.wants(id) || c.sentTerrain[id] {
				continue
			}
			b, err := json.Marshal(w.terrainMsg(w.zones[id]))
			if err != nil {
				continue
			}
			select {
			case c.dataOut <- b:
				c.sentTerrain[id] = true
			default:
				// Retry next tick.
			}
		}

		b, err := json.Marshal(w.tickMsg(c, e))
		if err != nil {
			continue
		}
		sendLatest(c.tickOut, b)
	}
}

func (w *World) terrainMsg(z *model.Zone) observerproto.ZoneTerrainMsg {
	return observerproto.ZoneTerrainMsg{
		Type:            "ZONE_TERRAIN",
		ProtocolVersion: observerproto.Version,
		Zone:            z.ID.String(),
		Encoding:        simenc.TerrainRLE,
		Data:            simenc.EncodeTerrain(z.Terrain[:]),
	}
}

func (w *World) tickMsg(c *observerClient, e TickLogEntry) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            e.Tick,
		Digest:          e.Digest,
		Population:      e.Report.Population,
		Outcomes:        e.Report.Outcomes,
		Actions:         e.Report.Actions,
		Faults:          e.Report.Faults,
		Agents:          []observerproto.AgentState{},
		Spawns:          e.Spawns,
		Deaths:          e.Deaths,
	}
	for _, id := range w.visible {
		if !c.wants(id) {
			continue
		}
		z := w.zones[id]
		for _, a := range z.Agents {
			st := observerproto.AgentState{
				ID:       a.ID,
				Owner:    ownerName(a.Owner),
				Zone:     id.String(),
				X:        a.Pos.X,
				Y:        a.Pos.Y,
				HP:       a.Hits,
				HPMax:    a.HitsMax,
				Carry:    a.Store.Used(),
				Capacity: a.Store.Capacity,
				TTL:      a.TicksToLive,
			}
			if a.Mine() {
				kv := w.mem.Bucket(a.ID)
				st.Role, _ = kv.Get(memory.KeyRole)
				g, _ := kv.Get(memory.KeyGathering)
				st.Gathering = g == "true"
			}
			msg.Agents = append(msg.Agents, st)
		}
		for _, s := range z.Structures {
			msg.Structures = append(msg.Structures, observerproto.StructureState{
				ID: s.ID, Kind: string(s.Kind), Zone: id.String(),
				X: s.Pos.X, Y: s.Pos.Y, HP: s.Hits, HPMax: s.HitsMax,
			})
		}
	}
	return msg
}

func ownerName(o model.Owner) string {
	switch o {
	case model.OwnerMine:
		return "mine"
	case model.OwnerHostile:
		return "hostile"
	default:
		return "none"
	}
}

// TerrainPalette names terrain values in ZONE_TERRAIN data.
func TerrainPalette() []string {
	return []string{model.TerrainPlain.String(), model.TerrainSwamp.String(), model.TerrainWall.String()}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
