package world

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"

	"colony.ai/internal/persistence/memstore"
	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sim/world/kernel/model"
)

// World is a single-threaded sandbox host.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg  WorldConfig
	log  *slog.Logger
	ctrl Controller

	tick  atomic.Uint64
	runID string

	zones map[model.ZoneID]*model.Zone
	order []model.ZoneID
	home  model.ZoneID

	mem *memstore.Memory

	// Per-tick state.
	visible    []model.ZoneID
	moves      []pendingMove
	spawned    []string
	died       []string
	population model.Population

	nextAgent  uint64
	nextEntity uint64

	totalSpawned uint64
	totalDeaths  uint64

	tickLogger   TickLogger
	snapshotSink chan<- snapshot.SnapshotV1

	observers     map[string]*observerClient
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	snapshotReq   chan snapshotReq

	metrics atomic.Value
	stop    chan struct{}
}

var _ host.World = (*World)(nil)
var _ host.MemoryGC = (*World)(nil)

// New generates a fresh world. A nil mem keeps agent memory in process with
// no byte budget.
func New(cfg WorldConfig, ctrl Controller, mem *memstore.Memory) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memstore.New(memstore.Config{Logger: cfg.Logger})
	}
	w := &World{
		cfg:           cfg,
		log:           cfg.Logger.With("world", cfg.ID),
		ctrl:          ctrl,
		runID:         uuid.NewString(),
		zones:         map[model.ZoneID]*model.Zone{},
		mem:           mem,
		observers:     map[string]*observerClient{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 64),
		observerLeave: make(chan string, 16),
		snapshotReq:   make(chan snapshotReq, 4),
		stop:          make(chan struct{}),
	}
	w.generate()
	w.refreshVisible()
	return w, nil
}

func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) RunID() string       { return w.runID }

// CurrentTick is safe to call from any goroutine.
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

// Population is the census most recently published by the controller.
func (w *World) Population() model.Population { return w.population }

func (w *World) newID(prefix string) string {
	w.nextEntity++
	return fmt.Sprintf("%s-%d", prefix, w.nextEntity)
}

func (w *World) newAgentID(prefix string) string {
	w.nextAgent++
	return fmt.Sprintf("%s-%d", prefix, w.nextAgent)
}

// host.Zones

func (w *World) Tick() uint64 { return w.tick.Load() }

func (w *World) VisibleZones() []model.ZoneID {
	return append([]model.ZoneID(nil), w.visible...)
}

func (w *World) Zone(id model.ZoneID) *model.Zone {
	for _, v := range w.visible {
		if v == id {
			return w.zones[id]
		}
	}
	return nil
}

// refreshVisible marks zones holding one of our agents or structures.
func (w *World) refreshVisible() {
	w.visible = w.visible[:0]
	for _, id := range w.order {
		if owned(w.zones[id]) {
			w.visible = append(w.visible, id)
		}
	}
}

func owned(z *model.Zone) bool {
	for _, a := range z.Agents {
		if a.Mine() {
			return true
		}
	}
	for _, s := range z.Structures {
		if s.Mine() {
			return true
		}
	}
	return false
}

// host.World

func (w *World) MyAgents() []*model.Agent {
	var out []*model.Agent
	for _, id := range w.order {
		for _, a := range w.zones[id].Agents {
			if a.Mine() {
				out = append(out, a)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Memory(agentID string) host.KV { return w.mem.Bucket(agentID) }

func (w *World) Publish(p model.Population) { w.population = p }

// host.MemoryGC

func (w *World) MemoryAgents() []string    { return w.mem.Agents() }
func (w *World) DropMemory(agentID string) { w.mem.Drop(agentID) }

func (w *World) allAgents() []*model.Agent {
	var out []*model.Agent
	for _, id := range w.order {
		out = append(out, w.zones[id].Agents...)
	}
	return out
}
