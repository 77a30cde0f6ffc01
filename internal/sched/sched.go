// Package sched runs one scheduling pass per tick over every agent we own.
package sched

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"colony.ai/internal/sched/costmatrix"
	"colony.ai/internal/sched/creep"
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sched/memory"
	"colony.ai/internal/sched/roles"
	"colony.ai/internal/sched/targeting"
	"colony.ai/internal/sim/tasks"
	"colony.ai/internal/sim/tuning"
)

type Config struct {
	Tuning tuning.Tuning
	Logger *slog.Logger

	// StatsBucketTicks and StatsWindowTicks size the rolling stats window.
	StatsBucketTicks uint64
	StatsWindowTicks uint64
}

const outcomeFault = "fault"

type Scheduler struct {
	tn  tuning.Tuning
	log *slog.Logger

	cache    *WorldCache
	codec    *memory.Codec
	balancer *roles.Balancer
	stats    *WindowStats
}

func New(cfg Config) (*Scheduler, error) {
	cfg.Tuning.ApplyDefaults()
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	if err := roles.ValidateFallbacks(); err != nil {
		return nil, err
	}
	b, err := roles.NewBalancer(cfg.Tuning.Roles)
	if err != nil {
		return nil, err
	}
	codec, err := memory.NewCodec(cfg.Tuning.Targets.DecodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("memory codec: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		tn:       cfg.Tuning,
		log:      log,
		cache:    NewWorldCache(costmatrix.ParamsFrom(cfg.Tuning.Pathfinding)),
		codec:    codec,
		balancer: b,
		stats:    NewWindowStats(cfg.StatsBucketTicks, cfg.StatsWindowTicks),
	}, nil
}

func (s *Scheduler) Cache() *WorldCache { return s.cache }

func (s *Scheduler) Stats() *WindowStats { return s.stats }

func (s *Scheduler) Codec() *memory.Codec { return s.codec }

// OnTickStart is the tick boundary hook. Calling it again for the same tick
// is a no-op.
func (s *Scheduler) OnTickStart(w host.Zones) {
	s.cache.OnTickStart(w)
}

type turnState struct {
	kv  host.KV
	rec *memory.Record
}

// RunTick runs one full pass: balance roles, publish the census, then give
// every agent its turn in host order.
func (s *Scheduler) RunTick(w host.World) TickReport {
	start := time.Now()
	s.OnTickStart(w)
	tick := w.Tick()

	rep := TickReport{
		Tick:     tick,
		Outcomes: map[string]int{},
	}

	agents := w.MyAgents()
	states := make([]turnState, len(agents))
	members := make([]roles.Member, len(agents))
	for i, a := range agents {
		kv := w.Memory(a.ID)
		rec := s.codec.Load(kv)
		states[i] = turnState{kv: kv, rec: rec}
		members[i] = roles.Member{Agent: a, Role: rec.Role}
	}

	census := s.balancer.Tally(members)
	for i := range agents {
		rec := states[i].rec
		if rec.Role != "" {
			continue
		}
		r, err := s.balancer.Assign(census, agents[i])
		if err != nil {
			s.log.Warn("role quota failed", "agent", agents[i].ID, "err", err)
		}
		rec.Role = r.String()
	}
	rep.Population = census.Population(tick)
	w.Publish(rep.Population)

	targets := targeting.New(w, s.cache.Costs.Cost, targeting.ConfigFrom(s.tn))
	var actions []tasks.Record
	for i, a := range agents {
		st := states[i]
		role, ok := roles.Parse(st.rec.Role)
		if !ok {
			s.log.Warn("unknown role", "agent", a.ID, "role", st.rec.Role)
			rep.UnknownRoles++
			continue
		}
		c := &roles.Context{
			Agent:   a,
			Host:    w,
			Targets: targets,
			Stats:   s.cache.Stats,
			Memory:  st.rec,
			Tuning:  &s.tn,
		}
		out, faulted := s.turn(c, role)
		actions = append(actions, c.Actions...)
		rep.Outcomes[out]++
		if faulted {
			rep.Faults++
			continue
		}
		rep.MemoryWrites += s.codec.Save(st.kv, st.rec)
	}
	rep.Actions = tasks.Tally(actions)

	if every := uint64(s.tn.MemoryGCEveryTicks); every > 0 && tick%every == 0 {
		if gc, ok := w.(host.MemoryGC); ok {
			rep.MemoryGC = collectMemory(gc, agents)
		}
	}

	rep.MatrixBuilds = s.cache.Costs.Builds()
	rep.DurationUS = time.Since(start).Microseconds()
	s.stats.Observe(rep)
	s.log.Debug("tick",
		"tick", tick,
		"agents", len(agents),
		"actions", rep.ActionTotal(),
		"faults", rep.Faults,
		"matrix_builds", rep.MatrixBuilds,
		"duration_us", rep.DurationUS,
	)
	return rep
}

// turn isolates one agent: a panic is logged and ends only that turn.
func (s *Scheduler) turn(c *roles.Context, role roles.Role) (out string, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("agent turn panicked", "agent", c.Agent.ID, "role", role.String(), "panic", r, "stack", string(debug.Stack()))
			out, faulted = outcomeFault, true
		}
	}()
	return string(creep.Turn(c, role)), false
}
