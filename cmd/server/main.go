package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"colony.ai/internal/persistence/indexdb"
	persistlog "colony.ai/internal/persistence/log"
	"colony.ai/internal/persistence/memstore"
	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sched"
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world"
	"colony.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		memBackend = flag.String("memstore", memstore.BackendSQLite, "agent memory backend: mem|sqlite|leveldb")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/snapshot index")
		maxTicks   = flag.Uint64("max_ticks", 0, "stop after this many ticks (0 = run until signalled)")
		logLevel   = flag.String("log_level", "info", "debug|info|warn|error")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)
	fatal := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		fatal("data dir", "err", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		// Resumes may run without a tuning file; the snapshot carries world shape.
		if snapshotToLoad == "" || !errors.Is(err, os.ErrNotExist) {
			fatal("load tuning", "err", err)
		}
		logger.Warn("tuning not found; using defaults", "path", *tuningPath)
		tune = tuning.Defaults()
	}

	// Optional read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
		if err != nil {
			fatal("open index", "err", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Warn("index: upsert tuning", "err", err)
		}
	}

	store, err := memstore.Open(*memBackend, worldDir)
	if err != nil {
		fatal("open memstore", "backend", *memBackend, "err", err)
	}
	mem := memstore.New(memstore.Config{Store: store, BudgetBytes: tune.MemoryBudgetBytes, Logger: logger})
	defer mem.Close()

	s, err := sched.New(sched.Config{
		Tuning:           tune,
		Logger:           logger,
		StatsBucketTicks: 300,
		StatsWindowTicks: 3000,
	})
	if err != nil {
		fatal("scheduler", "err", err)
	}
	ctrl := &statsController{s: s}

	cfg := world.ConfigFromTuning(*worldID, *seed, tune)
	cfg.MaxTicks = *maxTicks
	cfg.Logger = logger

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			fatal("read snapshot", "path", snapshotToLoad, "err", err)
		}
		cfg.Seed = snap.Seed
		cfg.TickRateHz = snap.TickRate
		cfg.ZonesX, cfg.ZonesY = snap.ZonesX, snap.ZonesY
		if w, err = world.New(cfg, ctrl, mem); err != nil {
			fatal("world", "err", err)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			fatal("import snapshot", "err", err)
		}
		logger.Info("resumed from snapshot", "snapshot", filepath.Base(snapshotToLoad), "tick", w.CurrentTick(), "run", w.RunID())
	} else {
		if w, err = world.New(cfg, ctrl, mem); err != nil {
			fatal("world", "err", err)
		}
		logger.Info("fresh world", "seed", cfg.Seed, "zones", cfg.ZonesX*cfg.ZonesY, "run", w.RunID())
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	loggers := multiTickLogger{tickLog}
	if idx != nil {
		loggers = append(loggers, idx)
	}
	w.SetTickLogger(loggers)

	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)

	ctx, cancel := signalContext()
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Snapshot writer.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap := <-snapCh:
				path := world.SnapshotPath(worldDir, snap.Header.Tick)
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Warn("snapshot write", "tick", snap.Header.Tick, "err", err)
					continue
				}
				logger.Info("snapshot written", "tick", snap.Header.Tick, "path", path)
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	})

	g.Go(func() error {
		// Reaching max_ticks ends the whole process.
		defer cancel()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("world stopped: %w", err)
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, *worldID, w, ctrl, idx)
	})

	// Local-only admin endpoints (do not affect simulation determinism).
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			WorldID string             `json:"world_id"`
			RunID   string             `json:"run_id"`
			Tick    uint64             `json:"tick"`
			Metrics world.WorldMetrics `json:"metrics"`
			Window  sched.StatsBucket  `json:"window"`
		}{
			WorldID: *worldID,
			RunID:   w.RunID(),
			Tick:    w.CurrentTick(),
			Metrics: w.Metrics(),
			Window:  ctrl.Window(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		tick, err := w.RequestSnapshot(ctx2)
		rw.Header().Set("Content-Type", "application/json")
		if err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick})
	})

	obsSrv := observer.NewServer(w, logger)
	mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	g.Go(func() error {
		logger.Info("listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ListenAndServe: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
	}
	logger.Info("stopped", "tick", w.CurrentTick())
}

// statsController runs the scheduler and keeps the rolling window readable
// from HTTP handlers.
type statsController struct {
	s      *sched.Scheduler
	window atomic.Value
}

func (c *statsController) RunTick(w host.World) sched.TickReport {
	rep := c.s.RunTick(w)
	c.window.Store(c.s.Stats().Summarize(rep.Tick))
	return rep
}

func (c *statsController) Window() sched.StatsBucket {
	b, _ := c.window.Load().(sched.StatsBucket)
	return b
}

func (c *statsController) WindowTicks() uint64 { return c.s.Stats().WindowTicks() }

func writeMetrics(rw http.ResponseWriter, worldID string, w *world.World, ctrl *statsController, idx *indexdb.SQLiteIndex) {
	m := w.Metrics()
	tick := w.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP colony_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE colony_world_tick gauge\n")
	fmt.Fprintf(rw, "colony_world_tick{world=%q} %d\n", worldID, tick)

	fmt.Fprintf(rw, "# HELP colony_agents Agents by owner.\n")
	fmt.Fprintf(rw, "# TYPE colony_agents gauge\n")
	fmt.Fprintf(rw, "colony_agents{world=%q,owner=%q} %d\n", worldID, "mine", m.Agents)
	fmt.Fprintf(rw, "colony_agents{world=%q,owner=%q} %d\n", worldID, "hostile", m.Hostiles)

	fmt.Fprintf(rw, "# HELP colony_zones Zone counts.\n")
	fmt.Fprintf(rw, "# TYPE colony_zones gauge\n")
	fmt.Fprintf(rw, "colony_zones{world=%q,kind=%q} %d\n", worldID, "total", m.Zones)
	fmt.Fprintf(rw, "colony_zones{world=%q,kind=%q} %d\n", worldID, "visible", m.Visible)

	fmt.Fprintf(rw, "# HELP colony_observers Connected observer sessions.\n")
	fmt.Fprintf(rw, "# TYPE colony_observers gauge\n")
	fmt.Fprintf(rw, "colony_observers{world=%q} %d\n", worldID, m.Observers)

	fmt.Fprintf(rw, "# HELP colony_spawned_total Agents spawned this process.\n")
	fmt.Fprintf(rw, "# TYPE colony_spawned_total counter\n")
	fmt.Fprintf(rw, "colony_spawned_total{world=%q} %d\n", worldID, m.SpawnedTotal)

	fmt.Fprintf(rw, "# HELP colony_deaths_total Agents of ours that died this process.\n")
	fmt.Fprintf(rw, "# TYPE colony_deaths_total counter\n")
	fmt.Fprintf(rw, "colony_deaths_total{world=%q} %d\n", worldID, m.DeathsTotal)

	fmt.Fprintf(rw, "# HELP colony_memory_rejected_total Memory writes refused for exceeding the budget.\n")
	fmt.Fprintf(rw, "# TYPE colony_memory_rejected_total counter\n")
	fmt.Fprintf(rw, "colony_memory_rejected_total{world=%q} %d\n", worldID, m.MemoryRejected)

	fmt.Fprintf(rw, "# HELP colony_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE colony_step_ms gauge\n")
	fmt.Fprintf(rw, "colony_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	win := ctrl.Window()
	fmt.Fprintf(rw, "# HELP colony_sched_window Rolling scheduler stats.\n")
	fmt.Fprintf(rw, "# TYPE colony_sched_window gauge\n")
	fmt.Fprintf(rw, "colony_sched_window{world=%q,metric=%q} %d\n", worldID, "ticks", win.Ticks)
	fmt.Fprintf(rw, "colony_sched_window{world=%q,metric=%q} %d\n", worldID, "actions", win.Actions)
	fmt.Fprintf(rw, "colony_sched_window{world=%q,metric=%q} %d\n", worldID, "faults", win.Faults)
	fmt.Fprintf(rw, "colony_sched_window{world=%q,metric=%q} %d\n", worldID, "idle", win.Idle)
	fmt.Fprintf(rw, "colony_sched_window{world=%q,metric=%q} %d\n", worldID, "matrix_builds", win.MatrixBuilds)

	fmt.Fprintf(rw, "# HELP colony_sched_window_ticks Rolling window size in ticks.\n")
	fmt.Fprintf(rw, "# TYPE colony_sched_window_ticks gauge\n")
	fmt.Fprintf(rw, "colony_sched_window_ticks{world=%q} %d\n", worldID, ctrl.WindowTicks())

	if idx == nil {
		return
	}
	st := idx.Stats()
	fmt.Fprintf(rw, "# HELP colony_index_queue_depth Index write queue depth.\n")
	fmt.Fprintf(rw, "# TYPE colony_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "colony_index_queue_depth{world=%q} %d\n", worldID, st.QueueDepth)
	fmt.Fprintf(rw, "# HELP colony_index_queue_capacity Index write queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE colony_index_queue_capacity gauge\n")
	fmt.Fprintf(rw, "colony_index_queue_capacity{world=%q} %d\n", worldID, st.QueueCapacity)
	fmt.Fprintf(rw, "# HELP colony_index_dropped_total Index writes dropped on a full queue.\n")
	fmt.Fprintf(rw, "# TYPE colony_index_dropped_total counter\n")
	fmt.Fprintf(rw, "colony_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", st.DropTickTotal)
	fmt.Fprintf(rw, "colony_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", st.DropSnapshotTotal)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var errs []error
	for _, l := range m {
		if err := l.WriteTick(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
