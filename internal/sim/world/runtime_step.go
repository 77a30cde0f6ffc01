package world

import (
	"fmt"
	"path/filepath"
	"time"
)

// step runs one tick: the controller issues commands, then movement, upkeep
// and spawning resolve, then outputs are emitted.
func (w *World) step() TickLogEntry {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	w.refreshVisible()
	w.spawned, w.died = nil, nil

	entry := TickLogEntry{Tick: nowTick}
	if w.ctrl != nil {
		entry.Report = w.ctrl.RunTick(w)
	}

	w.systemMovement()
	w.systemUpkeep(nowTick)
	w.systemSpawn(nowTick)

	if _, err := w.mem.Flush(); err != nil {
		w.log.Warn("memory flush", "tick", nowTick, "err", err)
	}

	entry.Spawns = w.spawned
	entry.Deaths = w.died
	entry.Digest = w.stateDigest(nowTick)
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Warn("tick log", "tick", nowTick, "err", err)
		}
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			select {
			case w.snapshotSink <- w.ExportSnapshot(nowTick):
			default:
				w.log.Warn("snapshot dropped", "tick", nowTick)
			}
		}
	}

	w.stepObservers(entry)

	hostiles := 0
	for _, a := range w.allAgents() {
		if !a.Mine() {
			hostiles++
		}
	}
	nextTick := w.tick.Add(1)
	w.metrics.Store(WorldMetrics{
		Tick:           nextTick,
		Agents:         len(w.MyAgents()),
		Hostiles:       hostiles,
		Zones:          len(w.order),
		Visible:        len(w.visible),
		Observers:      len(w.observers),
		SpawnedTotal:   w.totalSpawned,
		DeathsTotal:    w.totalDeaths,
		MemoryRejected: w.mem.Rejected(),
		StepMS:         float64(time.Since(stepStart).Microseconds()) / 1000.0,
	})
	return entry
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce() (tick uint64, digest string) {
	e := w.step()
	return e.Tick, e.Digest
}

// SnapshotPath is where the server writes the snapshot for tick.
func SnapshotPath(worldDir string, tick uint64) string {
	return filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", tick))
}
