package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	persistlog "colony.ai/internal/persistence/log"
	"colony.ai/internal/persistence/memstore"
	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sched"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst (empty: replay a fresh world from -seed)")
		ticksDir   = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst (default: <world dir>/ticks)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml used by the recorded run")
		seed       = flag.Int64("seed", 1337, "world seed for fresh replays")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	var snap *snapshot.SnapshotV1
	if *snapPath != "" {
		s, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d run=%s tick=%d seed=%d zones=%d agents=%d memory_agents=%d\n",
			s.Header.Version, s.Header.RunID, s.Header.Tick, s.Seed, len(s.Zones), len(s.Agents), len(s.Memory))
		snap = &s
	}

	dir := *ticksDir
	if dir == "" {
		if *snapPath == "" {
			fmt.Fprintln(os.Stderr, "missing -ticks")
			os.Exit(2)
		}
		// <world>/snapshots/N.snap.zst -> <world>/ticks
		dir = filepath.Join(filepath.Dir(filepath.Dir(*snapPath)), "ticks")
	}
	files, err := persistlog.ListTickFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", dir)
		os.Exit(1)
	}

	w, err := buildWorld(tune, *seed, snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	sum, err := replay(w, files, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	printSummary(os.Stdout, sum)
	fmt.Printf("replay ok: checked=%d ticks (from tick=%d)\n", sum.Checked, sum.From)
}

// buildWorld recreates the recorded world with a fresh scheduler and an
// in-process memory store using the recorded budget.
func buildWorld(tune tuning.Tuning, seed int64, snap *snapshot.SnapshotV1) (*world.World, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := sched.New(sched.Config{Tuning: tune, Logger: logger})
	if err != nil {
		return nil, err
	}
	mem := memstore.New(memstore.Config{BudgetBytes: tune.MemoryBudgetBytes, Logger: logger})

	cfg := world.ConfigFromTuning("replay", seed, tune)
	cfg.Logger = logger
	if snap != nil {
		cfg.Seed = snap.Seed
		cfg.TickRateHz = snap.TickRate
		cfg.ZonesX, cfg.ZonesY = snap.ZonesX, snap.ZonesY
	}
	w, err := world.New(cfg, s, mem)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		if err := w.ImportSnapshot(*snap); err != nil {
			return nil, fmt.Errorf("import snapshot: %w", err)
		}
	}
	return w, nil
}

type summary struct {
	From    uint64
	Checked uint64
	Last    world.TickLogEntry
	Actions map[string]int
	Spawns  int
	Deaths  int
	Faults  int
}

var errDone = errors.New("done")

// replay steps w through every logged tick at or after its current tick and
// compares digests from verifyFrom on.
func replay(w *world.World, files []string, verifyFrom, toTick uint64) (summary, error) {
	start := w.CurrentTick()
	if verifyFrom < start {
		verifyFrom = start
	}
	sum := summary{From: verifyFrom, Actions: map[string]int{}}

	step := func(entry world.TickLogEntry) error {
		if entry.Tick < start {
			return nil
		}
		if toTick != 0 && entry.Tick > toTick {
			return errDone
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}
		tick, got := w.StepOnce()
		if tick < verifyFrom {
			return nil
		}
		if got != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
		}
		sum.Checked++
		sum.Last = entry
		sum.Spawns += len(entry.Spawns)
		sum.Deaths += len(entry.Deaths)
		sum.Faults += entry.Report.Faults
		for k, v := range entry.Report.Actions {
			sum.Actions[k] += v
		}
		return nil
	}

	for _, path := range files {
		err := persistlog.ReadTickFile(path, step)
		if errors.Is(err, errDone) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return sum, nil
}

func printSummary(out io.Writer, sum summary) {
	t := tablewriter.NewWriter(out)
	t.SetHeader([]string{"metric", "value"})
	t.Append([]string{"ticks checked", strconv.FormatUint(sum.Checked, 10)})
	t.Append([]string{"last tick", strconv.FormatUint(sum.Last.Tick, 10)})
	t.Append([]string{"last digest", sum.Last.Digest})
	t.Append([]string{"population", strconv.Itoa(sum.Last.Report.Population.Total)})
	t.Append([]string{"spawns", strconv.Itoa(sum.Spawns)})
	t.Append([]string{"deaths", strconv.Itoa(sum.Deaths)})
	t.Append([]string{"faults", strconv.Itoa(sum.Faults)})
	t.Render()

	if len(sum.Actions) == 0 {
		return
	}
	keys := make([]string, 0, len(sum.Actions))
	for k := range sum.Actions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a := tablewriter.NewWriter(out)
	a.SetHeader([]string{"action", "count"})
	for _, k := range keys {
		a.Append([]string{k, strconv.Itoa(sum.Actions[k])})
	}
	a.Render()
}
