package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sched/memory"
	"colony.ai/internal/sim/world/kernel/model"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -snapshot)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	agentID := fs.String("agent", "", "dump one agent's memory instead of the summary")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -snapshot")
			os.Exit(2)
		}
		path = latestSnapshot(filepath.Join(*dataDir, "worlds", *worldID))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	if id := strings.TrimSpace(*agentID); id != "" {
		if err := printMemory(os.Stdout, snap, id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	fmt.Printf("snapshot=%s run=%s tick=%d seed=%d\n", filepath.Base(path), snap.Header.RunID, snap.Header.Tick, snap.Seed)
	printZones(os.Stdout, snap)
	printAgents(os.Stdout, snap)
}

func printZones(out io.Writer, snap snapshot.SnapshotV1) {
	t := tablewriter.NewWriter(out)
	t.SetHeader([]string{"zone", "structures", "sites", "sources", "drops", "tombstones", "ruins", "agents"})
	agents := map[string]int{}
	for _, a := range snap.Agents {
		agents[a.Pos.Zone]++
	}
	for _, z := range snap.Zones {
		t.Append([]string{
			z.ID,
			strconv.Itoa(len(z.Structures)),
			strconv.Itoa(len(z.Sites)),
			strconv.Itoa(len(z.Sources)),
			strconv.Itoa(len(z.Drops)),
			strconv.Itoa(len(z.Tombstones)),
			strconv.Itoa(len(z.Ruins)),
			strconv.Itoa(agents[z.ID]),
		})
	}
	t.Render()
}

func printAgents(out io.Writer, snap snapshot.SnapshotV1) {
	agents := append([]snapshot.AgentV1(nil), snap.Agents...)
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })

	t := tablewriter.NewWriter(out)
	t.SetHeader([]string{"agent", "owner", "role", "pos", "hits", "ttl", "body"})
	for _, a := range agents {
		t.Append([]string{
			a.ID,
			ownerName(model.Owner(a.Owner)),
			snap.Memory[a.ID][memory.KeyRole],
			fmt.Sprintf("%s:%d,%d", a.Pos.Zone, a.Pos.X, a.Pos.Y),
			fmt.Sprintf("%d/%d", a.Hits, a.HitsMax),
			strconv.Itoa(a.TicksToLive),
			strconv.Itoa(len(a.Body)),
		})
	}
	t.Render()
}

func printMemory(out io.Writer, snap snapshot.SnapshotV1, id string) error {
	kv, ok := snap.Memory[id]
	if !ok {
		return fmt.Errorf("no memory for agent %q at tick %d", id, snap.Header.Tick)
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := tablewriter.NewWriter(out)
	t.SetHeader([]string{"key", "value"})
	for _, k := range keys {
		t.Append([]string{k, kv[k]})
	}
	t.Render()
	return nil
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
