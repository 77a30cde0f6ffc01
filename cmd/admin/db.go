package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"colony.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit (ticks)")
	fromTick := fs.Uint64("from_tick", 0, "first tick (actions)")
	toTick := fs.Uint64("to_tick", 0, "last tick, 0 for open-ended (actions)")
	_ = fs.Parse(args)

	q := "snapshot"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := runQuery(ctx, os.Stdout, idx, q, *limit, *fromTick, *toTick); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runQuery(ctx context.Context, out io.Writer, idx *indexdb.SQLiteIndex, q string, limit int, from, to uint64) error {
	switch q {
	case "snapshot":
		row, ok, err := idx.LatestSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if !ok {
			return fmt.Errorf("no snapshots found")
		}
		return printJSON(out, row)

	case "ticks":
		if limit <= 0 {
			limit = 20
		}
		rows, err := idx.RecentTicks(ctx, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, r := range rows {
			if err := printJSON(out, r); err != nil {
				return err
			}
		}
		return nil

	case "actions":
		if to == 0 {
			to = math.MaxInt64
		}
		totals, err := idx.ActionTotals(ctx, from, to)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		keys := make([]string, 0, len(totals))
		for k := range totals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := printJSON(out, struct {
				Key   string `json:"key"`
				Count int    `json:"count"`
			}{k, totals[k]}); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown query %q (want snapshot, ticks or actions)", q)
	}
}

func printJSON(out io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
