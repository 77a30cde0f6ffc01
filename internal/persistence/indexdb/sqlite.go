package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"colony.ai/internal/persistence/snapshot"
	"colony.ai/internal/sim/tuning"
	"colony.ai/internal/sim/world"
)

// SQLiteIndex is a read-model of the tick log and snapshots. Writes are
// queued and applied by one goroutine; the JSONL logs remain the source of
// truth, so a full queue drops rows.
type SQLiteIndex struct {
	db *sql.DB

	ch     chan req
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	dropTick     atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	snapshot SnapshotRow
}

type SnapshotRow struct {
	Tick         uint64 `db:"tick"`
	Path         string `db:"path"`
	RunID        string `db:"run_id"`
	Seed         int64  `db:"seed"`
	Zones        int    `db:"zones"`
	Agents       int    `db:"agents"`
	MemoryAgents int    `db:"memory_agents"`
}

type TickRow struct {
	Tick         uint64
	Digest       string
	Population   int
	Actions      int
	Faults       int
	UnknownRoles int
	MatrixBuilds int
	MemoryWrites int
	DurationUS   int64
}

// Stats reports queue pressure for /metrics.
type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropTickTotal     uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tuning (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			population INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			faults INTEGER NOT NULL,
			unknown_roles INTEGER NOT NULL,
			matrix_builds INTEGER NOT NULL,
			memory_writes INTEGER NOT NULL,
			duration_us INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			key TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (tick, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_key_tick ON actions(key, tick);`,
		`CREATE TABLE IF NOT EXISTS lifecycle (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			event TEXT NOT NULL,
			PRIMARY KEY (tick, agent_id, event)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			run_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			zones INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			memory_agents INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := SnapshotRow{
		Tick:         snap.Header.Tick,
		Path:         path,
		RunID:        snap.Header.RunID,
		Seed:         snap.Seed,
		Zones:        len(snap.Zones),
		Agents:       len(snap.Agents),
		MemoryAgents: len(snap.Memory),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertTuning stores the effective tuning with a content digest. It writes
// synchronously and is meant for startup.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO tuning(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(b), now); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, "tuning_updated_at", now); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// RecentTicks returns up to limit tick rows, newest first.
func (s *SQLiteIndex) RecentTicks(ctx context.Context, limit int) ([]TickRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick,digest,population,actions,faults,unknown_roles,matrix_builds,memory_writes,duration_us FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TickRow
	for rows.Next() {
		var r TickRow
		var tick int64
		if err := rows.Scan(&tick, &r.Digest, &r.Population, &r.Actions, &r.Faults, &r.UnknownRoles, &r.MatrixBuilds, &r.MemoryWrites, &r.DurationUS); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActionTotals sums action counts over [from, to] by "KIND/CODE".
func (s *SQLiteIndex) ActionTotals(ctx context.Context, from, to uint64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, SUM(count) FROM actions WHERE tick BETWEEN ? AND ? GROUP BY key`, int64(from), int64(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (SnapshotRow, bool, error) {
	var r SnapshotRow
	var tick int64
	err := s.db.QueryRowContext(ctx, `SELECT tick,path,run_id,seed,zones,agents,memory_agents FROM snapshots ORDER BY tick DESC LIMIT 1`).
		Scan(&tick, &r.Path, &r.RunID, &r.Seed, &r.Zones, &r.Agents, &r.MemoryAgents)
	if err == sql.ErrNoRows {
		return r, false, nil
	}
	if err != nil {
		return r, false, err
	}
	r.Tick = uint64(tick)
	return r, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,population,actions,faults,unknown_roles,matrix_builds,memory_writes,duration_us,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertAction, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(tick,key,count) VALUES(?,?,?)`)
	insertLifecycle, _ := s.db.Prepare(`INSERT OR REPLACE INTO lifecycle(tick,agent_id,event) VALUES(?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,run_id,seed,zones,agents,memory_agents) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertAction, insertLifecycle, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil {
			return true
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			rep := e.Report
			b, _ := json.Marshal(e)
			tick := int64(e.Tick)
			if !exec(insertTick, tick, e.Digest, rep.Population.Total, rep.ActionTotal(), rep.Faults,
				rep.UnknownRoles, rep.MatrixBuilds, rep.MemoryWrites, rep.DurationUS, string(b)) {
				continue
			}
			keys := make([]string, 0, len(rep.Actions))
			for k := range rep.Actions {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			ok := true
			for _, k := range keys {
				if ok = exec(insertAction, tick, k, rep.Actions[k]); !ok {
					break
				}
			}
			for _, id := range e.Spawns {
				if !ok {
					break
				}
				ok = exec(insertLifecycle, tick, id, "spawn")
			}
			for _, id := range e.Deaths {
				if !ok {
					break
				}
				ok = exec(insertLifecycle, tick, id, "death")
			}

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Tick), sn.Path, sn.RunID, sn.Seed, sn.Zones, sn.Agents, sn.MemoryAgents)
		}
		flushIfNeeded()
	}

	commit()
}
