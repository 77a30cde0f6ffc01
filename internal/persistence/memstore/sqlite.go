package memstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sqlx.DB
}

type memoryRow struct {
	AgentID string `db:"agent_id"`
	Key     string `db:"key"`
	Value   string `db:"value"`
}

func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS agent_memory (
  agent_id TEXT NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  PRIMARY KEY (agent_id, key)
);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(agentID string) (map[string]string, error) {
	var rows []memoryRow
	if err := s.db.Select(&rows, `SELECT agent_id, key, value FROM agent_memory WHERE agent_id = ?`, agentID); err != nil {
		return nil, fmt.Errorf("load %s: %w", agentID, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *SQLite) Save(agentID string, values map[string]string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM agent_memory WHERE agent_id = ?`, agentID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("save %s: %w", agentID, err)
	}
	for k, v := range values {
		row := memoryRow{AgentID: agentID, Key: k, Value: v}
		if _, err := tx.NamedExec(`INSERT INTO agent_memory (agent_id, key, value) VALUES (:agent_id, :key, :value)`, row); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save %s: %w", agentID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Delete(agentID string) error {
	_, err := s.db.Exec(`DELETE FROM agent_memory WHERE agent_id = ?`, agentID)
	return err
}

func (s *SQLite) Agents() ([]string, error) {
	var ids []string
	if err := s.db.Select(&ids, `SELECT DISTINCT agent_id FROM agent_memory ORDER BY agent_id`); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
