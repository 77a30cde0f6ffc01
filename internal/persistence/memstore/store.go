// Package memstore persists per-agent key/value memory between ticks and
// across restarts.
package memstore

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Store is a durable backend. Save replaces an agent's whole key set.
type Store interface {
	Load(agentID string) (map[string]string, error)
	Save(agentID string, values map[string]string) error
	Delete(agentID string) error
	Agents() ([]string, error)
	Close() error
}

const (
	BackendMem     = "mem"
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
)

// Open picks a backend by name. File backends live under dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendMem:
		return NewMem(), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "memory.sqlite"))
	case BackendLevelDB:
		return OpenLevelDB(filepath.Join(dir, "memory.ldb"))
	default:
		return nil, fmt.Errorf("memstore: unknown backend %q", backend)
	}
}

// Mem keeps everything in process. It is the default for tests and the sandbox.
type Mem struct {
	agents map[string]map[string]string
}

func NewMem() *Mem { return &Mem{agents: map[string]map[string]string{}} }

func (m *Mem) Load(agentID string) (map[string]string, error) {
	return copyMap(m.agents[agentID]), nil
}

func (m *Mem) Save(agentID string, values map[string]string) error {
	if len(values) == 0 {
		delete(m.agents, agentID)
		return nil
	}
	m.agents[agentID] = copyMap(values)
	return nil
}

func (m *Mem) Delete(agentID string) error {
	delete(m.agents, agentID)
	return nil
}

func (m *Mem) Agents() ([]string, error) {
	out := make([]string, 0, len(m.agents))
	for id := range m.agents {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Mem) Close() error { return nil }

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
