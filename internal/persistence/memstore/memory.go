package memstore

import (
	"errors"
	"log/slog"
	"sort"
)

type Config struct {
	Store Store
	// BudgetBytes caps the summed key and value length per agent; 0 disables it.
	BudgetBytes int
	Logger      *slog.Logger
}

// Memory caches buckets for the agents touched this run and writes dirty ones
// back on Flush.
type Memory struct {
	store  Store
	budget int
	log    *slog.Logger

	buckets  map[string]*Bucket
	rejected int
}

func New(cfg Config) *Memory {
	if cfg.Store == nil {
		cfg.Store = NewMem()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Memory{
		store:   cfg.Store,
		budget:  cfg.BudgetBytes,
		log:     cfg.Logger,
		buckets: map[string]*Bucket{},
	}
}

// Bucket returns the agent's memory, loading it from the store on first use.
func (m *Memory) Bucket(agentID string) *Bucket {
	if b := m.buckets[agentID]; b != nil {
		return b
	}
	values, err := m.store.Load(agentID)
	if err != nil {
		m.log.Warn("memory load failed", "agent", agentID, "err", err)
		values = map[string]string{}
	}
	b := &Bucket{m: m, id: agentID, values: values}
	for k, v := range values {
		b.size += len(k) + len(v)
	}
	m.buckets[agentID] = b
	return b
}

// Flush saves every dirty bucket and returns how many were written.
func (m *Memory) Flush() (int, error) {
	ids := make([]string, 0, len(m.buckets))
	for id, b := range m.buckets {
		if b.dirty {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var errs []error
	n := 0
	for _, id := range ids {
		b := m.buckets[id]
		if err := m.store.Save(id, b.values); err != nil {
			errs = append(errs, err)
			continue
		}
		b.dirty = false
		n++
	}
	return n, errors.Join(errs...)
}

// Agents lists every agent with stored or cached memory.
func (m *Memory) Agents() []string {
	seen := map[string]bool{}
	stored, err := m.store.Agents()
	if err != nil {
		m.log.Warn("memory list failed", "err", err)
	}
	for _, id := range stored {
		seen[id] = true
	}
	for id, b := range m.buckets {
		if len(b.values) > 0 {
			seen[id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) Drop(agentID string) {
	delete(m.buckets, agentID)
	if err := m.store.Delete(agentID); err != nil {
		m.log.Warn("memory drop failed", "agent", agentID, "err", err)
	}
}

// Rejected counts writes refused for exceeding the budget.
func (m *Memory) Rejected() int { return m.rejected }

// Export copies all memory, flushed or not.
func (m *Memory) Export() map[string]map[string]string {
	out := map[string]map[string]string{}
	for _, id := range m.Agents() {
		if vals := m.Bucket(id).values; len(vals) > 0 {
			out[id] = copyMap(vals)
		}
	}
	return out
}

// Import replaces the memory of every agent in all.
func (m *Memory) Import(all map[string]map[string]string) {
	for id, vals := range all {
		b := m.Bucket(id)
		b.values = copyMap(vals)
		b.size = 0
		for k, v := range b.values {
			b.size += len(k) + len(v)
		}
		b.dirty = true
	}
}

func (m *Memory) Close() error { return m.store.Close() }

// Bucket is one agent's key/value memory.
type Bucket struct {
	m      *Memory
	id     string
	values map[string]string
	size   int
	dirty  bool
}

func (b *Bucket) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Set drops the write when it would push the bucket over budget.
func (b *Bucket) Set(key, value string) {
	next := b.size + len(key) + len(value)
	if old, ok := b.values[key]; ok {
		if old == value {
			return
		}
		next -= len(key) + len(old)
	}
	if b.m.budget > 0 && next > b.m.budget {
		b.m.rejected++
		b.m.log.Warn("memory write over budget", "agent", b.id, "key", key, "bytes", next, "budget", b.m.budget)
		return
	}
	b.values[key] = value
	b.size = next
	b.dirty = true
}

func (b *Bucket) Delete(key string) {
	old, ok := b.values[key]
	if !ok {
		return
	}
	delete(b.values, key)
	b.size -= len(key) + len(old)
	b.dirty = true
}

// Size is the summed key and value length.
func (b *Bucket) Size() int { return b.size }
