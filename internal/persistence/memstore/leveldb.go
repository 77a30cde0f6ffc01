package memstore

import (
	"bytes"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB stores each key as "m/<agent>\x00<key>".
type LevelDB struct {
	db *leveldb.DB
}

const levelPrefix = "m/"

func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// NewLevelDB wraps an already open database.
func NewLevelDB(db *leveldb.DB) *LevelDB { return &LevelDB{db: db} }

func agentPrefix(agentID string) []byte {
	return []byte(levelPrefix + agentID + "\x00")
}

func (l *LevelDB) Load(agentID string) (map[string]string, error) {
	prefix := agentPrefix(agentID)
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	out := map[string]string{}
	for it.Next() {
		out[string(it.Key()[len(prefix):])] = string(it.Value())
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("load %s: %w", agentID, err)
	}
	return out, nil
}

func (l *LevelDB) Save(agentID string, values map[string]string) error {
	prefix := agentPrefix(agentID)
	batch := new(leveldb.Batch)

	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return fmt.Errorf("save %s: %w", agentID, err)
	}

	for k, v := range values {
		batch.Put(append(append([]byte(nil), prefix...), k...), []byte(v))
	}
	return l.db.Write(batch, nil)
}

func (l *LevelDB) Delete(agentID string) error {
	return l.Save(agentID, nil)
}

func (l *LevelDB) Agents() ([]string, error) {
	it := l.db.NewIterator(util.BytesPrefix([]byte(levelPrefix)), nil)
	defer it.Release()

	var out []string
	for it.Next() {
		rest := it.Key()[len(levelPrefix):]
		i := bytes.IndexByte(rest, 0)
		if i < 0 {
			continue
		}
		id := string(rest[:i])
		if n := len(out); n == 0 || out[n-1] != id {
			out = append(out, id)
		}
	}
	return out, it.Error()
}

func (l *LevelDB) Close() error { return l.db.Close() }
