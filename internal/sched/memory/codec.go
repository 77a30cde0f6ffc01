package memory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"colony.ai/internal/sched/host"
	"colony.ai/internal/sim/world/kernel/model"
)

//go:embed schemas/target_pos.schema.json
var targetPosSchema string

// Codec loads and stores Records. Decoded positions are memoised by their raw
// string so validation runs once per distinct value.
type Codec struct {
	schema *jsonschema.Schema
	cache  *lru.Cache
}

type decoded struct {
	pos model.Pos
	ok  bool
}

func NewCodec(cacheSize int) (*Codec, error) {
	s, err := jsonschema.CompileString("target_pos.schema.json", targetPosSchema)
	if err != nil {
		return nil, fmt.Errorf("compile target_pos schema: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Codec{schema: s, cache: c}, nil
}

func EncodePos(p model.Pos) string {
	b, _ := json.Marshal(p)
	return string(b)
}

// DecodePos parses a stored position; anything malformed is absent.
func (c *Codec) DecodePos(raw string) (model.Pos, bool) {
	if v, ok := c.cache.Get(raw); ok {
		d := v.(decoded)
		return d.pos, d.ok
	}
	d := c.decode(raw)
	c.cache.Add(raw, d)
	return d.pos, d.ok
}

func (c *Codec) decode(raw string) decoded {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return decoded{}
	}
	if err := c.schema.Validate(doc); err != nil {
		return decoded{}
	}
	var p model.Pos
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return decoded{}
	}
	return decoded{pos: p, ok: true}
}

// Load reads every known key. A version mismatch yields an empty record that
// will overwrite the stale keys on Save.
func (c *Codec) Load(kv host.KV) *Record {
	r := &Record{loaded: map[string]string{}}
	for _, k := range allKeys {
		if v, ok := kv.Get(k); ok {
			r.loaded[k] = v
		}
	}
	get := func(k string) (string, bool) {
		v, ok := r.loaded[k]
		return v, ok
	}
	if v, ok := get(KeyVersion); ok && v != strconv.Itoa(Version) {
		return r
	}

	r.Role, _ = get(KeyRole)
	r.Gathering = parseBool(get(KeyGathering))
	if raw, ok := get(KeyTargetPos); ok {
		if p, ok := c.DecodePos(raw); ok {
			r.TargetPos = &p
		}
	}
	r.TargetTTL = parseInt(get(KeyTargetTTL))
	r.Fleeing = parseInt(get(KeyFleeing))
	r.FromStorage = parseBool(get(KeyFromStorage))
	r.FromTerminal = parseBool(get(KeyFromTerminal))
	r.FromLink = parseBool(get(KeyFromLink))
	return r
}

// Save writes only keys whose encoded value changed and deletes keys that
// became absent. It returns the number of keys touched.
func (c *Codec) Save(kv host.KV, r *Record) int {
	next := r.encode()
	n := 0
	for _, k := range allKeys {
		nv, has := next[k]
		ov, had := r.loaded[k]
		switch {
		case has && (!had || nv != ov):
			kv.Set(k, nv)
			n++
		case !has && had:
			kv.Delete(k)
			n++
		}
	}
	r.loaded = next
	return n
}
