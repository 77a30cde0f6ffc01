// Package memory maps an agent's host key/value memory onto a typed record.
package memory

import (
	"strconv"

	"colony.ai/internal/sim/world/kernel/model"
)

// Version is written under KeyVersion; records from other versions load as empty.
const Version = 1

const (
	KeyVersion      = "mem_v"
	KeyRole         = "role"
	KeyGathering    = "gathering"
	KeyTargetPos    = "target_pos"
	KeyTargetTTL    = "target_pos_count"
	KeyFleeing      = "fleeing_count"
	KeyFromStorage  = "harvested_from_storage"
	KeyFromTerminal = "harvested_from_terminal"
	KeyFromLink     = "harvested_from_link"
)

var allKeys = []string{
	KeyVersion, KeyRole, KeyGathering, KeyTargetPos, KeyTargetTTL,
	KeyFleeing, KeyFromStorage, KeyFromTerminal, KeyFromLink,
}

// Record is one agent's memory for the duration of its turn.
type Record struct {
	Role      string
	Gathering bool

	TargetPos *model.Pos
	TargetTTL *int
	Fleeing   *int

	FromStorage  bool
	FromTerminal bool
	FromLink     bool

	// encoded form as loaded, for write-back diffing
	loaded map[string]string
}

// ClearTarget drops the memoised target and its TTL.
func (r *Record) ClearTarget() {
	r.TargetPos = nil
	r.TargetTTL = nil
}

func (r *Record) SetTarget(p model.Pos, ttl int) {
	r.TargetPos = &p
	r.TargetTTL = &ttl
}

// ClearSourceFlags forgets which reserve tiers were drained last.
func (r *Record) ClearSourceFlags() {
	r.FromStorage, r.FromTerminal, r.FromLink = false, false, false
}

func (r *Record) HasSourceFlags() bool {
	return r.FromStorage || r.FromTerminal || r.FromLink
}

func (r *Record) encode() map[string]string {
	out := map[string]string{KeyVersion: strconv.Itoa(Version)}
	if r.Role != "" {
		out[KeyRole] = r.Role
	}
	if r.Gathering {
		out[KeyGathering] = "true"
	}
	if r.TargetPos != nil {
		out[KeyTargetPos] = EncodePos(*r.TargetPos)
	}
	if r.TargetTTL != nil {
		out[KeyTargetTTL] = strconv.Itoa(*r.TargetTTL)
	}
	if r.Fleeing != nil {
		out[KeyFleeing] = strconv.Itoa(*r.Fleeing)
	}
	if r.FromStorage {
		out[KeyFromStorage] = "true"
	}
	if r.FromTerminal {
		out[KeyFromTerminal] = "true"
	}
	if r.FromLink {
		out[KeyFromLink] = "true"
	}
	return out
}

func intPtr(v int) *int { return &v }

func parseInt(s string, ok bool) *int {
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return intPtr(v)
}

func parseBool(s string, ok bool) bool {
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(s)
	return err == nil && v
}
