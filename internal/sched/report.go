package sched

import (
	"colony.ai/internal/sim/world/kernel/model"
)

// TickReport summarises one scheduling pass for logs, the index and observers.
type TickReport struct {
	Tick       uint64           `json:"tick"`
	Population model.Population `json:"population"`

	// Outcomes counts agent turns by how they ended.
	Outcomes map[string]int `json:"outcomes"`
	// Actions counts issued commands as "KIND/CODE".
	Actions map[string]int `json:"actions"`

	UnknownRoles int `json:"unknown_roles,omitempty"`
	Faults       int `json:"faults,omitempty"`

	MatrixBuilds int   `json:"matrix_builds"`
	MemoryWrites int   `json:"memory_writes"`
	MemoryGC     int   `json:"memory_gc,omitempty"`
	DurationUS   int64 `json:"duration_us"`
}

// ActionTotal sums every issued command.
func (r TickReport) ActionTotal() int {
	n := 0
	for _, v := range r.Actions {
		n += v
	}
	return n
}
