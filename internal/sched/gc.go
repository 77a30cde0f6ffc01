package sched

import (
	"colony.ai/internal/sched/host"
	"colony.ai/internal/sim/world/kernel/model"
)

// collectMemory drops memory of agents that no longer exist.
func collectMemory(gc host.MemoryGC, alive []*model.Agent) int {
	live := make(map[string]struct{}, len(alive))
	for _, a := range alive {
		live[a.ID] = struct{}{}
	}
	n := 0
	for _, id := range gc.MemoryAgents() {
		if _, ok := live[id]; ok {
			continue
		}
		gc.DropMemory(id)
		n++
	}
	return n
}
