package model

// Population is the per-tick census published for the spawning heuristic.
type Population struct {
	Tick  uint64         `json:"tick"`
	Total int            `json:"total_num"`
	Roles map[string]int `json:"roles"`

	// Agents whose stored role is not in the known set.
	Unknown int `json:"unknown,omitempty"`

	AttackShort  int `json:"opt_num_attackable_short"`
	AttackRanged int `json:"opt_num_attackable_long"`

	// Carry parts across non-attacker agents.
	WorkerCarry int `json:"cap_worker_carry"`
}

func (p Population) Role(name string) int { return p.Roles[name] }
