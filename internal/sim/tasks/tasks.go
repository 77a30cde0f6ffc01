package tasks

type Kind string

const (
	KindMove         Kind = "MOVE"
	KindHarvest      Kind = "HARVEST"
	KindPickup       Kind = "PICKUP"
	KindWithdraw     Kind = "WITHDRAW"
	KindTransfer     Kind = "TRANSFER"
	KindBuild        Kind = "BUILD"
	KindRepair       Kind = "REPAIR"
	KindUpgrade      Kind = "UPGRADE"
	KindAttack       Kind = "ATTACK"
	KindRangedAttack Kind = "RANGED_ATTACK"
	KindHeal         Kind = "HEAL"
)

// Record is one issued command and its synchronous result code, kept for the tick log.
type Record struct {
	AgentID  string `json:"agent_id"`
	Kind     Kind   `json:"kind"`
	TargetID string `json:"target_id,omitempty"`
	Code     string `json:"code"`
}

// Tally counts records by kind and code, e.g. "MOVE/E_NO_PATH".
func Tally(recs []Record) map[string]int {
	out := make(map[string]int, 16)
	for _, r := range recs {
		out[string(r.Kind)+"/"+r.Code]++
	}
	return out
}
