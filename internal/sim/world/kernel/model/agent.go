package model

type BodyPart string

const (
	PartWork         BodyPart = "work"
	PartCarry        BodyPart = "carry"
	PartMove         BodyPart = "move"
	PartAttack       BodyPart = "attack"
	PartRangedAttack BodyPart = "ranged_attack"
	PartHeal         BodyPart = "heal"
	PartTough        BodyPart = "tough"
	PartClaim        BodyPart = "claim"
)

// CarryPerPart is the store capacity each carry part contributes.
const CarryPerPart = 50

type Agent struct {
	ID          string
	Pos         Pos
	Owner       Owner
	Body        []BodyPart
	Store       *Store
	Hits        int
	HitsMax     int
	Fatigue     int
	TicksToLive int
	Spawning    bool
}

func (a *Agent) Mine() bool { return a.Owner == OwnerMine }

func (a *Agent) Count(p BodyPart) int {
	n := 0
	for _, b := range a.Body {
		if b == p {
			n++
		}
	}
	return n
}

type AttackerKind uint8

const (
	AttackerNone AttackerKind = iota
	AttackerShort
	AttackerRanged
)

func (k AttackerKind) String() string {
	switch k {
	case AttackerShort:
		return "short"
	case AttackerRanged:
		return "ranged"
	default:
		return "none"
	}
}

// Range is how close the attacker needs to be to hit.
func (k AttackerKind) Range() int {
	switch k {
	case AttackerShort:
		return 1
	case AttackerRanged:
		return 3
	default:
		return 0
	}
}

// AttackerKind is derived from the first combat part in the body.
func (a *Agent) AttackerKind() AttackerKind {
	for _, p := range a.Body {
		switch p {
		case PartAttack:
			return AttackerShort
		case PartRangedAttack:
			return AttackerRanged
		}
	}
	return AttackerNone
}

// BodyCost prices a body in energy for the spawner.
func BodyCost(body []BodyPart) int {
	n := 0
	for _, p := range body {
		switch p {
		case PartWork:
			n += 100
		case PartCarry, PartMove:
			n += 50
		case PartAttack:
			n += 80
		case PartRangedAttack:
			n += 150
		case PartHeal:
			n += 250
		case PartTough:
			n += 10
		case PartClaim:
			n += 600
		}
	}
	return n
}
