package protocol

// Code is the synchronous result of a host command.
type Code string

const (
	OK Code = "OK"

	// Transient: recovered by moving or retrying next tick.
	ErrNotInRange Code = "E_NOT_IN_RANGE"
	ErrTired      Code = "E_TIRED"

	// Structural absence.
	ErrNoPath        Code = "E_NO_PATH"
	ErrInvalidTarget Code = "E_INVALID_TARGET"

	ErrNameConflict Code = "E_NAME_CONFLICT"

	// Generic failures.
	ErrNotEnough Code = "E_NOT_ENOUGH"
	ErrFull      Code = "E_FULL"
	ErrFail      Code = "E_FAIL"
)

var knownCodes = map[Code]struct{}{
	OK:               {},
	ErrNotInRange:    {},
	ErrTired:         {},
	ErrNoPath:        {},
	ErrInvalidTarget: {},
	ErrNameConflict:  {},
	ErrNotEnough:     {},
	ErrFull:          {},
	ErrFail:          {},
}

func IsKnownCode(code Code) bool {
	_, ok := knownCodes[code]
	return ok
}

func (c Code) Ok() bool { return c == OK }

// Transient reports failures that resolve by approaching the target or waiting.
func (c Code) Transient() bool { return c == ErrNotInRange || c == ErrTired }
