package well

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownControl      = errors.New("well: unknown control type")
	ErrNoPhaseUnderControl = errors.New("well: no phase under rate control")
	ErrInvalidControl      = errors.New("well: invalid control")
	ErrInvalidDefinition   = errors.New("well: invalid definition")
	ErrNoConnections       = errors.New("well: well has no connections")
	ErrNumerical           = errors.New("well: numerical problem")
	ErrSingularSystem      = errors.New("well: singular well equation system")
	ErrStateSize           = errors.New("well: state does not match well layout")
)

// Error attaches the well name and the failing operation to an error.
type Error struct {
	Well string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("well %s: %s: %v", e.Well, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (m *Model) fail(op string, err error) error {
	return &Error{Well: m.def.Name, Op: op, Err: err}
}
