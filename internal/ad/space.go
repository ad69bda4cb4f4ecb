package ad

import "fmt"

// Space describes the combined derivative space of a well: NumEq reservoir
// slots followed by NumWellEq well-local slots.
//
// PvIndex maps reservoir equation index i to the slot holding the matching
// primary variable in the reservoir simulator's own ordering. A nil PvIndex
// is the identity.
type Space struct {
	NumEq     int
	NumWellEq int
	PvIndex   []int
}

func NewSpace(numEq, numWellEq int) (Space, error) {
	if numEq < 0 || numWellEq < 0 || numEq+numWellEq > MaxSize {
		return Space{}, fmt.Errorf("%w: %d reservoir + %d well slots", ErrSpaceTooLarge, numEq, numWellEq)
	}
	return Space{NumEq: numEq, NumWellEq: numWellEq}, nil
}

// WithPvIndex returns a copy of s using the given index map.
func (s Space) WithPvIndex(idx []int) (Space, error) {
	if len(idx) != s.NumEq {
		return s, fmt.Errorf("%w: got %d entries, want %d", ErrIndexMap, len(idx), s.NumEq)
	}
	for _, j := range idx {
		if j < 0 || j >= s.NumEq {
			return s, fmt.Errorf("%w: entry %d", ErrIndexMap, j)
		}
	}
	s.PvIndex = append([]int(nil), idx...)
	return s, nil
}

func (s Space) Size() int { return s.NumEq + s.NumWellEq }

// WellSlot is the derivative slot of well unknown i.
func (s Space) WellSlot(i int) int { return s.NumEq + i }

func (s Space) pv(i int) int {
	if s.PvIndex == nil {
		return i
	}
	return s.PvIndex[i]
}

// Extend maps a reservoir-space value into the combined space. The value is
// copied exactly, reservoir derivatives are carried through the index map,
// and all well slots are zero.
func (s Space) Extend(in Eval) Eval {
	out := Eval{v: in.v, n: s.Size()}
	for i := 0; i < s.NumEq; i++ {
		out.d[i] = in.Deriv(s.pv(i))
	}
	return out
}

// Restrict projects a combined-space value back onto the reservoir slots,
// inverting the index map. Well derivatives are dropped.
func (s Space) Restrict(in Eval) Eval {
	out := Eval{v: in.v, n: s.NumEq}
	for i := 0; i < s.NumEq; i++ {
		out.d[s.pv(i)] = in.Deriv(i)
	}
	return out
}

// WellDeriv returns the derivative of e with respect to well unknown i.
func (s Space) WellDeriv(e Eval, i int) float64 {
	return e.Deriv(s.WellSlot(i))
}
