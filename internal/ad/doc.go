// Package ad provides forward-mode automatic differentiation for the well
// equations.
//
// An [Eval] is a value together with a fixed-capacity array of partial
// derivatives. Two derivative spaces are in play:
//
//   - the reservoir space, indexed by the primary variables of a grid cell
//     (pressure and saturations), of size NumEq
//   - the combined space, which appends the well-local unknowns after the
//     reservoir slots, of size NumEq+NumWellEq
//
// [Space.Extend] re-bases a reservoir-space value into the combined space so
// that quantities evaluated at perforated cells can be mixed with well
// unknowns in a single expression.
//
// # Example
//
//	s, _ := ad.NewSpace(3, 3)
//	p := ad.Variable(2.0e7, 3, 0) // cell pressure, reservoir space
//	bhp := ad.Variable(1.5e7, s.Size(), s.WellSlot(0))
//	drawdown := s.Extend(p).Sub(bhp)
package ad
