// Package well implements the per-well equation system of a reservoir
// Newton solver.
//
// A [Model] owns the primary variables of one well and derives from them:
//
//   - [Model.GetBhp] and [Model.GetQs]: bottom-hole pressure and surface
//     rates under the control in force
//   - [Model.ComputePerfRate]: connection inflow from the reservoir
//   - [Model.AssembleWellEq]: the well residual, its Jacobian and the
//     coupling blocks to the reservoir cells
//   - [Model.UpdateWellState]: the damped Newton update written back to a
//     [SingleWellState]
//
// # Sign convention
//
// Rates are positive for injection and negative for production. Units are
// SI throughout.
//
// # Thread Safety
//
// A Model is not safe for concurrent use. Distinct models share nothing
// and may be assembled in parallel.
package well
