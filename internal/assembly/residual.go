package assembly

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/wellsim/internal/well"
)

// ReservoirResidual accumulates the well contributions to the reservoir
// equations. Wells perforating the same cell add to the same rows, so every
// write goes through the mutex.
type ReservoirResidual struct {
	mu    sync.Mutex
	numEq int
	rows  [][]float64
	diag  []*mat.Dense
}

func NewReservoirResidual(numCells, numEq int) *ReservoirResidual {
	r := &ReservoirResidual{
		numEq: numEq,
		rows:  make([][]float64, numCells),
		diag:  make([]*mat.Dense, numCells),
	}
	for i := range r.rows {
		r.rows[i] = make([]float64, numEq)
		r.diag[i] = mat.NewDense(numEq, numEq, nil)
	}
	return r
}

func (r *ReservoirResidual) NumCells() int { return len(r.rows) }

// Add accumulates the contributions of one well.
func (r *ReservoirResidual) Add(cc []well.CellContribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cc {
		if c.Cell < 0 || c.Cell >= len(r.rows) {
			return fmt.Errorf("%w: %d", ErrCellOutOfRange, c.Cell)
		}
		for i, v := range c.Residual {
			r.rows[c.Cell][i] += v
		}
		r.diag[c.Cell].Add(r.diag[c.Cell], c.Jacobian)
	}
	return nil
}

// Rows returns a copy of the accumulated residual, indexed by cell.
func (r *ReservoirResidual) Rows() [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]float64, len(r.rows))
	for i, row := range r.rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Jacobian returns a copy of the accumulated cell-cell block of cell.
func (r *ReservoirResidual) Jacobian(cell int) *mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mat.DenseCopyOf(r.diag[cell])
}

func (r *ReservoirResidual) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		clear(r.rows[i])
		r.diag[i].Zero()
	}
}
