package ad

import (
	"fmt"
	"math"
)

// MaxSize is the derivative capacity of an Eval. Four reservoir equations
// (three phases plus solvent) and four well unknowns fit.
const MaxSize = 8

// Eval is a differentiable scalar. Derivatives at indices >= Size are zero.
// The zero value is the constant 0.
type Eval struct {
	v float64
	n int
	d [MaxSize]float64
}

// Const returns a constant with no derivative slots.
func Const(v float64) Eval {
	return Eval{v: v}
}

// Constant returns a constant with n zero derivative slots.
func Constant(v float64, n int) Eval {
	return Eval{v: v, n: clampSize(n)}
}

// Variable returns an independent variable of an n-slot space seeded with
// derivative 1 at idx.
func Variable(v float64, n, idx int) Eval {
	e := Constant(v, n)
	e.SetDeriv(idx, 1)
	return e
}

func clampSize(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}

func (e Eval) Value() float64 { return e.v }
func (e Eval) Size() int      { return e.n }

// Deriv returns the partial derivative at slot i.
func (e Eval) Deriv(i int) float64 {
	if i < 0 || i >= e.n {
		return 0
	}
	return e.d[i]
}

// Derivs returns a copy of the active derivative slots.
func (e Eval) Derivs() []float64 {
	out := make([]float64, e.n)
	copy(out, e.d[:e.n])
	return out
}

func (e *Eval) SetValue(v float64) { e.v = v }

// SetDeriv sets slot i, growing Size to cover it.
func (e *Eval) SetDeriv(i int, x float64) {
	if i < 0 || i >= MaxSize {
		panic(fmt.Sprintf("ad: derivative index %d outside [0,%d)", i, MaxSize))
	}
	if i >= e.n {
		e.n = i + 1
	}
	e.d[i] = x
}

// IsConstant reports whether every derivative is zero.
func (e Eval) IsConstant() bool {
	for i := 0; i < e.n; i++ {
		if e.d[i] != 0 {
			return false
		}
	}
	return true
}

func (e Eval) String() string {
	return fmt.Sprintf("%g%v", e.v, e.d[:e.n])
}

func maxSize(a, b Eval) int {
	if a.n > b.n {
		return a.n
	}
	return b.n
}

func (e Eval) Add(b Eval) Eval {
	out := Eval{v: e.v + b.v, n: maxSize(e, b)}
	for i := 0; i < out.n; i++ {
		out.d[i] = e.d[i] + b.d[i]
	}
	return out
}

func (e Eval) Sub(b Eval) Eval {
	out := Eval{v: e.v - b.v, n: maxSize(e, b)}
	for i := 0; i < out.n; i++ {
		out.d[i] = e.d[i] - b.d[i]
	}
	return out
}

func (e Eval) Mul(b Eval) Eval {
	out := Eval{v: e.v * b.v, n: maxSize(e, b)}
	for i := 0; i < out.n; i++ {
		out.d[i] = e.d[i]*b.v + e.v*b.d[i]
	}
	return out
}

// Div follows the quotient rule. Division by an exact zero yields IEEE
// infinities or NaN; callers guard degenerate denominators.
func (e Eval) Div(b Eval) Eval {
	q := e.v / b.v
	out := Eval{v: q, n: maxSize(e, b)}
	for i := 0; i < out.n; i++ {
		out.d[i] = (e.d[i] - q*b.d[i]) / b.v
	}
	return out
}

func (e Eval) Scale(k float64) Eval {
	out := Eval{v: e.v * k, n: e.n}
	for i := 0; i < e.n; i++ {
		out.d[i] = e.d[i] * k
	}
	return out
}

func (e Eval) AddConst(k float64) Eval {
	e.v += k
	return e
}

func (e Eval) Neg() Eval {
	return e.Scale(-1)
}

// Pow raises e to a constant power. At a zero base the derivative is taken
// as zero, which is the limit for x > 1.
func (e Eval) Pow(x float64) Eval {
	out := Eval{v: math.Pow(e.v, x), n: e.n}
	if e.v == 0 {
		return out
	}
	df := x * math.Pow(e.v, x-1)
	for i := 0; i < e.n; i++ {
		out.d[i] = e.d[i] * df
	}
	return out
}

// Sum adds a list of values.
func Sum(vals ...Eval) Eval {
	var out Eval
	for _, v := range vals {
		out = out.Add(v)
	}
	return out
}

// Abs flips the sign of every derivative when the value is negative.
func (e Eval) Abs() Eval {
	if e.v < 0 {
		return e.Neg()
	}
	return e
}

func (e Eval) Sqrt() Eval {
	r := math.Sqrt(e.v)
	out := Eval{v: r, n: e.n}
	if r == 0 {
		return out
	}
	for i := 0; i < e.n; i++ {
		out.d[i] = e.d[i] / (2 * r)
	}
	return out
}

// Max returns the operand with the larger value, derivatives included.
func Max(a, b Eval) Eval {
	if b.v > a.v {
		return b
	}
	return a
}

func Min(a, b Eval) Eval {
	if b.v < a.v {
		return b
	}
	return a
}
