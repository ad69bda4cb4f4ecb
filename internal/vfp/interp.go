package vfp

// interpData locates a value on an axis. factor may fall outside [0,1],
// which extrapolates linearly from the end intervals.
type interpData struct {
	a, b     int
	factor   float64
	invWidth float64
}

func findInterpData(v float64, axis []float64) interpData {
	n := len(axis)
	if n == 1 {
		return interpData{}
	}
	i := 0
	for i < n-2 && v >= axis[i+1] {
		i++
	}
	w := axis[i+1] - axis[i]
	return interpData{
		a:        i,
		b:        i + 1,
		factor:   (v - axis[i]) / w,
		invWidth: 1 / w,
	}
}

// interpolate evaluates a multilinear interpolant over a dense row-major
// grid whose last dimension varies fastest. It returns the value and the
// partial derivative along every dimension.
func interpolate(data []float64, dims []int, at []interpData) (float64, []float64) {
	nd := len(dims)
	strides := make([]int, nd)
	s := 1
	for k := nd - 1; k >= 0; k-- {
		strides[k] = s
		s *= dims[k]
	}

	grad := make([]float64, nd)
	value := 0.0
	for corner := 0; corner < 1<<nd; corner++ {
		off := 0
		w := 1.0
		for k := 0; k < nd; k++ {
			if corner&(1<<k) != 0 {
				off += at[k].b * strides[k]
				w *= at[k].factor
			} else {
				off += at[k].a * strides[k]
				w *= 1 - at[k].factor
			}
		}
		y := data[off]
		value += w * y

		for k := 0; k < nd; k++ {
			if at[k].invWidth == 0 {
				continue
			}
			dw := at[k].invWidth
			if corner&(1<<k) == 0 {
				dw = -dw
			}
			for j := 0; j < nd; j++ {
				if j == k {
					continue
				}
				if corner&(1<<j) != 0 {
					dw *= at[j].factor
				} else {
					dw *= 1 - at[j].factor
				}
			}
			grad[k] += dw * y
		}
	}
	return value, grad
}
