package ad

import "testing"

func BenchmarkMulDiv(b *testing.B) {
	x := Variable(3, MaxSize, 0)
	y := Variable(4, MaxSize, 5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = x.Mul(y).Div(y)
	}
}

func BenchmarkExtend(b *testing.B) {
	s, _ := NewSpace(4, 4)
	in := Variable(2e7, 4, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Extend(in)
	}
}
