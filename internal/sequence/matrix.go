package sequence

import (
	"context"
	"math/big"
)

// matrix2 is a 2×2 matrix [[a, b], [c, d]] of arbitrary-precision integers.
type matrix2 struct {
	a, b, c, d *big.Int
}

func identity2() matrix2 {
	return matrix2{big.NewInt(1), big.NewInt(0), big.NewInt(0), big.NewInt(1)}
}

// fibonacciQ is Q = [[1, 1], [1, 0]]; Qⁿ = [[F(n+1), F(n)], [F(n), F(n-1)]].
func fibonacciQ() matrix2 {
	return matrix2{big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(0)}
}

func (m matrix2) mul(o matrix2) matrix2 {
	t := new(big.Int)
	a := new(big.Int).Mul(m.a, o.a)
	a.Add(a, t.Mul(m.b, o.c))
	b := new(big.Int).Mul(m.a, o.b)
	b.Add(b, t.Mul(m.b, o.d))
	c := new(big.Int).Mul(m.c, o.a)
	c.Add(c, t.Mul(m.d, o.c))
	d := new(big.Int).Mul(m.c, o.b)
	d.Add(d, t.Mul(m.d, o.d))
	return matrix2{a, b, c, d}
}

// squareSymmetric squares a matrix with b == c using three products:
// [[a²+b², b(a+d)], [b(a+d), b²+d²]]. Every power of Q is symmetric.
func (m matrix2) squareSymmetric() matrix2 {
	bb := new(big.Int).Mul(m.b, m.b)
	a := new(big.Int).Mul(m.a, m.a)
	a.Add(a, bb)
	d := new(big.Int).Mul(m.d, m.d)
	d.Add(d, bb)
	b := new(big.Int).Add(m.a, m.d)
	b.Mul(b, m.b)
	return matrix2{a, b, new(big.Int).Set(b), d}
}

// powerQ computes Qⁿ by LSB-first binary exponentiation, polling ctx once
// per bit.
func powerQ(ctx context.Context, n uint64) (matrix2, error) {
	result := identity2()
	base := fibonacciQ()
	for n > 0 {
		if err := ctx.Err(); err != nil {
			return matrix2{}, err
		}
		if n&1 == 1 {
			result = result.mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.squareSymmetric()
		}
	}
	return result, nil
}

// matrix3 is a 3×3 matrix of arbitrary-precision integers, row-major.
type matrix3 [3][3]*big.Int

func newMatrix3(rows [3][3]int64) matrix3 {
	var m matrix3
	for i := range rows {
		for j := range rows[i] {
			m[i][j] = big.NewInt(rows[i][j])
		}
	}
	return m
}

func (m matrix3) mul(o matrix3) matrix3 {
	var r matrix3
	t := new(big.Int)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := new(big.Int)
			for k := 0; k < 3; k++ {
				sum.Add(sum, t.Mul(m[i][k], o[k][j]))
			}
			r[i][j] = sum
		}
	}
	return r
}

// tribonacciM is the companion matrix M of the Tribonacci recurrence.
// Mⁿ applied to (T(2), T(1), T(0)) = (1, 0, 0) yields
// (T(n+2), T(n+1), T(n)), so T(n) = (Mⁿ)[2][0].
func tribonacciM() matrix3 {
	return newMatrix3([3][3]int64{{1, 1, 1}, {1, 0, 0}, {0, 1, 0}})
}

func powerM(ctx context.Context, n uint64) (matrix3, error) {
	result := newMatrix3([3][3]int64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	base := tribonacciM()
	for n > 0 {
		if err := ctx.Err(); err != nil {
			return matrix3{}, err
		}
		if n&1 == 1 {
			result = result.mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.mul(base)
		}
	}
	return result, nil
}

// matrixExponentiation reads F(n) from the top-right entry of Qⁿ, L(n) from
// its trace (F(n+1) + F(n-1)) and T(n) from (Mⁿ)[2][0].
type matrixExponentiation struct{}

func (matrixExponentiation) term(ctx context.Context, kind Kind, n uint64) (Value, error) {
	if kind == Tribonacci {
		m, err := powerM(ctx, n)
		if err != nil {
			return Value{}, err
		}
		return exactValue(n, m[2][0]), nil
	}

	q, err := powerQ(ctx, n)
	if err != nil {
		return Value{}, err
	}
	if kind == Lucas {
		return exactValue(n, new(big.Int).Add(q.a, q.d)), nil
	}
	return exactValue(n, q.b), nil
}
