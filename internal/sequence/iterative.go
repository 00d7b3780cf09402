package sequence

import (
	"context"
	"math/big"
)

// ctxCheckMask makes linear loops poll the context once every 4096 steps.
const ctxCheckMask = 1<<12 - 1

type iterative struct{}

func (iterative) term(ctx context.Context, kind Kind, n uint64) (Value, error) {
	v, err := iterate(ctx, kind, n)
	if err != nil {
		return Value{}, err
	}
	return exactValue(n, v), nil
}

// iterate walks the recurrence of kind forward from its seeds. The last k
// terms live in a ring of k big.Ints: slot i%k holds term i-k until it is
// overwritten by term i, which is the sum of the whole ring.
func iterate(ctx context.Context, kind Kind, n uint64) (*big.Int, error) {
	seeds := kind.seeds()
	k := uint64(len(seeds))
	if n < k {
		return big.NewInt(seeds[n]), nil
	}

	ring := make([]*big.Int, k)
	for i, s := range seeds {
		ring[i] = big.NewInt(s)
	}
	for i := k; i <= n; i++ {
		if i&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		slot := i % k
		for j := uint64(0); j < k; j++ {
			if j != slot {
				ring[slot].Add(ring[slot], ring[j])
			}
		}
	}
	return ring[n%k], nil
}
