package sequence

import (
	"context"
	"math/big"
	"sync"
)

// SequenceGenerator produces consecutive terms of a sequence. Unlike
// Engine.Term, which computes a single term, a generator streams terms and
// keeps only the last few in memory.
//
// Example usage:
//
//	gen := sequence.NewIterativeGenerator(sequence.Lucas)
//	for i := 0; i < 10; i++ {
//	    val, err := gen.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    // Use val
//	}
type SequenceGenerator interface {
	// Next advances the generator and returns the next term. The first call
	// returns term 0. Returns ctx.Err() if the context is done.
	Next(ctx context.Context) (*big.Int, error)

	// Current returns the current term without advancing, or nil if Next
	// has never been called.
	Current() *big.Int

	// Index returns the index of the current term (0 before the first Next).
	Index() uint64

	// Reset rewinds the generator so that the next call to Next returns
	// term 0.
	Reset()

	// Skip positions the generator on term n and returns it.
	Skip(ctx context.Context, n uint64) (*big.Int, error)
}

// skipThreshold is the forward distance beyond which a Fibonacci generator
// jumps with the doubling pair instead of iterating.
const skipThreshold = 1000

// IterativeGenerator is the iterative strategy in streaming form. It holds a
// window of k consecutive terms (k being the order of the recurrence) and
// produces each new term with k-1 additions.
//
// All methods lock an internal mutex, but interleaving calls from several
// goroutines still yields an unpredictable split of the stream; give each
// goroutine its own generator.
type IterativeGenerator struct {
	kind Kind
	// window holds terms index .. index+k-1.
	window  []*big.Int
	index   uint64
	started bool
	mu      sync.Mutex
}

// NewIterativeGenerator creates a generator positioned before term 0 of kind.
func NewIterativeGenerator(kind Kind) *IterativeGenerator {
	g := &IterativeGenerator{kind: kind}
	g.reset()
	return g
}

// Kind returns the sequence the generator produces.
func (g *IterativeGenerator) Kind() Kind { return g.kind }

func (g *IterativeGenerator) reset() {
	seeds := g.kind.seeds()
	g.window = make([]*big.Int, len(seeds))
	for i, s := range seeds {
		g.window[i] = big.NewInt(s)
	}
	g.index = 0
	g.started = false
}

func (g *IterativeGenerator) advance() {
	sum := new(big.Int)
	for _, w := range g.window {
		sum.Add(sum, w)
	}
	copy(g.window, g.window[1:])
	g.window[len(g.window)-1] = sum
	g.index++
}

// Next advances the generator and returns a copy of the next term.
func (g *IterativeGenerator) Next(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		g.started = true
	} else {
		g.advance()
	}
	return new(big.Int).Set(g.window[0]), nil
}

// Current returns a copy of the current term, or nil if not started.
func (g *IterativeGenerator) Current() *big.Int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return nil
	}
	return new(big.Int).Set(g.window[0])
}

// Index returns the index of the current term.
func (g *IterativeGenerator) Index() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Reset rewinds the generator to term 0.
func (g *IterativeGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

// Skip positions the generator on term n. Fibonacci generators jump with the
// fast-doubling pair when n is behind the current position or at least
// skipThreshold terms ahead; every other case iterates.
func (g *IterativeGenerator) Skip(ctx context.Context, n uint64) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.kind == Fibonacci && (n < g.index || n-g.index >= skipThreshold) {
		fn, fn1, err := fibonacciPair(ctx, n)
		if err != nil {
			return nil, err
		}
		g.window = []*big.Int{fn, fn1}
		g.index = n
		g.started = true
		return new(big.Int).Set(fn), nil
	}

	if n < g.index {
		g.reset()
	}
	g.started = true
	for g.index < n {
		if g.index&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		g.advance()
	}
	return new(big.Int).Set(g.window[0]), nil
}

var _ SequenceGenerator = (*IterativeGenerator)(nil)
