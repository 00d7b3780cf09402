package convergence

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/sequence"
)

func TestAnalyzeOrderAndValues(t *testing.T) {
	t.Parallel()
	samples, err := Analyze(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, samples, 10)

	for i, s := range samples {
		assert.Equal(t, uint64(i+1), s.Index)
	}
	// F(2)/F(1) = 1, F(3)/F(2) = 2, F(11)/F(10) = 89/55.
	assert.Equal(t, 1.0, samples[0].Ratio)
	assert.Equal(t, 2.0, samples[1].Ratio)
	assert.InDelta(t, 89.0/55.0, samples[9].Ratio, 1e-15)
	assert.InDelta(t, sequence.Phi-1, samples[0].Error, 1e-15)
}

func TestAnalyzeErrorStrictlyDecreases(t *testing.T) {
	t.Parallel()
	samples, err := Analyze(context.Background(), 60)
	require.NoError(t, err)

	for i := 10; i < 50; i++ {
		prev, next := samples[i-1], samples[i]
		assert.Less(t, next.Error, prev.Error,
			"error at i=%d (%g) must be below error at i=%d (%g)", next.Index, next.Error, prev.Index, prev.Error)
		assert.Greater(t, next.Error, 0.0, "error at i=%d must stay positive", next.Index)
	}
	assert.InDelta(t, sequence.Phi, samples[59].Ratio, 1e-15)
}

func TestAnalyzeEdgeCases(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	empty, err := Analyze(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Analyze(ctx, -3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestAnalyzeRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	testCases := []struct {
		name     string
		kind     sequence.Kind
		from, to int64
		limit    float64
	}{
		{"lucas from zero", sequence.Lucas, 0, 40, sequence.Phi},
		{"fibonacci tail", sequence.Fibonacci, 30, 45, sequence.Phi},
		{"tribonacci", sequence.Tribonacci, 2, 60, 1.8392867552141612},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			samples, err := AnalyzeRange(ctx, tc.kind, tc.from, tc.to)
			require.NoError(t, err)
			require.Len(t, samples, int(tc.to-tc.from+1))
			assert.Equal(t, uint64(tc.from), samples[0].Index)
			last := samples[len(samples)-1]
			assert.InDelta(t, tc.limit, last.Ratio, 1e-9)
			assert.InDelta(t, math.Abs(last.Ratio-tc.limit), last.Error, 1e-9)
		})
	}
}

func TestAnalyzeRangeZeroDenominator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	testCases := []struct {
		name     string
		kind     sequence.Kind
		from, to int64
	}{
		{"fibonacci from zero", sequence.Fibonacci, 0, 10},
		{"tribonacci from zero", sequence.Tribonacci, 0, 10},
		{"tribonacci from one", sequence.Tribonacci, 1, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			samples, err := AnalyzeRange(ctx, tc.kind, tc.from, tc.to)
			assert.Nil(t, samples)
			assert.True(t, IsUndefinedRatio(err), "got %v", err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
		})
	}
}

func TestAnalyzeRangeInvalidBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := AnalyzeRange(ctx, sequence.Lucas, -1, 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = AnalyzeRange(ctx, sequence.Lucas, 6, 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = AnalyzeRange(canceled, sequence.Fibonacci, 1, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultFromIsFirstDefinedRatio(t *testing.T) {
	t.Parallel()
	for _, kind := range sequence.Kinds() {
		from := DefaultFrom(kind)
		_, err := AnalyzeRange(context.Background(), kind, from, from+5)
		require.NoError(t, err, kind.String())
		if from > 0 {
			_, err = AnalyzeRange(context.Background(), kind, from-1, from+5)
			assert.True(t, IsUndefinedRatio(err), "%s: index %d should be undefined", kind, from-1)
		}
	}
}

// canceledAfter reports no error for its first calls to Err, then
// context.Canceled.
type canceledAfter struct {
	context.Context
	calls atomic.Int32
	after int32
}

func (c *canceledAfter) Err() error {
	if c.calls.Add(1) > c.after {
		return context.Canceled
	}
	return nil
}

func TestAnalyzeRangeWidestRangeStopsOnContext(t *testing.T) {
	t.Parallel()
	// The first Err call is the skip to the start index; the first term then
	// sees the cancellation.
	ctx := &canceledAfter{Context: context.Background(), after: 1}

	samples, err := AnalyzeRange(ctx, sequence.Lucas, 0, math.MaxInt64)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, samples)
}

func TestAnalyzeUpToBelowFirstRatio(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for _, tt := range []struct {
		kind sequence.Kind
		n    int64
	}{
		{sequence.Fibonacci, 0},
		{sequence.Tribonacci, 0},
		{sequence.Tribonacci, 1},
	} {
		samples, err := AnalyzeUpTo(ctx, tt.kind, tt.n)
		require.NoError(t, err, "%s up to %d", tt.kind, tt.n)
		assert.Empty(t, samples)
		assert.NotNil(t, samples)
	}

	lucas, err := AnalyzeUpTo(ctx, sequence.Lucas, 0)
	require.NoError(t, err)
	require.Len(t, lucas, 1)
	assert.Equal(t, 0.5, lucas[0].Ratio)

	_, err = AnalyzeUpTo(ctx, sequence.Lucas, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
