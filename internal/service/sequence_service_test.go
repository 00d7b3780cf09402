package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/phicalc/internal/cache"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/sequence"
)

// failingCache returns errors from every operation.
type failingCache struct{ sets int }

func (f *failingCache) Get(context.Context, sequence.Kind, uint64) (*big.Int, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (f *failingCache) Set(context.Context, sequence.Kind, uint64, *big.Int) error {
	f.sets++
	return errors.New("connection refused")
}

func (f *failingCache) Close() error { return nil }

func newRedisService(t *testing.T, maxIndex uint64) (*SequenceService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(&redis.Options{Addr: mr.Addr()}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return NewSequenceService(sequence.NewEngine(), c, maxIndex, nil), mr
}

func TestNewSequenceService(t *testing.T) {
	svc := NewSequenceService(sequence.NewEngine(), nil, 1000, nil)
	require.NotNil(t, svc)
	assert.Equal(t, uint64(1000), svc.MaxIndex())
	assert.IsType(t, cache.NoopCache{}, svc.cache)
	assert.Len(t, svc.Strategies(), len(sequence.Strategies()))
}

func TestTermUsesCacheForExactStrategies(t *testing.T) {
	svc, mr := newRedisService(t, 0)
	ctx := context.Background()

	first, err := svc.Term(ctx, sequence.Fibonacci, 100, sequence.FastDoubling)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "354224848179261915075", first.Value.String())

	stored, err := mr.Get(cache.Key(sequence.Fibonacci, 100))
	require.NoError(t, err)
	assert.Equal(t, "354224848179261915075", stored)

	// A different exact strategy is served from the same entry.
	second, err := svc.Term(ctx, sequence.Fibonacci, 100, sequence.Matrix)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, second.Value.Equal(first.Value))
	assert.Equal(t, uint64(100), second.Value.Index())
}

func TestTermSkipsCacheForClosedForm(t *testing.T) {
	svc, mr := newRedisService(t, 0)
	ctx := context.Background()

	res, err := svc.Term(ctx, sequence.Fibonacci, 20, sequence.ClosedForm)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.False(t, res.Value.IsExact())
	assert.False(t, mr.Exists(cache.Key(sequence.Fibonacci, 20)))
}

func TestTermValidation(t *testing.T) {
	svc, mr := newRedisService(t, 500)
	ctx := context.Background()

	testCases := []struct {
		name     string
		kind     sequence.Kind
		n        int64
		strategy sequence.Strategy
		wantErr  error
	}{
		{"above max index", sequence.Fibonacci, 501, sequence.Iterative, ErrMaxValueExceeded},
		{"above max index is invalid argument", sequence.Lucas, 1000, sequence.Matrix, apperrors.ErrInvalidArgument},
		{"negative", sequence.Fibonacci, -1, sequence.Iterative, apperrors.ErrInvalidArgument},
		{"unsupported", sequence.Tribonacci, 10, sequence.ClosedForm, apperrors.ErrUnsupported},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Term(ctx, tc.kind, tc.n, tc.strategy)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Empty(t, mr.Keys(), "rejected requests must not touch the cache")
}

func TestTermSurvivesCacheFailures(t *testing.T) {
	fc := &failingCache{}
	svc := NewSequenceService(sequence.NewEngine(), fc, 0, nil)

	res, err := svc.Term(context.Background(), sequence.Tribonacci, 10, sequence.Iterative)
	require.NoError(t, err)
	assert.Equal(t, "81", res.Value.String())
	assert.False(t, res.Cached)
	assert.Equal(t, 1, fc.sets)
}

func TestTerms(t *testing.T) {
	svc := NewSequenceService(sequence.NewEngine(), nil, 10, nil)
	ctx := context.Background()

	terms, err := svc.Terms(ctx, sequence.Fibonacci, 10)
	require.NoError(t, err)
	assert.Len(t, terms, 10)
	assert.Equal(t, "34", terms[9].String())

	_, err = svc.Terms(ctx, sequence.Fibonacci, 11)
	assert.ErrorIs(t, err, ErrMaxValueExceeded)

	_, err = svc.Terms(ctx, sequence.Fibonacci, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
