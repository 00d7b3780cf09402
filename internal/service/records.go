package service

import (
	"math/big"

	"github.com/agbru/phicalc/internal/convergence"
	"github.com/agbru/phicalc/internal/numtheory"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/pkg/models"
)

// NewTermRecord converts a computed term into its JSON record.
func NewTermRecord(kind sequence.Kind, s sequence.Strategy, res TermResult) models.TermRecord {
	return models.TermRecord{
		Sequence:      kind.String(),
		Strategy:      s.String(),
		N:             res.Value.Index(),
		Result:        res.Value.String(),
		Digits:        res.Value.Digits(),
		Exact:         res.Value.IsExact(),
		PrecisionLoss: res.Value.PrecisionLoss(),
		Cached:        res.Cached,
		Duration:      res.Duration.String(),
	}
}

// NewSequenceRecord converts a list of terms; withRatios adds the ratio of
// each term to its predecessor.
func NewSequenceRecord(kind sequence.Kind, terms []*big.Int, withRatios bool) models.SequenceRecord {
	rec := models.SequenceRecord{
		Sequence: kind.String(),
		Count:    int64(len(terms)),
		Terms:    make([]string, len(terms)),
	}
	for i, t := range terms {
		rec.Terms[i] = t.String()
	}
	if withRatios && len(terms) > 1 {
		rec.Ratios = make([]*float64, len(terms)-1)
		for i := 1; i < len(terms); i++ {
			if r, ok := Ratio(terms[i], terms[i-1]); ok {
				rec.Ratios[i-1] = &r
			}
		}
	}
	return rec
}

// Ratio returns num/den rounded to float64; ok is false when den is zero.
func Ratio(num, den *big.Int) (float64, bool) {
	if den.Sign() == 0 {
		return 0, false
	}
	prec := uint(sequence.DefaultPrecision)
	q := new(big.Float).SetPrec(prec).SetInt(num)
	q.Quo(q, new(big.Float).SetPrec(prec).SetInt(den))
	f, _ := q.Float64()
	return f, true
}

// NewConvergenceRecord converts convergence samples.
func NewConvergenceRecord(kind sequence.Kind, samples []convergence.Sample) models.ConvergenceRecord {
	limit, _ := kind.Limit(sequence.DefaultPrecision).Float64()
	rec := models.ConvergenceRecord{
		Sequence: kind.String(),
		Limit:    limit,
		Samples:  make([]models.ConvergenceSample, len(samples)),
	}
	for i, s := range samples {
		rec.Samples[i] = models.ConvergenceSample{Index: s.Index, Ratio: s.Ratio, Error: s.Error}
	}
	return rec
}

// NewPrimesRecord converts a Fibonacci-prime search.
func NewPrimesRecord(bound int64, primes []numtheory.FibPrime) models.PrimesRecord {
	rec := models.PrimesRecord{Bound: bound, Primes: make([]models.FibPrime, len(primes))}
	for i, p := range primes {
		rec.Primes[i] = models.FibPrime{Index: p.Index, Value: p.Value}
	}
	return rec
}

// NewGCDRecord runs GCDWithStepsBig and converts the outcome.
func NewGCDRecord(a, b *big.Int) models.GCDRecord {
	g, steps := numtheory.GCDWithStepsBig(a, b)
	return models.GCDRecord{A: a.String(), B: b.String(), GCD: g.String(), Steps: steps}
}

// NewMembershipRecord tests x for Fibonacci membership and resolves its index.
func NewMembershipRecord(x *big.Int) models.MembershipRecord {
	rec := models.MembershipRecord{Value: x.String()}
	if idx, ok := numtheory.FibonacciIndex(x); ok {
		rec.IsFibonacci = true
		rec.Index = &idx
	}
	return rec
}

// NewStrategyRecords converts strategy metadata.
func NewStrategyRecords(infos []sequence.Info) []models.StrategyRecord {
	recs := make([]models.StrategyRecord, len(infos))
	for i, info := range infos {
		kinds := make([]string, len(info.Kinds))
		for j, k := range info.Kinds {
			kinds[j] = k.String()
		}
		recs[i] = models.StrategyRecord{
			Name:      info.Name,
			Aliases:   info.Aliases,
			Title:     info.Title,
			Time:      info.Time,
			Space:     info.Space,
			Exact:     info.Exact,
			Sequences: kinds,
		}
	}
	return recs
}
