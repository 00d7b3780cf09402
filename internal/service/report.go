package service

import (
	"context"
	"math"

	"github.com/agbru/phicalc/internal/convergence"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/pkg/models"
)

// Nth builds the report for index n. Both terms use fast doubling, so they go
// through the cache like any other exact request.
func Nth(ctx context.Context, svc Service, n int64) (models.NthRecord, error) {
	fib, err := svc.Term(ctx, sequence.Fibonacci, n, sequence.FastDoubling)
	if err != nil {
		return models.NthRecord{}, err
	}
	lucas, err := svc.Term(ctx, sequence.Lucas, n, sequence.FastDoubling)
	if err != nil {
		return models.NthRecord{}, err
	}

	rec := models.NthRecord{
		N:               fib.Value.Index(),
		Fibonacci:       fib.Value.String(),
		FibonacciDigits: fib.Value.Digits(),
		Lucas:           lucas.Value.String(),
		LucasDigits:     lucas.Value.Digits(),
	}
	if n >= 1 {
		samples, err := convergence.AnalyzeRange(ctx, sequence.Fibonacci, n, n)
		if err != nil {
			return models.NthRecord{}, err
		}
		ratio, e := samples[0].Ratio, samples[0].Error
		rec.Ratio, rec.RatioError = &ratio, &e
	}
	return rec, nil
}

// Constants returns the golden-ratio constants and the float64 residuals of
// φ² = φ+1 and 1/φ = φ-1.
func Constants() models.ConstantsRecord {
	phi := sequence.Phi
	return models.ConstantsRecord{
		Constants: []models.ConstantRecord{
			{Name: "phi", Value: sequence.Phi},
			{Name: "psi", Value: sequence.Psi},
			{Name: "1/phi", Value: sequence.InvPhi},
			{Name: "phi^2", Value: sequence.PhiSquared},
			{Name: "sqrt5", Value: sequence.Sqrt5},
			{Name: "golden angle (deg)", Value: sequence.GoldenAngleDegrees},
			{Name: "golden angle (rad)", Value: sequence.GoldenAngle},
		},
		Identities: []models.IdentityRecord{
			{Identity: "phi^2 = phi + 1", Residual: math.Abs(phi*phi - (phi + 1))},
			{Identity: "1/phi = phi - 1", Residual: math.Abs(1/phi - (phi - 1))},
		},
	}
}
