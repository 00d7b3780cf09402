// Package orchestration runs several strategies on the same term concurrently
// and checks that their results agree.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/phicalc/internal/cli"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/internal/ui"
	"github.com/agbru/phicalc/pkg/models"
)

// TermComputer computes a single term. service.Service satisfies it.
type TermComputer interface {
	Term(ctx context.Context, kind sequence.Kind, n int64, s sequence.Strategy) (service.TermResult, error)
}

// ComparisonResult encapsulates the outcome of one strategy in a comparison.
type ComparisonResult struct {
	// Strategy is the strategy that was run.
	Strategy sequence.Strategy
	// Value is the computed term. It is the zero Value if an error occurred.
	Value sequence.Value
	// Duration is the time taken to complete the calculation.
	Duration time.Duration
	// Err contains any error that occurred during the calculation.
	Err error
}

// status classifies a successful result against the reference.
type status int

const (
	statusOK status = iota
	statusApproximate
	statusMismatch
)

// SelectStrategies returns the strategies that accept term n of kind, in
// declaration order. The error is non-nil only when n itself is invalid for
// every strategy (a negative index).
func SelectStrategies(engine *sequence.Engine, kind sequence.Kind, n int64) ([]sequence.Strategy, error) {
	if _, err := engine.Validate(kind, n, sequence.Iterative); err != nil {
		return nil, err
	}
	var selected []sequence.Strategy
	for _, s := range sequence.Strategies() {
		if _, err := engine.Validate(kind, n, s); err == nil {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

// Compare runs each strategy on term n of kind concurrently and returns one
// result per strategy, in the order given. Individual failures are recorded
// in the results and never stop the other strategies.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - computer: Computes each term.
//   - kind: The sequence.
//   - n: The term index.
//   - strategies: The strategies to run.
//
// Returns:
//   - []ComparisonResult: A slice containing the result of each strategy.
func Compare(ctx context.Context, computer TermComputer, kind sequence.Kind, n int64, strategies []sequence.Strategy) []ComparisonResult {
	ctx, span := otel.Tracer("phicalc/orchestration").Start(ctx, "Compare")
	defer span.End()
	span.SetAttributes(
		attribute.String("sequence", kind.String()),
		attribute.Int64("n", n),
		attribute.Int("strategies", len(strategies)),
	)

	g, ctx := errgroup.WithContext(ctx)
	results := make([]ComparisonResult, len(strategies))

	for i, s := range strategies {
		g.Go(func() error {
			startTime := time.Now()
			res, err := computer.Term(ctx, kind, n, s)
			results[i] = ComparisonResult{
				Strategy: s, Value: res.Value, Duration: time.Since(startTime), Err: err,
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// evaluate picks the reference result (the first exact success, or the first
// success when none is exact) and classifies every successful result against
// it. A closed-form value that differs from the reference counts as a mismatch
// only inside the closed form's safe range.
func evaluate(results []ComparisonResult) (reference *ComparisonResult, statuses []status, firstErr error) {
	statuses = make([]status, len(results))
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		if reference == nil || (!reference.Value.IsExact() && res.Value.IsExact()) {
			reference = res
		}
	}
	if reference == nil {
		return nil, statuses, firstErr
	}

	for i, res := range results {
		if res.Err != nil || res.Value.Equal(reference.Value) {
			if res.Err == nil && !res.Value.IsExact() {
				statuses[i] = statusApproximate
			}
			continue
		}
		if !res.Value.IsExact() && res.Value.PrecisionLoss() {
			statuses[i] = statusApproximate
			continue
		}
		statuses[i] = statusMismatch
	}
	return reference, statuses, firstErr
}

// Verdict reduces a comparison to an error: nil when every successful result
// agrees, an apperrors.ErrMismatch error on disagreement, or the first failure
// when no strategy succeeded.
func Verdict(results []ComparisonResult) error {
	reference, statuses, firstErr := evaluate(results)
	if reference == nil {
		if firstErr == nil {
			return fmt.Errorf("no strategy was run: %w", apperrors.ErrInvalidArgument)
		}
		return firstErr
	}
	for i, st := range statuses {
		if st == statusMismatch {
			return fmt.Errorf("%s returned %s, %s returned %s: %w",
				results[i].Strategy, results[i].Value, reference.Strategy, reference.Value, apperrors.ErrMismatch)
		}
	}
	return nil
}

// NewComparisonRecord converts a comparison into its JSON record.
func NewComparisonRecord(kind sequence.Kind, n uint64, results []ComparisonResult) models.ComparisonRecord {
	rec := models.ComparisonRecord{
		Sequence:   kind.String(),
		N:          n,
		Consistent: Verdict(results) == nil,
		Entries:    make([]models.ComparisonEntry, len(results)),
	}
	for i, res := range results {
		entry := models.ComparisonEntry{Strategy: res.Strategy.String(), Duration: res.Duration.String()}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		} else {
			entry.Result = res.Value.String()
			entry.PrecisionLoss = res.Value.PrecisionLoss()
		}
		rec.Entries[i] = entry
	}
	return rec
}

// AnalyzeComparisonResults processes the results from multiple strategies and
// generates a summary report.
//
// It sorts the results by execution time, validates consistency across
// successful calculations, and displays a comparative table followed by the
// agreed value.
//
// Parameters:
//   - results: The slice of comparison results to analyze.
//   - kind: The sequence that was computed.
//   - cfg: Output configuration for the final value.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - error: The outcome of Verdict.
func AnalyzeComparisonResults(results []ComparisonResult, kind sequence.Kind, cfg cli.OutputConfig, out io.Writer) error {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Duration < results[j].Duration
	})
	reference, statuses, _ := evaluate(results)

	fmt.Fprintf(out, "\n%s\n", ui.Heading("Comparison Summary"))
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Strategy\tDuration\tDigits\tStatus\n")

	for i, res := range results {
		digits := "-"
		var st string
		switch {
		case res.Err != nil:
			st = ui.Error(fmt.Sprintf("Failure (%v)", res.Err))
		case statuses[i] == statusMismatch:
			st = ui.Error("MISMATCH")
			digits = fmt.Sprint(res.Value.Digits())
		case statuses[i] == statusApproximate:
			st = ui.Warning("Approximate")
			if res.Value.PrecisionLoss() {
				st = ui.Warning("Approximate (precision loss)")
			}
			digits = fmt.Sprint(res.Value.Digits())
		default:
			st = ui.Success("Success")
			digits = fmt.Sprint(res.Value.Digits())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Strategy, cli.FormatExecutionDuration(res.Duration), digits, st)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	verdict := Verdict(results)
	switch {
	case reference == nil:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No strategy could complete the calculation.\n")
	case verdict != nil:
		fmt.Fprintf(out, "\nGlobal Status: %s\n", ui.Error("CRITICAL ERROR! An inconsistency was detected between the results of the strategies."))
	default:
		fmt.Fprintf(out, "\nGlobal Status: %s\n\n", ui.Success("Success. All valid results are consistent."))
		res := service.TermResult{Value: reference.Value, Duration: reference.Duration}
		if err := cli.DisplayTerm(out, kind, reference.Strategy, res, cfg); err != nil {
			return err
		}
	}
	return verdict
}
