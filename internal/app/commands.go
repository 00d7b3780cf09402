package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/agbru/phicalc/internal/cli"
	"github.com/agbru/phicalc/internal/config"
	"github.com/agbru/phicalc/internal/convergence"
	"github.com/agbru/phicalc/internal/numtheory"
	"github.com/agbru/phicalc/internal/orchestration"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/server"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/pkg/models"
)

func (a *Application) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the golden ratio constants and identities",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := service.Constants()
			if a.Config.JSONOutput {
				return cli.WriteJSON(a.Out, rec)
			}
			cli.DisplayConstants(a.Out, rec)
			return nil
		},
	}
}

func (a *Application) fibCommand() *cobra.Command {
	var ratios bool
	cmd := &cobra.Command{
		Use:   "fib N",
		Short: "List the first N Fibonacci numbers",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTerms(cmd, sequence.Fibonacci, args[0], ratios)
		},
	}
	cmd.Flags().BoolVar(&ratios, "ratios", false, "Show the ratio of each term to the previous one.")
	return cmd
}

func (a *Application) seqCommand() *cobra.Command {
	var ratios bool
	cmd := &cobra.Command{
		Use:   "seq KIND N",
		Short: "List the first N terms of fibonacci, lucas or tribonacci",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := sequence.ParseKind(args[0])
			if err != nil {
				return err
			}
			return a.listTerms(cmd, kind, args[1], ratios)
		},
	}
	cmd.Flags().BoolVar(&ratios, "ratios", false, "Show the ratio of each term to the previous one.")
	return cmd
}

func (a *Application) listTerms(cmd *cobra.Command, kind sequence.Kind, rawCount string, ratios bool) error {
	count, err := parseInt("count", rawCount)
	if err != nil {
		return err
	}

	var terms []*big.Int
	err = a.compute(cmd, "Computing terms...", func(ctx context.Context) error {
		terms, err = a.Service(ctx).Terms(ctx, kind, count)
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case a.Config.JSONOutput:
		return cli.WriteJSON(a.Out, service.NewSequenceRecord(kind, terms, ratios))
	case a.Config.Quiet:
		for _, t := range terms {
			fmt.Fprintln(a.Out, t)
		}
	default:
		cli.DisplayTerms(a.Out, kind, terms, ratios)
	}
	return nil
}

func (a *Application) nthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nth N",
		Short: "Report F(N), L(N) and the ratio F(N+1)/F(N)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("index", args[0])
			if err != nil {
				return err
			}
			var rec models.NthRecord
			err = a.compute(cmd, "Computing report...", func(ctx context.Context) error {
				rec, err = service.Nth(ctx, a.Service(ctx), n)
				return err
			})
			if err != nil {
				return err
			}
			if a.Config.JSONOutput {
				return cli.WriteJSON(a.Out, rec)
			}
			cli.DisplayNthReport(a.Out, rec, a.Config.Verbose)
			return nil
		},
	}
}

// bindTermFlags registers the display flags shared by the term commands.
func (a *Application) bindTermFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVar(&a.Config.Strategy, "strategy", d.Strategy, "Computation strategy (see 'phicalc strategies').")
	cmd.Flags().BoolVar(&a.Config.HexOutput, "hex", false, "Display the result in hexadecimal.")
	cmd.Flags().StringVarP(&a.Config.OutputFile, "output", "o", "", "Write the result to this file.")
}

func (a *Application) termCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term N",
		Short: "Compute term N of a sequence with a chosen strategy",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTerm(cmd, a.Config.Kind(), a.Config.StrategyValue(), args[0])
		},
	}
	cmd.Flags().StringVar(&a.Config.Sequence, "seq", config.Default().Sequence, "Sequence: fibonacci, lucas or tribonacci.")
	a.bindTermFlags(cmd)
	return cmd
}

// fixedTermCommand computes a term of kind. A configured strategy that does
// not support kind falls back to matrix exponentiation unless it was
// requested explicitly.
func (a *Application) fixedTermCommand(kind sequence.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind.String() + " N",
		Short: fmt.Sprintf("Compute %s(N)", kind.Symbol()),
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.Config.StrategyValue()
			if !s.Supports(kind) && !cmd.Flags().Changed("strategy") {
				s = sequence.Matrix
			}
			return a.runTerm(cmd, kind, s, args[0])
		},
	}
	a.bindTermFlags(cmd)
	return cmd
}

func (a *Application) runTerm(cmd *cobra.Command, kind sequence.Kind, s sequence.Strategy, rawIndex string) error {
	n, err := parseInt("index", rawIndex)
	if err != nil {
		return err
	}

	var res service.TermResult
	label := fmt.Sprintf("Computing %s(%d)...", kind.Symbol(), n)
	err = a.compute(cmd, label, func(ctx context.Context) error {
		res, err = a.Service(ctx).Term(ctx, kind, n, s)
		return err
	})
	if err != nil {
		return err
	}

	cfg := a.outputConfig()
	switch {
	case a.Config.JSONOutput:
		if err := cli.WriteResultToFile(kind, s, res, cfg); err != nil {
			return err
		}
		return cli.WriteJSON(a.Out, service.NewTermRecord(kind, s, res))
	case a.Config.Quiet:
		cli.DisplayQuietResult(a.Out, res.Value, cfg.HexOutput)
		return cli.WriteResultToFile(kind, s, res, cfg)
	default:
		return cli.DisplayTerm(a.Out, kind, s, res, cfg)
	}
}

func (a *Application) convergenceCommand() *cobra.Command {
	var from int64
	cmd := &cobra.Command{
		Use:   "convergence N",
		Short: "Show how term(i+1)/term(i) approaches its limit for i up to N",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("index", args[0])
			if err != nil {
				return err
			}
			kind := a.Config.Kind()
			fromSet := cmd.Flags().Changed("from")

			var samples []convergence.Sample
			err = a.compute(cmd, "Analyzing convergence...", func(ctx context.Context) error {
				if limit := a.Service(ctx).MaxIndex(); limit > 0 && n > 0 && uint64(n) > limit {
					return fmt.Errorf("index %d is above the limit %d: %w", n, limit, service.ErrMaxValueExceeded)
				}
				if fromSet {
					samples, err = convergence.AnalyzeRange(ctx, kind, from, n)
				} else {
					samples, err = convergence.AnalyzeUpTo(ctx, kind, n)
				}
				return err
			})
			if err != nil {
				return err
			}
			if a.Config.JSONOutput {
				return cli.WriteJSON(a.Out, service.NewConvergenceRecord(kind, samples))
			}
			cli.DisplayConvergence(a.Out, kind, samples)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.Config.Sequence, "seq", config.Default().Sequence, "Sequence: fibonacci, lucas or tribonacci.")
	cmd.Flags().Int64Var(&from, "from", 0, "First index (default: the first index with a non-zero term).")
	return cmd
}

func (a *Application) primesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "primes BOUND",
		Short: fmt.Sprintf("List the prime Fibonacci numbers F(i) with i <= BOUND (BOUND <= %d)", sequence.MaxUint64Index),
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bound, err := parseInt("bound", args[0])
			if err != nil {
				return err
			}
			var primes []numtheory.FibPrime
			err = a.compute(cmd, "Searching primes...", func(ctx context.Context) error {
				primes, err = numtheory.FibonacciPrimes(ctx, bound)
				return err
			})
			if err != nil {
				return err
			}
			if a.Config.JSONOutput {
				return cli.WriteJSON(a.Out, service.NewPrimesRecord(bound, primes))
			}
			cli.DisplayPrimes(a.Out, bound, primes)
			return nil
		},
	}
}

func (a *Application) gcdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gcd A B",
		Short: "Compute gcd(A, B) with Euclid's algorithm and count its steps",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseNatural("a", args[0])
			if err != nil {
				return err
			}
			y, err := parseNatural("b", args[1])
			if err != nil {
				return err
			}
			rec := service.NewGCDRecord(x, y)
			switch {
			case a.Config.JSONOutput:
				return cli.WriteJSON(a.Out, rec)
			case a.Config.Quiet:
				fmt.Fprintln(a.Out, rec.GCD)
			default:
				cli.DisplayGCD(a.Out, rec)
			}
			return nil
		},
	}
}

func (a *Application) isFibCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "isfib X",
		Short: "Tell whether X is a Fibonacci number",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseBigInt("value", args[0])
			if err != nil {
				return err
			}
			rec := service.NewMembershipRecord(x)
			switch {
			case a.Config.JSONOutput:
				return cli.WriteJSON(a.Out, rec)
			case a.Config.Quiet:
				fmt.Fprintln(a.Out, rec.IsFibonacci)
			default:
				cli.DisplayMembership(a.Out, rec)
			}
			return nil
		},
	}
}

func (a *Application) compareCommand() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "compare N",
		Short: "Run several strategies on one term concurrently and check they agree",
		Long: `Run several strategies on one term concurrently and check they agree.

Without --strategies, every strategy accepting the term is run. The closed
form is compared as an approximation: a difference beyond its safe index is
reported but is not a failure. The exit code is 3 when exact strategies
disagree.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("index", args[0])
			if err != nil {
				return err
			}
			kind := a.Config.Kind()

			strategies, err := parseStrategies(names)
			if err != nil {
				return err
			}
			if len(strategies) == 0 {
				if strategies, err = orchestration.SelectStrategies(a.Engine(), kind, n); err != nil {
					return err
				}
			}

			// The comparison bypasses the term cache so that every strategy computes.
			computer := service.NewSequenceService(a.Engine(), nil, a.Config.MaxIndex, a.logger)
			var results []orchestration.ComparisonResult
			err = a.compute(cmd, "Comparing strategies...", func(ctx context.Context) error {
				results = orchestration.Compare(ctx, computer, kind, n, strategies)
				return ctx.Err()
			})
			if err != nil {
				return err
			}

			if a.Config.JSONOutput {
				if err := cli.WriteJSON(a.Out, orchestration.NewComparisonRecord(kind, uint64(n), results)); err != nil {
					return err
				}
				return orchestration.Verdict(results)
			}
			return orchestration.AnalyzeComparisonResults(results, kind, a.outputConfig(), a.Out)
		},
	}
	cmd.Flags().StringVar(&a.Config.Sequence, "seq", config.Default().Sequence, "Sequence: fibonacci, lucas or tribonacci.")
	cmd.Flags().StringSliceVar(&names, "strategies", nil, "Comma-separated strategies to compare (default: all applicable).")
	return cmd
}

func (a *Application) strategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the computation strategies",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := a.Service(cmd.Context()).Strategies()
			if a.Config.JSONOutput {
				return cli.WriteJSON(a.Out, service.NewStrategyRecords(infos))
			}
			cli.DisplayStrategies(a.Out, infos)
			return nil
		},
	}
}

func (a *Application) serveCommand() *cobra.Command {
	var maxIndex uint64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case cmd.Flags().Changed("max-index"):
				a.Config.MaxIndex = maxIndex
			case a.Config.MaxIndex == 0:
				a.Config.MaxIndex = config.DefaultServerMaxIndex
			}

			ctx, stop := commandContext(cmd.Context(), 0)
			defer stop()

			srv := server.NewServer(a.Service(ctx), a.Config, server.WithLogger(a.logger))
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&a.Config.Port, "port", config.DefaultPort, "Port to listen on.")
	cmd.Flags().Uint64Var(&maxIndex, "max-index", config.DefaultServerMaxIndex, "Largest index or count accepted by the API (0 for no limit).")
	cmd.Flags().StringVar(&a.Config.Sequence, "seq", config.Default().Sequence, "Default sequence of the API.")
	cmd.Flags().StringVar(&a.Config.Strategy, "strategy", config.Default().Strategy, "Default strategy of the API.")
	return cmd
}

func (a *Application) replCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd.Context(), 0)
			defer stop()

			repl := cli.NewREPL(a.Service(ctx), cli.REPLConfig{
				DefaultSequence: a.Config.Kind(),
				DefaultStrategy: a.Config.StrategyValue(),
				Timeout:         a.Config.Timeout,
				HexOutput:       a.Config.HexOutput,
			})
			repl.SetInput(cmd.InOrStdin())
			repl.SetOutput(a.Out)
			repl.Start(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.Config.Sequence, "seq", config.Default().Sequence, "Initial sequence.")
	cmd.Flags().StringVar(&a.Config.Strategy, "strategy", config.Default().Strategy, "Initial strategy.")
	cmd.Flags().BoolVar(&a.Config.HexOutput, "hex", false, "Display results in hexadecimal.")
	return cmd
}

func (a *Application) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Config.JSONOutput {
				return cli.WriteJSON(a.Out, CurrentBuild())
			}
			_, err := CurrentBuild().WriteTo(a.Out)
			return err
		},
	}
}
