// Package app wires the phicalc command tree: it loads the configuration,
// builds the engine, the term cache and the service, and dispatches to the
// cobra subcommands.
package app

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/agbru/phicalc/internal/cache"
	"github.com/agbru/phicalc/internal/cli"
	"github.com/agbru/phicalc/internal/config"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/logging"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/internal/ui"
)

// cachePingTimeout bounds the startup connectivity check of the term cache.
const cachePingTimeout = 2 * time.Second

// Application represents one phicalc invocation. It holds the configuration
// bound to the command-line flags and the components built from it.
type Application struct {
	// Config holds the configuration after flags, environment and file are applied.
	Config config.AppConfig

	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	logger logging.Logger
	engine *sequence.Engine
	cache  cache.Cache
	svc    *service.SequenceService
}

// New creates an Application reading from in and writing to out and errOut.
func New(in io.Reader, out, errOut io.Writer) *Application {
	return &Application{
		In:     in,
		Out:    out,
		ErrOut: errOut,
		logger: logging.Nop(),
	}
}

// Run executes phicalc with args (without the program name) on the process
// streams and returns the exit code.
func Run(ctx context.Context, args []string) int {
	return New(os.Stdin, os.Stdout, os.Stderr).Execute(ctx, args)
}

// Execute runs the command line args and returns the exit code. Errors are
// reported on ErrOut as a single "Error: ..." line.
func (a *Application) Execute(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.Close()
	return apperrors.HandleError(err, a.ErrOut, ui.ErrorColors{})
}

// Close releases the term cache.
func (a *Application) Close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close term cache", logging.Err(err))
	}
	a.cache = nil
}

// RootCommand builds the command tree bound to a.Config.
func (a *Application) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "phicalc",
		Short: "Golden ratio engine: Fibonacci, Lucas and Tribonacci terms",
		Long: `phicalc computes terms of the Fibonacci, Lucas and Tribonacci sequences
with six strategies (naive, memoized, iterative, closed form, matrix and fast
doubling), studies the convergence of their ratios and answers a few
number-theory questions about Fibonacci numbers.

Configuration is read from flags, then PHICALC_* environment variables, then
the YAML file named by --config or PHICALC_CONFIG.`,
		Version: CurrentBuild().Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: a.prepare,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.ErrOut)
	root.SetVersionTemplate(CurrentBuild().String() + "\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.NewConfigError("%v", err)
	})

	config.BindFlags(root.PersistentFlags(), &a.Config)

	root.AddCommand(
		a.infoCommand(),
		a.fibCommand(),
		a.seqCommand(),
		a.nthCommand(),
		a.fixedTermCommand(sequence.Lucas),
		a.fixedTermCommand(sequence.Tribonacci),
		a.termCommand(),
		a.convergenceCommand(),
		a.primesCommand(),
		a.gcdCommand(),
		a.isFibCommand(),
		a.compareCommand(),
		a.strategiesCommand(),
		a.serveCommand(),
		a.replCommand(),
		a.versionCommand(),
	)
	return root
}

// prepare loads the configuration for the running command and sets up the
// theme and the logger.
func (a *Application) prepare(cmd *cobra.Command, _ []string) error {
	if err := config.Load(cmd.Flags(), &a.Config); err != nil {
		return err
	}
	ui.InitTheme(a.Config.Theme, a.Config.NoColor)

	logger, err := a.newLogger(cmd)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger logs to stderr. Outside the server only debug and trace levels
// are enabled, so that warnings already rendered by the CLI are not repeated.
func (a *Application) newLogger(cmd *cobra.Command) (logging.Logger, error) {
	level := a.Config.LogLevel
	if cmd.Name() != "serve" && level != "debug" && level != "trace" {
		return logging.Nop(), nil
	}
	logger, err := logging.NewLoggerWithLevel(a.ErrOut, "phicalc", level)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	return logger, nil
}

// Engine returns the engine, creating it on first use.
func (a *Application) Engine() *sequence.Engine {
	if a.engine == nil {
		opts := append(a.Config.EngineOptions(), sequence.WithLogger(a.logger))
		a.engine = sequence.NewEngine(opts...)
	}
	return a.engine
}

// Service returns the service, creating the engine and the term cache on
// first use. An unreachable cache is reported and replaced by no cache.
func (a *Application) Service(ctx context.Context) *service.SequenceService {
	if a.svc != nil {
		return a.svc
	}
	a.cache = cache.NoopCache{}
	if a.Config.RedisAddr != "" {
		rc, err := cache.NewRedisCache(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		}, a.Config.CacheTTL)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
			err = rc.Ping(pingCtx)
			cancel()
			if err != nil {
				_ = rc.Close()
			}
		}
		if err != nil {
			a.logger.Warn("term cache disabled", logging.String("addr", a.Config.RedisAddr), logging.Err(err))
		} else {
			a.cache = rc
		}
	}
	a.svc = service.NewSequenceService(a.Engine(), a.cache, a.Config.MaxIndex, a.logger)
	return a.svc
}

// outputConfig extracts the display options.
func (a *Application) outputConfig() cli.OutputConfig {
	return cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		HexOutput:  a.Config.HexOutput,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
	}
}

// compute runs fn under the command timeout and SIGINT/SIGTERM, showing a
// spinner on a terminal when fn is slow.
func (a *Application) compute(cmd *cobra.Command, label string, fn func(ctx context.Context) error) error {
	ctx, stop := commandContext(cmd.Context(), a.Config.Timeout)
	defer stop()

	stopSpinner := func() {}
	if !a.Config.Quiet && !a.Config.JSONOutput {
		stopSpinner = cli.StartSpinner(a.ErrOut, label)
	}
	err := fn(ctx)
	stopSpinner()
	return err
}

// exactArgs is cobra.ExactArgs reported as an invalid argument.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return apperrors.NewValidationError("arguments",
				fmt.Sprintf("%s expects %d argument(s), got %d", cmd.Name(), n, len(args)), len(args))
		}
		return nil
	}
}

// parseInt parses a signed index or count. Negative values are left to the
// callee so that it reports them in its own terms.
func parseInt(name, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name, fmt.Sprintf("must be an integer, got %q", raw), raw)
	}
	return v, nil
}

// parseBigInt parses an integer of any size and sign.
func parseBigInt(name, raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, apperrors.NewValidationError(name, fmt.Sprintf("must be an integer, got %q", raw), raw)
	}
	return v, nil
}

// parseNatural parses a non-negative integer of any size.
func parseNatural(name, raw string) (*big.Int, error) {
	v, err := parseBigInt(name, raw)
	if err != nil {
		return nil, err
	}
	if v.Sign() < 0 {
		return nil, apperrors.NewValidationError(name, "must be non-negative", raw)
	}
	return v, nil
}

// parseStrategies parses a comma-separated strategy list.
func parseStrategies(list []string) ([]sequence.Strategy, error) {
	strategies := make([]sequence.Strategy, 0, len(list))
	for _, name := range list {
		if strings.TrimSpace(name) == "" {
			continue
		}
		s, err := sequence.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}
