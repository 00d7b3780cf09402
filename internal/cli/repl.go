package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/internal/ui"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// DefaultSequence is the sequence selected at startup.
	DefaultSequence sequence.Kind
	// DefaultStrategy is the strategy selected at startup.
	DefaultStrategy sequence.Strategy
	// Timeout is the maximum duration for each calculation.
	Timeout time.Duration
	// HexOutput displays results in hexadecimal format.
	HexOutput bool
}

// REPL represents an interactive calculator session.
type REPL struct {
	config   REPLConfig
	svc      service.Service
	kind     sequence.Kind
	strategy sequence.Strategy
	in       io.Reader
	out      io.Writer
}

// NewREPL creates a new REPL instance.
//
// Parameters:
//   - svc: The service computing the terms.
//   - config: REPL configuration.
//
// Returns:
//   - *REPL: A new REPL instance.
func NewREPL(svc service.Service, config REPLConfig) *REPL {
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &REPL{
		config:   config,
		svc:      svc,
		kind:     config.DefaultSequence,
		strategy: config.DefaultStrategy,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start begins the interactive REPL session.
// It continuously reads user input and processes commands until
// the user exits, ctx is canceled or EOF is reached.
func (r *REPL) Start(ctx context.Context) {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)

	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprint(r.out, ui.Success("phi> "))

		input, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return
			}
			fmt.Fprintln(r.out, ui.Error(fmt.Sprintf("Read error: %v", err)))
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !r.processCommand(ctx, input) {
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s\n\n", ui.Heading("phicalc interactive mode"))
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, ui.Bold("Available commands:"))
	fmt.Fprintf(r.out, "  %s      - Compute term n with the current sequence and strategy\n", ui.Warning("calc <n>"))
	fmt.Fprintf(r.out, "  %s  - Change sequence (fibonacci, lucas, tribonacci)\n", ui.Warning("seq <name>"))
	fmt.Fprintf(r.out, "  %s   - Change strategy (%s)\n", ui.Warning("algo <name>"), strings.Join(sequence.StrategyNames(), ", "))
	fmt.Fprintf(r.out, "  %s   - Compare every strategy on term n\n", ui.Warning("compare <n>"))
	fmt.Fprintf(r.out, "  %s     - Test Fibonacci membership\n", ui.Warning("isfib <x>"))
	fmt.Fprintf(r.out, "  %s   - Euclid's algorithm with step count\n", ui.Warning("gcd <a> <b>"))
	fmt.Fprintf(r.out, "  %s          - List available strategies\n", ui.Warning("list"))
	fmt.Fprintf(r.out, "  %s           - Toggle hexadecimal display\n", ui.Warning("hex"))
	fmt.Fprintf(r.out, "  %s        - Display current configuration\n", ui.Warning("status"))
	fmt.Fprintf(r.out, "  %s          - Display this help\n", ui.Warning("help"))
	fmt.Fprintf(r.out, "  %s  - Exit interactive mode\n", ui.Warning("exit / quit"))
}

// processCommand parses and executes a user command.
// Returns false if the REPL should exit.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "calc", "c":
		r.cmdCalc(ctx, args)
	case "seq", "s":
		r.cmdSeq(args)
	case "algo", "a":
		r.cmdAlgo(args)
	case "compare", "cmp":
		r.cmdCompare(ctx, args)
	case "isfib":
		r.cmdIsFib(args)
	case "gcd":
		r.cmdGCD(args)
	case "list", "ls":
		r.cmdList()
	case "hex":
		r.cmdHex()
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintln(r.out, ui.Success("Goodbye!"))
		return false
	default:
		// A bare number is a shortcut for calc.
		if n, err := strconv.ParseInt(cmd, 10, 64); err == nil {
			r.calculate(ctx, n)
		} else {
			fmt.Fprintln(r.out, ui.Error("Unknown command: "+cmd))
			fmt.Fprintf(r.out, "Type %s to see available commands.\n", ui.Warning("help"))
		}
	}

	return true
}

func (r *REPL) usage(text string) {
	fmt.Fprintln(r.out, ui.Error("Usage: "+text))
}

func (r *REPL) printErr(err error) {
	fmt.Fprintf(r.out, "%s %v\n", ui.Error("Error:"), err)
}

func (r *REPL) parseIndex(arg string) (int64, bool) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Fprintln(r.out, ui.Error("Invalid value: "+arg))
		return 0, false
	}
	return n, true
}

func (r *REPL) cmdCalc(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.usage("calc <n>")
		return
	}
	if n, ok := r.parseIndex(args[0]); ok {
		r.calculate(ctx, n)
	}
}

// calculate computes term n with the current sequence and strategy.
func (r *REPL) calculate(ctx context.Context, n int64) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	fmt.Fprintf(r.out, "Calculating %s(%s) with %s...\n",
		r.kind.Symbol(), ui.Info(n), ui.Primary(r.strategy))

	stop := StartSpinner(r.out, "computing")
	res, err := r.svc.Term(ctx, r.kind, n, r.strategy)
	stop()
	if err != nil {
		r.printErr(err)
		return
	}

	v := res.Value
	label := fmt.Sprintf("%s(%d)", r.kind.Symbol(), v.Index())
	fmt.Fprintf(r.out, "\n%s\n", ui.Bold("Result:"))
	fmt.Fprintf(r.out, "  Time: %s\n", ui.Success(FormatExecutionDuration(res.Duration)))
	fmt.Fprintf(r.out, "  Digits: %s\n", ui.Primary(v.Digits()))
	if res.Cached {
		fmt.Fprintf(r.out, "  Cached: %s\n", ui.Primary("yes"))
	}

	text := v.String()
	switch {
	case r.config.HexOutput && v.Int() != nil:
		fmt.Fprintf(r.out, "  %s = %s\n", label, ui.Success("0x"+v.Int().Text(16)))
	case len(text) > TruncationLimit:
		short, _ := truncate(text)
		fmt.Fprintf(r.out, "  %s = %s (truncated)\n", label, ui.Success(short))
	default:
		fmt.Fprintf(r.out, "  %s = %s\n", label, ui.Success(text))
	}
	if v.PrecisionLoss() {
		fmt.Fprintln(r.out, ui.Warning("  Warning: approximate value, float64 precision exceeded"))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdSeq(args []string) {
	if len(args) == 0 {
		r.usage("seq <name>")
		return
	}
	kind, err := sequence.ParseKind(args[0])
	if err != nil {
		r.printErr(err)
		return
	}
	r.kind = kind
	fmt.Fprintf(r.out, "Sequence changed to: %s\n", ui.Success(kind))
	if !r.strategy.Supports(kind) {
		fmt.Fprintln(r.out, ui.Warning(fmt.Sprintf("Note: %s does not support %s; pick another strategy with algo.", r.strategy, kind)))
	}
}

func (r *REPL) cmdAlgo(args []string) {
	if len(args) == 0 {
		r.usage("algo <name>")
		fmt.Fprintf(r.out, "Available strategies: %s\n", strings.Join(sequence.StrategyNames(), ", "))
		return
	}
	s, err := sequence.ParseStrategy(args[0])
	if err != nil {
		r.printErr(err)
		fmt.Fprintf(r.out, "Available strategies: %s\n", strings.Join(sequence.StrategyNames(), ", "))
		return
	}
	r.strategy = s
	fmt.Fprintf(r.out, "Strategy changed to: %s\n", ui.Success(sequence.StrategyInfo(s).Title))
}

// cmdCompare runs every strategy supporting the current sequence on term n,
// one after the other, and flags results that differ from the first exact one.
func (r *REPL) cmdCompare(ctx context.Context, args []string) {
	if len(args) == 0 {
		r.usage("compare <n>")
		return
	}
	n, ok := r.parseIndex(args[0])
	if !ok {
		return
	}

	fmt.Fprintf(r.out, "\n%s\n", ui.Bold(fmt.Sprintf("Comparison for %s(%d):", r.kind.Symbol(), n)))

	var reference *big.Int
	for _, s := range sequence.Strategies() {
		if !s.Supports(r.kind) {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		res, err := r.svc.Term(cctx, r.kind, n, s)
		cancel()

		if err != nil {
			fmt.Fprintf(r.out, "  %-10s: %s\n", s, ui.Error(fmt.Sprintf("Error - %v", err)))
			continue
		}

		status := ui.Success("ok")
		v := res.Value
		switch {
		case !v.IsExact():
			if reference != nil && v.Int() != nil && v.Int().Cmp(reference) != 0 {
				status = ui.Warning("approximate, differs")
			} else {
				status = ui.Warning("approximate")
			}
		case reference == nil:
			reference = v.Int()
		case v.Int().Cmp(reference) != 0:
			status = ui.Error("INCONSISTENT")
		}
		fmt.Fprintf(r.out, "  %-10s: %12s %s\n", s, FormatExecutionDuration(res.Duration), status)
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdIsFib(args []string) {
	if len(args) == 0 {
		r.usage("isfib <x>")
		return
	}
	x, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		fmt.Fprintln(r.out, ui.Error("Invalid value: "+args[0]))
		return
	}
	DisplayMembership(r.out, service.NewMembershipRecord(x))
}

func (r *REPL) cmdGCD(args []string) {
	if len(args) < 2 {
		r.usage("gcd <a> <b>")
		return
	}
	a, okA := new(big.Int).SetString(args[0], 10)
	b, okB := new(big.Int).SetString(args[1], 10)
	if !okA || !okB {
		fmt.Fprintln(r.out, ui.Error("Invalid value: "+strings.Join(args[:2], " ")))
		return
	}
	DisplayGCD(r.out, service.NewGCDRecord(a, b))
}

func (r *REPL) cmdList() {
	fmt.Fprintf(r.out, "\n%s\n", ui.Bold("Available strategies:"))
	for _, info := range r.svc.Strategies() {
		marker := "  "
		if info.Strategy == r.strategy {
			marker = ui.Success("> ")
		}
		fmt.Fprintf(r.out, "%s%-10s - %s (%s)\n", marker, info.Name, info.Title, info.Time)
	}
	fmt.Fprintln(r.out)
}

// cmdHex toggles hexadecimal output mode.
func (r *REPL) cmdHex() {
	r.config.HexOutput = !r.config.HexOutput
	status := "disabled"
	if r.config.HexOutput {
		status = "enabled"
	}
	fmt.Fprintf(r.out, "Hexadecimal display: %s\n", ui.Success(status))
}

func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%s\n", ui.Bold("Current configuration:"))
	fmt.Fprintf(r.out, "  Sequence:     %s\n", ui.Primary(r.kind))
	fmt.Fprintf(r.out, "  Strategy:     %s\n", ui.Primary(r.strategy))
	fmt.Fprintf(r.out, "  Timeout:      %s\n", ui.Primary(r.config.Timeout))
	if limit := r.svc.MaxIndex(); limit > 0 {
		fmt.Fprintf(r.out, "  Max index:    %s\n", ui.Primary(limit))
	}
	hexStatus := "no"
	if r.config.HexOutput {
		hexStatus = "yes"
	}
	fmt.Fprintf(r.out, "  Hexadecimal:  %s\n", ui.Primary(hexStatus))
	fmt.Fprintln(r.out)
}
