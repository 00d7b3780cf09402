package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/agbru/phicalc/internal/convergence"
	"github.com/agbru/phicalc/internal/numtheory"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/internal/ui"
	"github.com/agbru/phicalc/pkg/models"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// DisplayTerms prints one term per line; withRatios adds the ratio of each
// term to its predecessor, "-" marking an undefined ratio.
func DisplayTerms(out io.Writer, kind sequence.Kind, terms []*big.Int, withRatios bool) {
	fmt.Fprintf(out, "%s\n", ui.Heading(fmt.Sprintf("First %d %s terms", len(terms), kind)))
	if len(terms) == 0 {
		return
	}
	tw := newTable(out)
	if withRatios {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", "n", "Value", "Ratio")
	} else {
		fmt.Fprintf(tw, "%s\t%s\t\n", "n", "Value")
	}
	for i, t := range terms {
		text, _ := truncate(t.String())
		if !withRatios {
			fmt.Fprintf(tw, "%d\t%s\t\n", i, text)
			continue
		}
		ratio := "-"
		if i > 0 {
			if r, ok := service.Ratio(t, terms[i-1]); ok {
				ratio = fmt.Sprintf("%.15f", r)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", i, text, ratio)
	}
	tw.Flush()
}

// DisplayConvergence prints the ratio and error of each sample.
func DisplayConvergence(out io.Writer, kind sequence.Kind, samples []convergence.Sample) {
	limit := kind.Limit(sequence.DefaultPrecision)
	fmt.Fprintf(out, "%s\n", ui.Heading(fmt.Sprintf("%s ratio convergence", kind)))
	fmt.Fprintf(out, "Limit: %s\n\n", ui.Primary(limit.Text('f', 20)))

	tw := newTable(out)
	fmt.Fprintf(tw, "%s\t%s\t%s\t\n", "i", "Ratio", "Error")
	sym := kind.Symbol()
	for _, s := range samples {
		fmt.Fprintf(tw, "%s(%d)/%s(%d)\t%.15f\t%.3e\t\n", sym, s.Index+1, sym, s.Index, s.Ratio, s.Error)
	}
	tw.Flush()
}

// DisplayPrimes prints the Fibonacci primes with their indices.
func DisplayPrimes(out io.Writer, bound int64, primes []numtheory.FibPrime) {
	fmt.Fprintf(out, "%s\n", ui.Heading(fmt.Sprintf("Fibonacci primes up to F(%d)", bound)))
	if len(primes) == 0 {
		fmt.Fprintln(out, ui.Secondary("none"))
		return
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "%s\t%s\t\n", "n", "F(n)")
	for _, p := range primes {
		fmt.Fprintf(tw, "%d\t%d\t\n", p.Index, p.Value)
	}
	tw.Flush()
}

// DisplayGCD prints the outcome of Euclid's algorithm.
func DisplayGCD(out io.Writer, rec models.GCDRecord) {
	fmt.Fprintf(out, "gcd(%s, %s) = %s\n", rec.A, rec.B, ui.Success(rec.GCD))
	fmt.Fprintf(out, "Steps: %s\n", ui.Primary(rec.Steps))
}

// DisplayMembership prints whether a value is a Fibonacci number.
func DisplayMembership(out io.Writer, rec models.MembershipRecord) {
	if !rec.IsFibonacci {
		fmt.Fprintf(out, "%s is %s a Fibonacci number\n", rec.Value, ui.Error("not"))
		return
	}
	fmt.Fprintf(out, "%s %s a Fibonacci number", rec.Value, ui.Success("is"))
	if rec.Index != nil {
		fmt.Fprintf(out, " (F(%d))", *rec.Index)
	}
	fmt.Fprintln(out)
}

// DisplayStrategies prints the strategy table.
func DisplayStrategies(out io.Writer, infos []sequence.Info) {
	fmt.Fprintf(out, "%s\n", ui.Heading("Strategies"))
	tw := newTable(out)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		"Name", "Description", "Time",
		"Space", "Exact", "Sequences")
	for _, info := range infos {
		kinds := make([]string, len(info.Kinds))
		for i, k := range info.Kinds {
			kinds[i] = k.String()
		}
		exact := "yes"
		if !info.Exact {
			exact = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			info.Name, info.Title, info.Time, info.Space, exact, strings.Join(kinds, ", "))
	}
	tw.Flush()
}

// DisplayConstants prints the golden-ratio constants and identities.
func DisplayConstants(out io.Writer, rec models.ConstantsRecord) {
	fmt.Fprintf(out, "%s\n", ui.Heading("Golden ratio"))
	tw := newTable(out)
	for _, c := range rec.Constants {
		fmt.Fprintf(tw, "%s\t%.15f\n", c.Name, c.Value)
	}
	tw.Flush()

	fmt.Fprintf(out, "\n%s\n", ui.Heading("Identities"))
	tw = newTable(out)
	for _, id := range rec.Identities {
		fmt.Fprintf(tw, "%s\tresidual %.3e\n", id.Identity, id.Residual)
	}
	tw.Flush()
}

// DisplayNthReport prints F(n), L(n) and the ratio F(n+1)/F(n).
func DisplayNthReport(out io.Writer, rec models.NthRecord, verbose bool) {
	show := func(s string) string {
		if verbose {
			return s
		}
		t, _ := truncate(s)
		return t
	}
	fmt.Fprintf(out, "%s\n", ui.Heading(fmt.Sprintf("n = %d", rec.N)))
	fmt.Fprintf(out, "F(%d) = %s %s\n", rec.N, ui.Success(show(rec.Fibonacci)),
		ui.Secondary(fmt.Sprintf("(%s digits)", formatNumberString(fmt.Sprint(rec.FibonacciDigits)))))
	fmt.Fprintf(out, "L(%d) = %s %s\n", rec.N, ui.Success(show(rec.Lucas)),
		ui.Secondary(fmt.Sprintf("(%s digits)", formatNumberString(fmt.Sprint(rec.LucasDigits)))))
	if rec.Ratio != nil {
		fmt.Fprintf(out, "F(%d)/F(%d) = %.15f, |ratio - phi| = %s\n",
			rec.N+1, rec.N, *rec.Ratio, ui.Info(fmt.Sprintf("%.3e", *rec.RatioError)))
	}
}
