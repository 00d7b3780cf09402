package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// HexOutput displays the result in hexadecimal format.
	HexOutput bool
	// Quiet mode prints the bare value only.
	Quiet bool
	// Verbose shows the full result value instead of a truncated one.
	Verbose bool
}

// DisplayTerm prints a computed term with its metadata. Values longer than
// TruncationLimit digits are shortened unless cfg.Verbose is set.
//
// Parameters:
//   - out: The output writer.
//   - kind: The sequence the term belongs to.
//   - s: The strategy that produced it.
//   - res: The computed term.
//   - cfg: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplayTerm(out io.Writer, kind sequence.Kind, s sequence.Strategy, res service.TermResult, cfg OutputConfig) error {
	v := res.Value
	if cfg.Quiet {
		DisplayQuietResult(out, v, cfg.HexOutput)
	} else {
		fmt.Fprintf(out, "%s\n", ui.Heading("Calculated value"))
		label := fmt.Sprintf("%s(%d)", kind.Symbol(), v.Index())

		text := v.String()
		if cfg.HexOutput && v.Int() != nil {
			text = "0x" + v.Int().Text(16)
		}
		truncated := false
		if !cfg.Verbose {
			text, truncated = truncate(text)
		}
		fmt.Fprintf(out, "%s = %s\n", label, ui.Success(text))
		if truncated {
			fmt.Fprintf(out, "(use --verbose to display all %d digits)\n", v.Digits())
		}

		details := fmt.Sprintf("Strategy: %s | Digits: %d | Time: %s",
			s, v.Digits(), FormatExecutionDuration(res.Duration))
		if res.Cached {
			details += " | cached"
		}
		fmt.Fprintln(out, ui.Secondary(details))

		if !v.IsExact() {
			if v.PrecisionLoss() {
				fmt.Fprintln(out, ui.Warning(fmt.Sprintf(
					"Warning: %s exceeds the float64 precision of the closed form; the value is approximate.", label)))
			} else {
				fmt.Fprintln(out, ui.Info("Note: computed in float64 and rounded."))
			}
		}
	}

	if cfg.OutputFile != "" {
		if err := WriteResultToFile(kind, s, res, cfg); err != nil {
			return err
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "%s %s\n", ui.Success("Result saved to:"), ui.Info(cfg.OutputFile))
		}
	}
	return nil
}

// FormatQuietResult formats a value for quiet mode output: the decimal
// value, or 0x-prefixed hexadecimal for exact values when hexOutput is set.
func FormatQuietResult(v sequence.Value, hexOutput bool) string {
	if hexOutput && v.Int() != nil {
		return "0x" + v.Int().Text(16)
	}
	return v.String()
}

// DisplayQuietResult outputs a value in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, v sequence.Value, hexOutput bool) {
	fmt.Fprintln(out, FormatQuietResult(v, hexOutput))
}

// WriteResultToFile writes a computed term to cfg.OutputFile with a small
// commented header.
//
// Parameters:
//   - kind: The sequence the term belongs to.
//   - s: The strategy that produced it.
//   - res: The computed term.
//   - cfg: Output configuration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultToFile(kind sequence.Kind, s sequence.Strategy, res service.TermResult, cfg OutputConfig) error {
	if cfg.OutputFile == "" {
		return nil
	}

	dir := filepath.Dir(cfg.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	v := res.Value
	fmt.Fprintf(file, "# %s term\n", kind)
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Strategy: %s\n", s)
	fmt.Fprintf(file, "# Duration: %s\n", res.Duration)
	fmt.Fprintf(file, "# N: %d\n", v.Index())
	fmt.Fprintf(file, "# Digits: %d\n", v.Digits())
	fmt.Fprintf(file, "# Exact: %t\n", v.IsExact())
	fmt.Fprintf(file, "\n")

	if cfg.HexOutput && v.Int() != nil {
		fmt.Fprintf(file, "%s(%d) [hex] =\n0x%s\n", kind.Symbol(), v.Index(), v.Int().Text(16))
	} else {
		fmt.Fprintf(file, "%s(%d) =\n%s\n", kind.Symbol(), v.Index(), v)
	}
	return file.Close()
}

// WriteJSON encodes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
