package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/phicalc/internal/cache"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/testutil"
	"github.com/agbru/phicalc/pkg/models"
)

// The tests in this file are not parallel: the theme and the environment are
// process-wide.

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, input string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := New(strings.NewReader(input), &out, &errOut)
	code = a.Execute(context.Background(), append([]string{"--no-color"}, args...))
	return testutil.StripAnsiCodes(out.String()), testutil.StripAnsiCodes(errOut.String()), code
}

func runJSON[T any](t *testing.T, args ...string) T {
	t.Helper()
	stdout, stderr, code := run(t, append(args, "--json")...)
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	var v T
	require.NoError(t, json.Unmarshal([]byte(stdout), &v), stdout)
	return v
}

func TestTermCommand(t *testing.T) {
	stdout, stderr, code := run(t, "term", "10")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "F(10) = 55")
	assert.Contains(t, stdout, "Strategy: doubling")

	term := runJSON[models.TermRecord](t, "term", "10", "--seq", "lucas", "--strategy", "matrix")
	assert.Equal(t, "123", term.Result)
	assert.Equal(t, "lucas", term.Sequence)
	assert.Equal(t, "matrix", term.Strategy)
	assert.True(t, term.Exact)

	binet := runJSON[models.TermRecord](t, "term", "100", "--strategy", "binet")
	assert.True(t, binet.PrecisionLoss)
}

func TestErrorsAndExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"non-integer index", []string{"term", "abc"}, apperrors.ExitErrorInvalidArgument},
		{"negative index", []string{"term", "--", "-1"}, apperrors.ExitErrorInvalidArgument},
		{"negative count", []string{"fib", "--", "-1"}, apperrors.ExitErrorInvalidArgument},
		{"missing argument", []string{"term"}, apperrors.ExitErrorInvalidArgument},
		{"naive above its limit", []string{"term", "200", "--strategy", "naive"}, apperrors.ExitErrorInvalidArgument},
		{"unsupported pair", []string{"term", "5", "--seq", "tribonacci", "--strategy", "binet"}, apperrors.ExitErrorUnsupported},
		{"explicit unsupported strategy", []string{"tribonacci", "9", "--strategy", "doubling"}, apperrors.ExitErrorUnsupported},
		{"unknown strategy", []string{"term", "5", "--strategy", "fft"}, apperrors.ExitErrorConfig},
		{"unknown sequence", []string{"seq", "pell", "5"}, apperrors.ExitErrorInvalidArgument},
		{"invalid flag value", []string{"term", "5", "--timeout", "soon"}, apperrors.ExitErrorConfig},
		{"unknown flag", []string{"term", "5", "--fast"}, apperrors.ExitErrorConfig},
		{"zero timeout", []string{"term", "5", "--timeout", "0s"}, apperrors.ExitErrorConfig},
		{"timeout", []string{"term", "100000000", "--strategy", "iterative", "--timeout", "1ms"}, apperrors.ExitErrorTimeout},
		{"primes bound too large", []string{"primes", "94"}, apperrors.ExitErrorInvalidArgument},
		{"gcd operand", []string{"gcd", "x", "2"}, apperrors.ExitErrorInvalidArgument},
		{"undefined ratio", []string{"convergence", "5", "--seq", "tribonacci", "--from", "0"}, apperrors.ExitErrorInvalidArgument},
		{"negative gcd operand", []string{"gcd", "--", "-4", "2"}, apperrors.ExitErrorInvalidArgument},
		{"largest count", []string{"fib", "9223372036854775807", "--quiet", "--timeout", "20ms"}, apperrors.ExitErrorTimeout},
		{"widest convergence", []string{"convergence", "9223372036854775807", "--quiet", "--timeout", "20ms"}, apperrors.ExitErrorTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := run(t, tt.args...)
			assert.Equal(t, tt.code, code, "stdout: %s\nstderr: %s", stdout, stderr)
			assert.True(t, strings.HasPrefix(stderr, "Error: "), "stderr: %q", stderr)
			assert.Equal(t, 1, strings.Count(stderr, "\n"), "error must fit on one line: %q", stderr)
		})
	}
}

func TestFixedTermCommands(t *testing.T) {
	stdout, _, code := run(t, "lucas", "10", "-q")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "123\n", stdout)

	// doubling has no Tribonacci definition: the command falls back to matrix.
	term := runJSON[models.TermRecord](t, "tribonacci", "9")
	assert.Equal(t, "44", term.Result)
	assert.Equal(t, "matrix", term.Strategy)
}

func TestTermOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f100.txt")
	stdout, stderr, code := run(t, "term", "100", "-o", path)
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Result saved to: "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "354224848179261915075")
}

func TestListCommands(t *testing.T) {
	stdout, _, code := run(t, "seq", "lucas", "5", "-q")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "2\n1\n3\n4\n7\n", stdout)

	rec := runJSON[models.SequenceRecord](t, "fib", "10", "--ratios")
	assert.Equal(t, []string{"0", "1", "1", "2", "3", "5", "8", "13", "21", "34"}, rec.Terms)
	require.Len(t, rec.Ratios, 9)
	assert.Nil(t, rec.Ratios[0])
	require.NotNil(t, rec.Ratios[8])
	assert.InDelta(t, 34.0/21.0, *rec.Ratios[8], 1e-15)

	stdout, _, code = run(t, "fib", "10", "--ratios")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "34")
}

func TestReportCommands(t *testing.T) {
	stdout, _, code := run(t, "nth", "10")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "F(10) = 55")
	assert.Contains(t, stdout, "L(10) = 123")
	assert.Contains(t, stdout, "F(11)/F(10)")

	stdout, _, code = run(t, "info")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "phi")
	assert.Contains(t, stdout, "1.618033988749895")
	assert.Contains(t, stdout, "phi^2 = phi + 1")

	consts := runJSON[models.ConstantsRecord](t, "info")
	assert.Len(t, consts.Identities, 2)
}

func TestConvergenceCommand(t *testing.T) {
	rec := runJSON[models.ConvergenceRecord](t, "convergence", "5")
	require.Len(t, rec.Samples, 5)
	assert.Equal(t, uint64(1), rec.Samples[0].Index)
	assert.Equal(t, uint64(5), rec.Samples[4].Index)

	trib := runJSON[models.ConvergenceRecord](t, "convergence", "10", "--seq", "tribonacci")
	assert.Equal(t, uint64(2), trib.Samples[0].Index)
	assert.InDelta(t, 1.839286755214161, trib.Limit, 1e-12)

	empty := runJSON[models.ConvergenceRecord](t, "convergence", "0")
	assert.Empty(t, empty.Samples)
	empty = runJSON[models.ConvergenceRecord](t, "convergence", "1", "--seq", "tribonacci")
	assert.Empty(t, empty.Samples)
}

func TestNumberTheoryCommands(t *testing.T) {
	primes := runJSON[models.PrimesRecord](t, "primes", "15")
	var values []uint64
	for _, p := range primes.Primes {
		values = append(values, p.Value)
	}
	assert.Equal(t, []uint64{2, 3, 5, 13, 89, 233}, values)

	stdout, _, code := run(t, "gcd", "1071", "462")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "gcd(1071, 462) = 21")

	stdout, _, code = run(t, "isfib", "144")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "144 is a Fibonacci number (F(12))")

	stdout, _, code = run(t, "isfib", "4", "-q")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "false\n", stdout)

	stdout, _, code = run(t, "isfib", "-q", "--", "-8")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "false\n", stdout, "negative values are never Fibonacci numbers")
}

func TestCompareCommand(t *testing.T) {
	stdout, stderr, code := run(t, "compare", "60")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Comparison Summary")
	assert.Contains(t, stdout, "Success. All valid results are consistent.")

	// The closed form drifts beyond its safe index; that is not a failure.
	rec := runJSON[models.ComparisonRecord](t, "compare", "100", "--strategies", "iterative,binet,doubling")
	assert.Len(t, rec.Entries, 3)
	assert.Equal(t, uint64(100), rec.N)

	lucas := runJSON[models.ComparisonRecord](t, "compare", "30", "--seq", "lucas")
	assert.True(t, lucas.Consistent)
	assert.Len(t, lucas.Entries, 4)
}

func TestStrategiesAndVersion(t *testing.T) {
	recs := runJSON[[]models.StrategyRecord](t, "strategies")
	assert.Len(t, recs, len(sequence.Strategies()))

	stdout, _, code := run(t, "strategies")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "Fast doubling")

	stdout, _, code = run(t, "version")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "phicalc "+CurrentBuild().Version)

	stdout, _, code = run(t, "--version")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "phicalc "+CurrentBuild().Version+" (commit:")

	stdout, _, code = run(t)
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "Usage:")

	stdout, _, code = run(t, "completion", "bash")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, stdout, "bash completion")
}

func TestConfigurationPrecedence(t *testing.T) {
	t.Setenv("PHICALC_SEQUENCE", "lucas")

	stdout, _, code := run(t, "term", "10", "-q")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "123\n", stdout, "environment overrides the default")

	stdout, _, code = run(t, "term", "10", "-q", "--seq", "fibonacci")
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "55\n", stdout, "flags override the environment")

	path := filepath.Join(t.TempDir(), "phicalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sequence: tribonacci\nstrategy: matrix\n"), 0o600))
	term := runJSON[models.TermRecord](t, "term", "9", "--config", path)
	assert.Equal(t, "lucas", term.Sequence, "environment overrides the file")
	assert.Equal(t, "matrix", term.Strategy)

	t.Setenv("PHICALC_TIMEOUT", "later")
	_, stderr, code := run(t, "term", "10")
	assert.Equal(t, apperrors.ExitErrorConfig, code)
	assert.Contains(t, stderr, "PHICALC_TIMEOUT")
}

func TestRedisTermCache(t *testing.T) {
	mr := miniredis.RunT(t)

	first := runJSON[models.TermRecord](t, "term", "300", "--redis-addr", mr.Addr())
	assert.False(t, first.Cached)
	assert.True(t, mr.Exists(cache.Key(sequence.Fibonacci, 300)))

	second := runJSON[models.TermRecord](t, "term", "300", "--redis-addr", mr.Addr(), "--strategy", "matrix")
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)

	// An unreachable cache never fails a command.
	addr := mr.Addr()
	mr.Close()
	third := runJSON[models.TermRecord](t, "term", "300", "--redis-addr", addr)
	assert.False(t, third.Cached)
	assert.Equal(t, first.Result, third.Result)
}

func TestREPLCommand(t *testing.T) {
	stdout, stderr, code := runWithInput(t, "calc 10\nseq lucas\n10\nexit\n", "repl")
	require.Equal(t, apperrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "F(10) = 55")
	assert.Contains(t, stdout, "L(10) = 123")
	assert.Contains(t, stdout, "Goodbye!")
}

// lockedBuffer is a bytes.Buffer safe for the concurrent writes of the server logger.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServeCommand(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	logs := &lockedBuffer{}
	a := New(strings.NewReader(""), io.Discard, logs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- a.Execute(ctx, []string{"serve", "--port", fmt.Sprint(port), "--max-index", "500", "--no-color"})
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/term?n=501")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "--max-index bounds the API")

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, apperrors.ExitSuccess, code, logs.String())
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, logs.String(), "starting server")
}
