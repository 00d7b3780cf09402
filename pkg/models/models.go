/*
Package models defines the JSON records shared by the HTTP API and the
command-line front end (--json).

Integers are transported as base-10 strings: sequence terms outgrow every JSON
number type long before they outgrow the engine.
*/
package models

// TermRecord is a single computed term.
type TermRecord struct {
	Sequence      string `json:"sequence"`
	Strategy      string `json:"strategy"`
	N             uint64 `json:"n"`
	Result        string `json:"result"`
	Digits        int    `json:"digits"`
	Exact         bool   `json:"exact"`
	PrecisionLoss bool   `json:"precision_loss"`
	Cached        bool   `json:"cached,omitempty"`
	Duration      string `json:"duration"`
}

// SequenceRecord lists the first Count terms of a sequence.
type SequenceRecord struct {
	Sequence string   `json:"sequence"`
	Count    int64    `json:"count"`
	Terms    []string `json:"terms"`
	// Ratios holds term(i)/term(i-1) for i >= 1 when requested; a null entry
	// marks a zero denominator.
	Ratios []*float64 `json:"ratios,omitempty"`
}

// ConvergenceSample is one ratio term(i+1)/term(i) and its distance to the
// limit.
type ConvergenceSample struct {
	Index uint64  `json:"index"`
	Ratio float64 `json:"ratio"`
	Error float64 `json:"error"`
}

// ConvergenceRecord is the result of a convergence analysis.
type ConvergenceRecord struct {
	Sequence string              `json:"sequence"`
	Limit    float64             `json:"limit"`
	Samples  []ConvergenceSample `json:"samples"`
}

// FibPrime is a prime Fibonacci number with its index.
type FibPrime struct {
	Index uint64 `json:"index"`
	Value uint64 `json:"value"`
}

// PrimesRecord lists the Fibonacci primes with index <= Bound.
type PrimesRecord struct {
	Bound  int64      `json:"bound"`
	Primes []FibPrime `json:"primes"`
}

// GCDRecord is the outcome of Euclid's algorithm with its step count.
type GCDRecord struct {
	A     string `json:"a"`
	B     string `json:"b"`
	GCD   string `json:"gcd"`
	Steps int    `json:"steps"`
}

// MembershipRecord reports whether Value is a Fibonacci number.
type MembershipRecord struct {
	Value       string  `json:"value"`
	IsFibonacci bool    `json:"is_fibonacci"`
	Index       *uint64 `json:"index,omitempty"`
}

// StrategyRecord describes one computation strategy.
type StrategyRecord struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Title     string   `json:"title"`
	Time      string   `json:"time"`
	Space     string   `json:"space"`
	Exact     bool     `json:"exact"`
	Sequences []string `json:"sequences"`
}

// ComparisonEntry is one strategy's row in a comparison.
type ComparisonEntry struct {
	Strategy      string `json:"strategy"`
	Result        string `json:"result,omitempty"`
	Duration      string `json:"duration"`
	PrecisionLoss bool   `json:"precision_loss,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ComparisonRecord is the outcome of running several strategies on one term.
type ComparisonRecord struct {
	Sequence   string            `json:"sequence"`
	N          uint64            `json:"n"`
	Consistent bool              `json:"consistent"`
	Entries    []ComparisonEntry `json:"entries"`
}

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// NthRecord is the report for a single index: F(n), L(n) and, for n >= 1,
// the ratio F(n+1)/F(n) with its distance to φ.
type NthRecord struct {
	N               uint64   `json:"n"`
	Fibonacci       string   `json:"fibonacci"`
	FibonacciDigits int      `json:"fibonacci_digits"`
	Lucas           string   `json:"lucas"`
	LucasDigits     int      `json:"lucas_digits"`
	Ratio           *float64 `json:"ratio,omitempty"`
	RatioError      *float64 `json:"ratio_error,omitempty"`
}

// ConstantRecord is a named golden-ratio constant.
type ConstantRecord struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// IdentityRecord is an identity of φ and its float64 residual.
type IdentityRecord struct {
	Identity string  `json:"identity"`
	Residual float64 `json:"residual"`
}

// ConstantsRecord lists the golden-ratio constants and identities.
type ConstantsRecord struct {
	Constants  []ConstantRecord `json:"constants"`
	Identities []IdentityRecord `json:"identities"`
}
