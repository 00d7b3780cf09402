package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/phicalc/internal/convergence"
	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/logging"
	"github.com/agbru/phicalc/internal/numtheory"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/service"
	"github.com/agbru/phicalc/pkg/models"
)

// maxOperandDigits bounds the decimal length of the gcd and isfib operands.
const maxOperandDigits = 10_000

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	})
}

// handleStrategies lists the computation strategies and the sequences each
// one supports.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"strategies": service.NewStrategyRecords(s.service.Strategies()),
	})
}

// handleTerm computes a single term. Query parameters:
//   - n (required): the index.
//   - seq: the sequence, defaults to the configured one.
//   - strategy: the strategy name or alias, defaults to the configured one.
func (s *Server) handleTerm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	n, err := parseInt(q, "n", true, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := s.parseKind(q.Get("seq"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	strategy, err := s.parseStrategy(q.Get("strategy"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.computeContext(r)
	defer cancel()

	res, err := s.service.Term(ctx, kind, n, strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, service.NewTermRecord(kind, strategy, res))
}

// handleSequence lists the first count terms, with ratios when ratios=true.
func (s *Server) handleSequence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	count, err := parseInt(q, "count", true, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := s.parseKind(q.Get("seq"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	withRatios, err := parseBool(q, "ratios")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.computeContext(r)
	defer cancel()

	terms, err := s.service.Terms(ctx, kind, count)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, service.NewSequenceRecord(kind, terms, withRatios))
}

// handleConvergence returns the ratio samples term(i+1)/term(i) for
// i = from..n. from defaults to the first index with a non-zero term.
func (s *Server) handleConvergence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	n, err := parseInt(q, "n", true, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := s.parseKind(q.Get("seq"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, err := parseInt(q, "from", false, convergence.DefaultFrom(kind))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkMaxIndex(n); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.computeContext(r)
	defer cancel()

	var samples []convergence.Sample
	if strings.TrimSpace(q.Get("from")) != "" {
		samples, err = convergence.AnalyzeRange(ctx, kind, from, n)
	} else {
		samples, err = convergence.AnalyzeUpTo(ctx, kind, n)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, service.NewConvergenceRecord(kind, samples))
}

// handlePrimes lists the Fibonacci primes F(i) with i <= bound.
func (s *Server) handlePrimes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	bound, err := parseInt(r.URL.Query(), "bound", true, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.computeContext(r)
	defer cancel()

	primes, err := numtheory.FibonacciPrimes(ctx, bound)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, service.NewPrimesRecord(bound, primes))
}

// handleGCD runs Euclid's algorithm on a and b.
func (s *Server) handleGCD(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	a, err := parseNatural(q, "a")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := parseNatural(q, "b")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, service.NewGCDRecord(a, b))
}

// handleIsFib reports whether x is a Fibonacci number, with its index.
func (s *Server) handleIsFib(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	x, err := parseBigInt(r.URL.Query(), "x")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, service.NewMembershipRecord(x))
}

// computeContext bounds a computation by the request timeout and by the
// client connection.
func (s *Server) computeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeouts.Request)
}

func (s *Server) parseKind(name string) (sequence.Kind, error) {
	if name == "" {
		name = s.cfg.Sequence
	}
	return sequence.ParseKind(name)
}

func (s *Server) parseStrategy(name string) (sequence.Strategy, error) {
	if name == "" {
		name = s.cfg.Strategy
	}
	return sequence.ParseStrategy(name)
}

func (s *Server) checkMaxIndex(n int64) error {
	if limit := s.service.MaxIndex(); limit > 0 && n > 0 && uint64(n) > limit {
		return fmt.Errorf("index %d is above the limit %d: %w", n, limit, service.ErrMaxValueExceeded)
	}
	return nil
}

// parseInt reads an integer query parameter. A missing optional parameter
// yields def. Negative values are passed through so that the callee reports
// them with its own message.
func parseInt(q url.Values, name string, required bool, def int64) (int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		if required {
			return 0, apperrors.NewValidationError(name, "parameter is required", nil)
		}
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name, fmt.Sprintf("must be an integer, got %q", raw), raw)
	}
	return v, nil
}

func parseBool(q url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(name, fmt.Sprintf("must be a boolean, got %q", raw), raw)
	}
	return v, nil
}

// parseBigInt reads a required integer of arbitrary size and either sign.
func parseBigInt(q url.Values, name string) (*big.Int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, apperrors.NewValidationError(name, "parameter is required", nil)
	}
	if len(strings.TrimLeft(raw, "+-")) > maxOperandDigits {
		return nil, apperrors.NewValidationError(name, fmt.Sprintf("must have at most %d digits", maxOperandDigits), nil)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, apperrors.NewValidationError(name, fmt.Sprintf("must be an integer, got %q", raw), raw)
	}
	return v, nil
}

// parseNatural is parseBigInt restricted to non-negative values.
func parseNatural(q url.Values, name string) (*big.Int, error) {
	v, err := parseBigInt(q, name)
	if err != nil {
		return nil, err
	}
	if v.Sign() < 0 {
		return nil, apperrors.NewValidationError(name, "must be non-negative", v.String())
	}
	return v, nil
}

// statusFor maps an error to the HTTP status of its class.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrUnsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status of its class. Internal errors are
// logged and their message is not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		s.logger.Error("request failed", err, logging.String("request_id", RequestID(r.Context())))
		msg = "internal error"
	case http.StatusGatewayTimeout:
		msg = "computation timed out"
	}
	s.writeErrorResponse(w, code, msg)
}

// writeJSONResponse encodes data as JSON with the given status.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	if err := writeJSON(w, statusCode, data); err != nil {
		s.logger.Error("failed to encode response", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
