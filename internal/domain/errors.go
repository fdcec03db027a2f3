// Package domain holds the value types and error vocabulary shared by every
// layer of the router: FixedMath, AmmFormulas, PoolCache, Pathfinder,
// SplitOptimizer and the Router façade all raise and propagate domain.Error.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain.Error so callers can branch on failure category
// instead of matching error strings.
type Kind int

const (
	// InvalidArgument covers negative operands, same-token swaps and
	// malformed distributions.
	InvalidArgument Kind = iota
	// InvalidAmount covers a zero or negative amount-in/out passed to a
	// formula.
	InvalidAmount
	// InsufficientLiquidity covers zero/insufficient reserves,
	// amount_out >= reserve_out, or an initial-LP floor not exceeded.
	InsufficientLiquidity
	// DivisionByZero covers a formula divisor that evaluated to zero.
	DivisionByZero
	// Overflow covers a fixed-point operation that exceeded the 128-bit
	// range.
	Overflow
	// Underflow covers a fixed-point subtraction that went negative where
	// the domain forbids it.
	Underflow
	// InvalidTokenPair covers a missing graph node or identical
	// input/output tokens.
	InvalidTokenPair
	// NoRouteFound covers pathfinding producing zero survivors.
	NoRouteFound
	// OptimizationFailed covers the split optimizer producing no viable
	// distribution.
	OptimizationFailed
	// CacheError covers a PoolDirectory or PoolSource collaborator
	// failure.
	CacheError
	// InvalidConfiguration covers out-of-range router configuration or a
	// missing required field.
	InvalidConfiguration
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidAmount:
		return "InvalidAmount"
	case InsufficientLiquidity:
		return "InsufficientLiquidity"
	case DivisionByZero:
		return "DivisionByZero"
	case Overflow:
		return "Overflow"
	case Underflow:
		return "Underflow"
	case InvalidTokenPair:
		return "InvalidTokenPair"
	case NoRouteFound:
		return "NoRouteFound"
	case OptimizationFailed:
		return "OptimizationFailed"
	case CacheError:
		return "CacheError"
	case InvalidConfiguration:
		return "InvalidConfiguration"
	default:
		return "Unknown"
	}
}

// Error is the single error type raised anywhere in the router. Op names the
// failing operation (e.g. "fixedmath.mul_div_down", "pathfinder.find_best_route")
// so a log line is useful without needing to inspect the call stack.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, domain.Kind) style checks by comparing kinds when
// the target is itself a *Error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NewError builds a *Error for op/kind with a formatted message.
func NewError(op string, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError builds a *Error for op/kind around an underlying cause, used to
// surface PoolDirectory/PoolSource transport failures as CacheError.
func WrapError(op string, kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, returning
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
