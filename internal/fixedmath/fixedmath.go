// Package fixedmath implements the checked, 128-bit-domain integer
// arithmetic every AMM formula resolves to (§4.1). Operands are carried as
// *big.Int at the package boundary, matching how the rest of the router and
// its collaborators represent reserves and amounts, but the actual checked
// multiply/divide/sqrt is done on a 256-bit accumulator so that the full
// product of two 128-bit operands never silently wraps.
package fixedmath

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/ammrouter/quoter/internal/domain"
)

// BPSDenom is one whole (100%) expressed in basis points.
const BPSDenom = domain.BPSDenom

// MinInitialLiquidity is the permanently unissued floor subtracted from the
// first LP mint (dead shares), preventing a pool from being drained to a
// single wei of supply.
const MinInitialLiquidity = 1_000

// DefaultDeadlineSecs is the default transaction deadline collaborators
// outside this core (transaction building, §1) should use when none is
// supplied.
const DefaultDeadlineSecs = 1_800

// maxDomainBits bounds every FixedMath operand to the spec's "128-bit
// signed" domain: magnitudes must fit in 127 bits so that two operands
// multiplied together always fit the 256-bit accumulator used below.
const maxDomainBits = 127

func toUint256(op string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, domain.NewError(op, domain.InvalidArgument, "operand is nil")
	}
	if v.Sign() < 0 {
		return nil, domain.NewError(op, domain.InvalidArgument, "operand must be non-negative, got %s", v.String())
	}
	if v.BitLen() > maxDomainBits {
		return nil, domain.NewError(op, domain.Overflow, "operand %s exceeds the 128-bit signed domain", v.String())
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, domain.NewError(op, domain.Overflow, "operand %s does not fit in 256 bits", v.String())
	}
	return u, nil
}

// MulDivDown computes floor((a*b)/c).
func MulDivDown(a, b, c *big.Int) (*big.Int, error) {
	const op = "fixedmath.mul_div_down"
	q, _, err := mulDiv(op, a, b, c)
	if err != nil {
		return nil, err
	}
	return q.ToBig(), nil
}

// MulDivUp computes ceil((a*b)/c).
func MulDivUp(a, b, c *big.Int) (*big.Int, error) {
	const op = "fixedmath.mul_div_up"
	q, r, err := mulDiv(op, a, b, c)
	if err != nil {
		return nil, err
	}
	if !r.IsZero() {
		q = new(uint256.Int).AddUint64(q, 1)
	}
	return q.ToBig(), nil
}

// mulDiv computes the floor quotient and remainder of (a*b)/c on a 256-bit
// accumulator. Every FixedMath caller passes operands bounded to 128 bits
// (see maxDomainBits), so a*b always fits in 256 bits and MulOverflow never
// actually trips in correct use; the check stays as the defensive boundary
// the spec calls for ("must handle the full product a*b without overflow").
func mulDiv(op string, a, b, c *big.Int) (quotient, remainder *uint256.Int, err error) {
	ua, err := toUint256(op, a)
	if err != nil {
		return nil, nil, err
	}
	ub, err := toUint256(op, b)
	if err != nil {
		return nil, nil, err
	}
	uc, err := toUint256(op, c)
	if err != nil {
		return nil, nil, err
	}
	if uc.IsZero() {
		return nil, nil, domain.NewError(op, domain.DivisionByZero, "divisor is zero")
	}

	prod, overflow := new(uint256.Int).MulOverflow(ua, ub)
	if overflow {
		return nil, nil, domain.NewError(op, domain.Overflow, "a*b overflows the 256-bit accumulator")
	}

	quotient = new(uint256.Int)
	remainder = new(uint256.Int)
	quotient.DivMod(prod, uc, remainder)
	return quotient, remainder, nil
}

// Sqrt returns the integer floor of the square root of v.
func Sqrt(v *big.Int) (*big.Int, error) {
	const op = "fixedmath.sqrt"
	if v == nil {
		return nil, domain.NewError(op, domain.InvalidArgument, "operand is nil")
	}
	if v.Sign() < 0 {
		return nil, domain.NewError(op, domain.InvalidArgument, "cannot take sqrt of negative %s", v.String())
	}
	if v.Sign() == 0 {
		return big.NewInt(0), nil
	}
	uv, overflow := uint256.FromBig(v)
	if overflow {
		return nil, domain.NewError(op, domain.Overflow, "operand %s does not fit in 256 bits", v.String())
	}
	return new(uint256.Int).Sqrt(uv).ToBig(), nil
}

// K computes the constant-product invariant r0*r1, overflow-checked and
// rejecting negative reserves.
func K(r0, r1 *big.Int) (*big.Int, error) {
	const op = "fixedmath.k"
	ur0, err := toUint256(op, r0)
	if err != nil {
		return nil, err
	}
	ur1, err := toUint256(op, r1)
	if err != nil {
		return nil, err
	}
	prod, overflow := new(uint256.Int).MulOverflow(ur0, ur1)
	if overflow {
		return nil, domain.NewError(op, domain.Overflow, "r0*r1 overflows the 256-bit accumulator")
	}
	return prod.ToBig(), nil
}

// VerifyK reports whether new0*new1 >= old0*old1, the invariant every swap
// must preserve.
func VerifyK(new0, new1, old0, old1 *big.Int) (bool, error) {
	const op = "fixedmath.verify_k"
	newK, err := K(new0, new1)
	if err != nil {
		return false, err
	}
	oldK, err := K(old0, old1)
	if err != nil {
		return false, err
	}
	return newK.Cmp(oldK) >= 0, nil
}
