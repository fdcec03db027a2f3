package domain

import "math/big"

// BPSDenom is one whole (100%) expressed in basis points.
const BPSDenom = 10_000

// DefaultFeeBps is the fee charged by a pool that doesn't specify one
// explicitly: 0.30%, the constant-product AMM standard.
const DefaultFeeBps = 30

// PoolSnapshot is a value object describing a single liquidity pool's public
// state at the moment it was captured. It is owned by whichever CacheEntry
// holds it; every copy handed to a caller is independent (four integers and
// three identifiers, cheap to copy).
type PoolSnapshot struct {
	PoolID     PoolId
	TokenA     TokenId
	TokenB     TokenId
	ReserveA   *big.Int
	ReserveB   *big.Int
	FeeBps     uint32
	CapturedAt int64 // milliseconds, per the Clock collaborator
}

// Validate checks the invariants from §3: non-negative reserves, fee within
// [0, BPSDenom], and distinct tokens. It does not enforce canonical token
// order — callers construct a PoolSnapshot with tokens in whatever order the
// venue reports them; canonicalisation is a pathfinder/formula concern, not
// a storage one.
func (p *PoolSnapshot) Validate() error {
	const op = "domain.PoolSnapshot.Validate"
	if p.ReserveA == nil || p.ReserveB == nil {
		return NewError(op, InvalidArgument, "reserves must not be nil")
	}
	if p.ReserveA.Sign() < 0 || p.ReserveB.Sign() < 0 {
		return NewError(op, InvalidArgument, "reserves must be non-negative")
	}
	if p.FeeBps > BPSDenom {
		return NewError(op, InvalidArgument, "fee_bps %d exceeds %d", p.FeeBps, BPSDenom)
	}
	if p.TokenA.Normalize() == p.TokenB.Normalize() {
		return NewError(op, InvalidArgument, "token_a and token_b must be distinct, got %q", p.TokenA)
	}
	return nil
}

// OtherToken returns the token on the opposite side of the pool from t, and
// false if t is not one of the pool's two tokens.
func (p *PoolSnapshot) OtherToken(t TokenId) (TokenId, bool) {
	n := t.Normalize()
	switch n {
	case p.TokenA.Normalize():
		return p.TokenB, true
	case p.TokenB.Normalize():
		return p.TokenA, true
	default:
		return "", false
	}
}

// ReservesFor returns (reserveIn, reserveOut) oriented so that tokenIn is the
// side being sold into the pool.
func (p *PoolSnapshot) ReservesFor(tokenIn TokenId) (reserveIn, reserveOut *big.Int, ok bool) {
	switch tokenIn.Normalize() {
	case p.TokenA.Normalize():
		return p.ReserveA, p.ReserveB, true
	case p.TokenB.Normalize():
		return p.ReserveB, p.ReserveA, true
	default:
		return nil, nil, false
	}
}

// CacheEntry pairs a PoolSnapshot with the wall-clock millisecond timestamp
// at which it expires. An entry is live while now <= ExpiresAt.
type CacheEntry struct {
	Snapshot  PoolSnapshot
	ExpiresAt int64 // milliseconds
}

// Live reports whether the entry has not yet expired at nowMs.
func (e *CacheEntry) Live(nowMs int64) bool {
	return nowMs <= e.ExpiresAt
}
