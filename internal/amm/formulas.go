// Package amm implements the constant-product AMM swap math (§4.2): the
// exact-integer formulas for swap output/input, multi-hop composition,
// proportional quoting, LP-share issuance, price impact and slippage
// bounds. The multiply-divide step of every formula goes through fixedmath's
// checked primitives; fee scaling, denominator sums and SwapIn's trailing +1
// use math/big's operators directly.
package amm

import (
	"math/big"

	"github.com/ammrouter/quoter/internal/domain"
	"github.com/ammrouter/quoter/internal/fixedmath"
)

var bps = big.NewInt(fixedmath.BPSDenom)

// SwapOut computes the amount received for selling amountIn into a pool
// with the given reserves and fee (§4.2, "Swap out").
func SwapOut(amountIn, reserveIn, reserveOut *big.Int, feeBps uint32) (*big.Int, error) {
	const op = "amm.swap_out"
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InvalidAmount, "amount_in must be positive")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InsufficientLiquidity, "reserves must be positive")
	}

	feeMultiplier := big.NewInt(int64(fixedmath.BPSDenom) - int64(feeBps))
	amountInWithFee := new(big.Int).Mul(amountIn, feeMultiplier)

	denominator := new(big.Int).Mul(reserveIn, bps)
	denominator.Add(denominator, amountInWithFee)

	return fixedmath.MulDivDown(amountInWithFee, reserveOut, denominator)
}

// SwapIn computes the amount that must be sold to receive amountOut from a
// pool with the given reserves and fee (§4.2, "Swap in"). The trailing +1
// preserves the no-loss round-trip property (§8 properties 2-3).
func SwapIn(amountOut, reserveIn, reserveOut *big.Int, feeBps uint32) (*big.Int, error) {
	const op = "amm.swap_in"
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InvalidAmount, "amount_out must be positive")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InsufficientLiquidity, "reserves must be positive")
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, domain.NewError(op, domain.InsufficientLiquidity, "amount_out %s >= reserve_out %s", amountOut, reserveOut)
	}

	feeMultiplier := big.NewInt(int64(fixedmath.BPSDenom) - int64(feeBps))
	reserveInScaled := new(big.Int).Mul(reserveIn, bps)

	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeMultiplier)

	amountIn, err := fixedmath.MulDivDown(reserveInScaled, amountOut, denominator)
	if err != nil {
		return nil, err
	}
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// HopReserves is one leg of a multi-hop composition: the reserves a trade
// crosses and the fee charged on that leg.
type HopReserves struct {
	ReserveIn  *big.Int
	ReserveOut *big.Int
	FeeBps     uint32
}

// MultiHopOut composes SwapOut across hops in order, returning the full
// amounts vector [amountIn, amount after hop 1, ..., final amount out].
func MultiHopOut(amountIn *big.Int, hops []HopReserves) ([]*big.Int, error) {
	const op = "amm.multi_hop_out"
	if len(hops) == 0 {
		return nil, domain.NewError(op, domain.InvalidArgument, "no hops given")
	}
	amounts := make([]*big.Int, len(hops)+1)
	amounts[0] = new(big.Int).Set(amountIn)
	current := amounts[0]
	for i, h := range hops {
		out, err := SwapOut(current, h.ReserveIn, h.ReserveOut, h.FeeBps)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
		current = out
	}
	return amounts, nil
}

// MultiHopIn composes SwapIn across hops in reverse order (the amount
// required at each leg to deliver the required input to the next), then
// returns the vector in forward order: [required amount in, ..., amountOut].
func MultiHopIn(amountOut *big.Int, hops []HopReserves) ([]*big.Int, error) {
	const op = "amm.multi_hop_in"
	if len(hops) == 0 {
		return nil, domain.NewError(op, domain.InvalidArgument, "no hops given")
	}
	amounts := make([]*big.Int, len(hops)+1)
	amounts[len(hops)] = new(big.Int).Set(amountOut)
	current := amounts[len(hops)]
	for i := len(hops) - 1; i >= 0; i-- {
		h := hops[i]
		in, err := SwapIn(current, h.ReserveIn, h.ReserveOut, h.FeeBps)
		if err != nil {
			return nil, err
		}
		amounts[i] = in
		current = in
	}
	return amounts, nil
}

// Quote computes the proportional counterpart of amountA in a pool with
// reserves (reserveA, reserveB) — used for LP deposit ratios, not swaps.
func Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	const op = "amm.quote"
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InvalidAmount, "amount must be positive")
	}
	if reserveA == nil || reserveA.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InsufficientLiquidity, "reserve_a must be positive")
	}
	return fixedmath.MulDivDown(amountA, reserveB, reserveA)
}

// InitialLiquidity computes the LP shares minted for the first deposit into
// an empty pool, permanently burning fixedmath.MinInitialLiquidity as dead
// shares.
func InitialLiquidity(a0, a1 *big.Int) (*big.Int, error) {
	const op = "amm.initial_liquidity"
	product, err := fixedmath.K(a0, a1)
	if err != nil {
		return nil, err
	}
	root, err := fixedmath.Sqrt(product)
	if err != nil {
		return nil, err
	}
	shares := new(big.Int).Sub(root, big.NewInt(fixedmath.MinInitialLiquidity))
	if shares.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InsufficientLiquidity, "sqrt(a0*a1)=%s does not clear the minimum-liquidity floor", root)
	}
	return shares, nil
}

// IncrementalLiquidity computes the LP shares minted for a deposit into a
// pool that already has supply shares outstanding.
func IncrementalLiquidity(a0, a1, reserve0, reserve1, supply *big.Int) (*big.Int, error) {
	const op = "amm.incremental_liquidity"
	if reserve0.Sign() <= 0 || reserve1.Sign() <= 0 {
		return nil, domain.NewError(op, domain.InsufficientLiquidity, "reserves must be positive")
	}
	share0, err := fixedmath.MulDivDown(a0, supply, reserve0)
	if err != nil {
		return nil, err
	}
	share1, err := fixedmath.MulDivDown(a1, supply, reserve1)
	if err != nil {
		return nil, err
	}
	if share0.Cmp(share1) <= 0 {
		return share0, nil
	}
	return share1, nil
}

// PriceImpactBps computes the price impact of a trade in basis points:
// the gap between the proportional (spot) output and the actual AMM
// output, relative to the proportional output. Returns 0 when the
// proportional output itself is 0.
func PriceImpactBps(amountIn, reserveIn, reserveOut *big.Int, feeBps uint32) (int64, error) {
	const op = "amm.price_impact_bps"
	expected, err := fixedmath.MulDivDown(amountIn, reserveOut, reserveIn)
	if err != nil {
		return 0, err
	}
	if expected.Sign() == 0 {
		return 0, nil
	}
	actual, err := SwapOut(amountIn, reserveIn, reserveOut, feeBps)
	if err != nil {
		return 0, err
	}
	diff := new(big.Int).Sub(expected, actual)
	if diff.Sign() <= 0 {
		return 0, nil
	}
	impact, err := fixedmath.MulDivDown(diff, bps, expected)
	if err != nil {
		return 0, err
	}
	return impact.Int64(), nil
}

// PoolShare computes the caller's percentage claim on a pool given their
// liquidity units and the pool's total supply, as a percentage with two
// decimal digits of precision. A pool with zero supply reports 100%.
func PoolShare(liquidity, supply *big.Int) (float64, error) {
	const op = "amm.pool_share"
	if supply == nil || supply.Sign() == 0 {
		return 100.0, nil
	}
	scaled, err := fixedmath.MulDivDown(liquidity, big.NewInt(10_000), supply)
	if err != nil {
		return 0, domain.WrapError(op, domain.InvalidArgument, err, "failed to compute pool share")
	}
	f := new(big.Float).SetInt(scaled)
	f.Quo(f, big.NewFloat(100))
	pct, _ := f.Float64()
	return pct, nil
}

// MinOut computes the minimum acceptable output for amount given a slippage
// tolerance in basis points.
func MinOut(amount *big.Int, slipBps uint32) (*big.Int, error) {
	return fixedmath.MulDivDown(amount, big.NewInt(fixedmath.BPSDenom-int64(slipBps)), bps)
}

// MaxIn computes the maximum acceptable input for amount given a slippage
// tolerance in basis points.
func MaxIn(amount *big.Int, slipBps uint32) (*big.Int, error) {
	return fixedmath.MulDivDown(amount, big.NewInt(fixedmath.BPSDenom+int64(slipBps)), bps)
}

// HopOut orients pool's reserves by tokenIn and computes the output amount
// and price impact for a single hop, the primitive Pathfinder's costing walk
// (§4.4) is built from.
func HopOut(pool *domain.PoolSnapshot, tokenIn domain.TokenId, amountIn *big.Int) (amountOut *big.Int, impactBps int64, err error) {
	const op = "amm.hop_out"
	reserveIn, reserveOut, ok := pool.ReservesFor(tokenIn)
	if !ok {
		return nil, 0, domain.NewError(op, domain.InvalidTokenPair, "token %q not in pool %q", tokenIn, pool.PoolID)
	}
	amountOut, err = SwapOut(amountIn, reserveIn, reserveOut, pool.FeeBps)
	if err != nil {
		return nil, 0, err
	}
	impactBps, err = PriceImpactBps(amountIn, reserveIn, reserveOut, pool.FeeBps)
	if err != nil {
		return nil, 0, err
	}
	return amountOut, impactBps, nil
}
