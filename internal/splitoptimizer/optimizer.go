// Package splitoptimizer allocates a single input amount across several
// candidate routes when doing so increases the combined output (§4.5).
// Output is estimated linearly from each candidate's whole-amount quote —
// a documented upper-bound approximation, not a per-hop recomputation.
package splitoptimizer

import (
	"math/big"

	"github.com/ammrouter/quoter/internal/domain"
	"github.com/ammrouter/quoter/internal/fixedmath"
	"github.com/ammrouter/quoter/internal/pathfinder"
)

// distribution is one candidate percentage split, always in whole percent.
type distribution []int64

func decileSplits() []distribution {
	out := make([]distribution, 0, 11)
	for a := int64(100); a >= 0; a -= 10 {
		out = append(out, distribution{a, 100 - a})
	}
	return out
}

var threeRouteSplits = []distribution{
	{100, 0, 0}, {80, 20, 0}, {80, 10, 10}, {70, 30, 0}, {70, 20, 10}, {70, 15, 15},
	{60, 40, 0}, {60, 30, 10}, {60, 20, 20}, {50, 50, 0}, {50, 40, 10}, {50, 30, 20},
	{50, 25, 25}, {40, 40, 20}, {40, 30, 30}, {34, 33, 33},
}

// weightedSplits builds the 4+-route distribution family: equal split plus
// weighted variants where the remaining percentage after the lead weight is
// distributed equally across the rest, remainder to index 1.
func weightedSplits(n int) []distribution {
	equal := int64(100) / int64(n)
	remEqual := int64(100) - equal*int64(n)
	d := make(distribution, n)
	for i := range d {
		d[i] = equal
	}
	d[0] += remEqual
	splits := []distribution{d}

	for _, lead := range []int64{70, 60, 50} {
		rest := n - 1
		if rest <= 0 {
			continue
		}
		share := (100 - lead) / int64(rest)
		remainder := (100 - lead) - share*int64(rest)
		v := make(distribution, n)
		v[0] = lead
		for i := 1; i < n; i++ {
			v[i] = share
		}
		if n > 1 {
			v[1] += remainder
		}
		splits = append(splits, v)
	}
	return splits
}

func candidateDistributions(n int) []distribution {
	switch {
	case n <= 1:
		return []distribution{{100}}
	case n == 2:
		return decileSplits()
	case n == 3:
		return threeRouteSplits
	default:
		return weightedSplits(n)
	}
}

func (d distribution) sumsTo100() bool {
	var sum int64
	for _, p := range d {
		sum += p
	}
	return sum == 100
}

// amountsFor splits total according to percentages pct (whole percent),
// flooring each and giving any remainder to the last route so the sum is
// exact.
func amountsFor(total *big.Int, pct distribution) ([]*big.Int, error) {
	amounts := make([]*big.Int, len(pct))
	running := big.NewInt(0)
	for i, p := range pct {
		amt, err := fixedmath.MulDivDown(total, big.NewInt(p*100), big.NewInt(10_000))
		if err != nil {
			return nil, err
		}
		if i == len(pct)-1 {
			amt = new(big.Int).Sub(total, running)
		} else {
			running.Add(running, amt)
		}
		amounts[i] = amt
	}
	return amounts, nil
}

// estimateOutputs applies the linear output approximation per route:
// out_i ≈ expected_output_i · (amount_i / total).
func estimateOutputs(candidates []domain.Route, amounts []*big.Int, total *big.Int) ([]*big.Int, error) {
	outs := make([]*big.Int, len(candidates))
	for i, route := range candidates {
		out, err := fixedmath.MulDivDown(route.ExpectedOutput, amounts[i], total)
		if err != nil {
			return nil, err
		}
		outs[i] = out
	}
	return outs, nil
}

func weightedImpactBps(amounts []*big.Int, candidates []domain.Route, total *big.Int) (int64, error) {
	if total.Sign() == 0 {
		return 0, nil
	}
	sum := big.NewInt(0)
	for i, amt := range amounts {
		weighted, err := fixedmath.MulDivDown(amt, big.NewInt(candidates[i].PriceImpactBps), total)
		if err != nil {
			return 0, err
		}
		sum.Add(sum, weighted)
	}
	return sum.Int64(), nil
}

// buildSplitRoute costs one concrete distribution against candidates,
// trimming zero-amount legs.
func buildSplitRoute(candidates []domain.Route, pct distribution, total *big.Int) (domain.SplitRoute, error) {
	const op = "splitoptimizer.build_split_route"
	if !pct.sumsTo100() {
		return domain.SplitRoute{}, domain.NewError(op, domain.InvalidArgument, "percentages do not sum to 100: %v", pct)
	}
	amounts, err := amountsFor(total, pct)
	if err != nil {
		return domain.SplitRoute{}, err
	}
	outs, err := estimateOutputs(candidates, amounts, total)
	if err != nil {
		return domain.SplitRoute{}, err
	}

	var routes []domain.Route
	var trimmedAmounts []*big.Int
	var trimmedPercents []float64
	totalOutput := big.NewInt(0)
	for i, amt := range amounts {
		if amt.Sign() == 0 {
			continue
		}
		routes = append(routes, candidates[i])
		trimmedAmounts = append(trimmedAmounts, amt)
		trimmedPercents = append(trimmedPercents, float64(pct[i]))
		totalOutput.Add(totalOutput, outs[i])
	}

	impact, err := weightedImpactBps(amounts, candidates, total)
	if err != nil {
		return domain.SplitRoute{}, err
	}

	return domain.SplitRoute{
		Routes:            routes,
		Amounts:           trimmedAmounts,
		Percents:          trimmedPercents,
		TotalOutput:       totalOutput,
		WeightedImpactBps: impact,
	}, nil
}

// FindOptimalSplit allocates total across up to maxSplits of the given
// candidates (already sorted best-first by the caller), returning the
// distribution with the greatest total output.
func FindOptimalSplit(candidates []domain.Route, total *big.Int, maxSplits int) (domain.SplitRoute, error) {
	const op = "splitoptimizer.find_optimal_split"
	if len(candidates) == 0 {
		return domain.SplitRoute{}, domain.NewError(op, domain.OptimizationFailed, "no candidate routes given")
	}
	if maxSplits < 1 {
		maxSplits = 1
	}
	top := pathfinder.GetTopRoutes(candidates, maxSplits)

	if len(top) == 1 || maxSplits == 1 {
		split, err := buildSplitRoute(top[:1], distribution{100}, total)
		if err != nil {
			return domain.SplitRoute{}, err
		}
		split.IsBetterThanSingle = false
		return split, nil
	}

	var best domain.SplitRoute
	var bestSet bool
	for _, pct := range candidateDistributions(len(top)) {
		split, err := buildSplitRoute(top, pct, total)
		if err != nil {
			continue
		}
		if !bestSet || split.TotalOutput.Cmp(best.TotalOutput) > 0 {
			best = split
			bestSet = true
		}
	}
	if !bestSet {
		return domain.SplitRoute{}, domain.NewError(op, domain.OptimizationFailed, "no viable distribution found")
	}

	best.IsBetterThanSingle = best.TotalOutput.Cmp(candidates[0].ExpectedOutput) > 0
	return best, nil
}

// Refine runs the local-improvement pass described in §4.5: starting from
// the equal split over top, it tries moving 5% between every ordered pair
// of routes (source must hold >= 5%) and keeps any neighbour that strictly
// improves total output, stopping after n iterations or when no neighbour
// improves.
func Refine(top []domain.Route, total *big.Int, n int) (domain.SplitRoute, error) {
	const op = "splitoptimizer.refine"
	if len(top) == 0 {
		return domain.SplitRoute{}, domain.NewError(op, domain.OptimizationFailed, "no candidate routes given")
	}

	current := equalDistribution(len(top))
	best, err := buildSplitRoute(top, current, total)
	if err != nil {
		return domain.SplitRoute{}, err
	}

	for iter := 0; iter < n; iter++ {
		improved := false
		for i := range current {
			if current[i] < 5 {
				continue
			}
			for j := range current {
				if i == j {
					continue
				}
				neighbour := append(distribution(nil), current...)
				neighbour[i] -= 5
				neighbour[j] += 5

				split, err := buildSplitRoute(top, neighbour, total)
				if err != nil {
					continue
				}
				if split.TotalOutput.Cmp(best.TotalOutput) > 0 {
					best = split
					current = neighbour
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	best.IsBetterThanSingle = best.TotalOutput.Cmp(top[0].ExpectedOutput) > 0
	return best, nil
}

func equalDistribution(n int) distribution {
	d := make(distribution, n)
	equal := int64(100) / int64(n)
	for i := range d {
		d[i] = equal
	}
	d[0] += 100 - equal*int64(n)
	return d
}
