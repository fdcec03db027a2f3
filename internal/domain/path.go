package domain

import "math/big"

// Path is an ordered sequence of tokens and the pools connecting them. It is
// a value: tokens[i] != tokens[j] for i != j, pools[i] connects tokens[i] and
// tokens[i+1], and 1 <= len(pools) <= H.
type Path struct {
	Tokens []TokenId
	Pools  []PoolId
}

// Hops returns the number of swaps the path performs.
func (p Path) Hops() int { return len(p.Pools) }

// HopQuote is the per-hop breakdown produced when a Route is costed.
type HopQuote struct {
	Pool       PoolId
	TokenIn    TokenId
	TokenOut   TokenId
	AmountIn   *big.Int
	AmountOut  *big.Int
	FeeBps     uint32
	ImpactBps  int64
}

// Route is a Path annotated with the result of costing it at one specific
// input amount.
type Route struct {
	Path            Path
	ExpectedOutput  *big.Int
	PriceImpactBps  int64
	Score           float64
}

// RouteQuote expands a Route with the authoritative, hop-by-hop recomputed
// amount vector (see Router.GetRouteQuote).
type RouteQuote struct {
	Route    Route
	AmountIn *big.Int
	Hops     []HopQuote
}

// SplitRoute is a distribution of one total input across several Routes.
type SplitRoute struct {
	Routes             []Route
	Amounts            []*big.Int
	Percents           []float64
	TotalOutput        *big.Int
	WeightedImpactBps  int64
	IsBetterThanSingle bool
}

// SplitQuote expands a SplitRoute with the authoritative per-route
// RouteQuote (see Router.GetSplitQuote).
type SplitQuote struct {
	Split    SplitRoute
	AmountIn *big.Int
	Routes   []RouteQuote
}

// RouterStats summarizes façade-level activity since the Router was built.
type RouterStats struct {
	CachedPools            int
	CacheHitRate           float64
	AvgRouteFindingTimeMs  float64
	TotalRoutesFound       int64
}
