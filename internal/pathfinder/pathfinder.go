// Package pathfinder enumerates and scores swap routes over a PoolCache's
// token graph (§4.4). It performs depth-first backtracking rather than a
// shortest-path search, because the spec calls for every simple path up to
// a hop bound, not a single cheapest one.
package pathfinder

import (
	"math"
	"math/big"
	"sort"

	"github.com/ammrouter/quoter/internal/amm"
	"github.com/ammrouter/quoter/internal/domain"
	"github.com/ammrouter/quoter/internal/poolcache"
)

// SearchOptions bounds and filters the path enumeration (§4.4).
type SearchOptions struct {
	MaxHops       int
	MinLiquidity  *big.Int
	ExcludePools  map[domain.PoolId]bool
	ExcludeTokens map[domain.TokenId]bool
}

func (o SearchOptions) excludesPool(id domain.PoolId) bool {
	return o.ExcludePools != nil && o.ExcludePools[id]
}

func (o SearchOptions) excludesToken(t domain.TokenId) bool {
	return o.ExcludeTokens != nil && o.ExcludeTokens[t]
}

func (o SearchOptions) below(pool domain.PoolSnapshot) bool {
	if o.MinLiquidity == nil {
		return false
	}
	return pool.ReserveA.Cmp(o.MinLiquidity) < 0 || pool.ReserveB.Cmp(o.MinLiquidity) < 0
}

// Finder is the Pathfinder: it enumerates, costs and scores paths over a
// graph view read from a PoolCache.
type Finder struct{}

// New constructs a Finder. It holds no state of its own; every call reads
// a fresh graph view.
func New() *Finder {
	return &Finder{}
}

// FindAllRoutes enumerates every simple path from tokenIn to tokenOut of at
// most opts.MaxHops hops, costs each at amountIn, and returns the survivors
// (routes whose expected output is > 0) scored but unsorted.
func (f *Finder) FindAllRoutes(graph poolcache.TokenGraph, tokenIn, tokenOut domain.TokenId, amountIn *big.Int, opts SearchOptions) ([]domain.Route, error) {
	const op = "pathfinder.find_all_routes"
	tin, tout := tokenIn.Normalize(), tokenOut.Normalize()
	if tin == tout {
		return nil, domain.NewError(op, domain.InvalidTokenPair, "token_in and token_out must differ, got %q", tin)
	}
	if _, ok := graph.Adjacency[tin]; !ok {
		return nil, domain.NewError(op, domain.InvalidTokenPair, "token %q is absent from the graph", tin)
	}
	if _, ok := graph.Adjacency[tout]; !ok {
		return nil, domain.NewError(op, domain.InvalidTokenPair, "token %q is absent from the graph", tout)
	}
	if opts.MaxHops <= 0 {
		return nil, domain.NewError(op, domain.InvalidConfiguration, "max_hops must be positive, got %d", opts.MaxHops)
	}

	var paths []domain.Path
	visited := map[domain.TokenId]bool{tin: true}
	f.walk(graph, tin, tout, opts, []domain.TokenId{tin}, nil, visited, &paths)

	routes := make([]domain.Route, 0, len(paths))
	for _, p := range paths {
		route, err := f.calculateRoute(graph, p, amountIn)
		if err != nil {
			// Math failure rejects the individual route (§7 propagation
			// policy), it does not abort the whole search.
			continue
		}
		if route.ExpectedOutput.Sign() <= 0 {
			continue
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// walk is the depth-first backtracking enumeration itself. visited is
// mutated and restored so the same map can be reused across the whole
// recursion without reallocating per branch.
func (f *Finder) walk(
	graph poolcache.TokenGraph,
	current, target domain.TokenId,
	opts SearchOptions,
	tokens []domain.TokenId,
	pools []domain.PoolId,
	visited map[domain.TokenId]bool,
	out *[]domain.Path,
) {
	if len(pools) > 0 && current == target {
		*out = append(*out, domain.Path{
			Tokens: append([]domain.TokenId(nil), tokens...),
			Pools:  append([]domain.PoolId(nil), pools...),
		})
		return
	}
	if len(pools) >= opts.MaxHops {
		return
	}

	for _, pool := range graph.Adjacency[current] {
		if opts.excludesPool(pool.PoolID) || opts.below(pool) {
			continue
		}
		next, ok := pool.OtherToken(current)
		if !ok {
			continue
		}
		next = next.Normalize()
		if opts.excludesToken(next) {
			continue
		}
		if next != target && visited[next] {
			continue
		}

		visited[next] = true
		f.walk(graph, next, target, opts, append(tokens, next), append(pools, pool.PoolID), visited, out)
		delete(visited, next)
	}
}

// calculateRoute walks path once, left to right, orienting reserves by the
// incoming token at each hop (§4.4 "Costing").
func (f *Finder) calculateRoute(graph poolcache.TokenGraph, path domain.Path, amountIn *big.Int) (domain.Route, error) {
	const op = "pathfinder.calculate_route"
	poolByID := make(map[domain.PoolId]domain.PoolSnapshot)
	for _, edges := range graph.Adjacency {
		for _, p := range edges {
			poolByID[p.PoolID] = p
		}
	}

	current := amountIn
	var worstImpact int64
	for i, poolID := range path.Pools {
		pool, ok := poolByID[poolID]
		if !ok {
			return domain.Route{}, domain.NewError(op, domain.InvalidTokenPair, "pool %q no longer in graph", poolID)
		}
		out, impact, err := amm.HopOut(&pool, path.Tokens[i], current)
		if err != nil {
			return domain.Route{}, err
		}
		if out.Sign() <= 0 {
			return domain.Route{}, domain.NewError(op, domain.InsufficientLiquidity, "hop %d produced non-positive output", i)
		}
		if impact > worstImpact {
			worstImpact = impact
		}
		current = out
	}

	score := scoreRoute(amountIn, current, worstImpact, path.Hops())
	return domain.Route{
		Path:           path,
		ExpectedOutput: current,
		PriceImpactBps: worstImpact,
		Score:          score,
	}, nil
}

// scoreRoute implements §4.4's score formula. It is used for ranking and
// filtering only; no monetary computation depends on it.
func scoreRoute(amountIn, amountOut *big.Int, impactBps int64, hops int) float64 {
	inF := new(big.Float).SetInt(amountIn)
	outF := new(big.Float).SetInt(amountOut)
	if inF.Sign() == 0 {
		return 0
	}
	ratio := new(big.Float).Quo(outF, inF)
	outputRatio, _ := ratio.Float64()

	impactPenalty := 1 - float64(impactBps)/10_000
	if impactPenalty < 0 {
		impactPenalty = 0
	}
	hopsPenalty := math.Pow(0.95, float64(hops-1))
	return outputRatio * impactPenalty * hopsPenalty
}

// FindBestRoute selects the route with the greatest expected output,
// breaking ties on lower price_impact_bps and then on the lexicographically
// smaller token sequence (§4.4 "Ordering").
func (f *Finder) FindBestRoute(graph poolcache.TokenGraph, tokenIn, tokenOut domain.TokenId, amountIn *big.Int, opts SearchOptions) (domain.Route, error) {
	const op = "pathfinder.find_best_route"
	routes, err := f.FindAllRoutes(graph, tokenIn, tokenOut, amountIn, opts)
	if err != nil {
		return domain.Route{}, err
	}
	if len(routes) == 0 {
		return domain.Route{}, domain.NewError(op, domain.NoRouteFound, "no route from %q to %q within %d hops", tokenIn, tokenOut, opts.MaxHops)
	}
	best := routes[0]
	for _, r := range routes[1:] {
		if betterRoute(r, best) {
			best = r
		}
	}
	return best, nil
}

func betterRoute(a, b domain.Route) bool {
	if cmp := a.ExpectedOutput.Cmp(b.ExpectedOutput); cmp != 0 {
		return cmp > 0
	}
	if a.PriceImpactBps != b.PriceImpactBps {
		return a.PriceImpactBps < b.PriceImpactBps
	}
	return lexLess(a.Path.Tokens, b.Path.Tokens)
}

func lexLess(a, b []domain.TokenId) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// FindDirectRoute returns the single-hop route between tokenIn and tokenOut
// if one exists.
func (f *Finder) FindDirectRoute(graph poolcache.TokenGraph, tokenIn, tokenOut domain.TokenId, amountIn *big.Int) (domain.Route, bool, error) {
	routes, err := f.FindAllRoutes(graph, tokenIn, tokenOut, amountIn, SearchOptions{MaxHops: 1})
	if err != nil {
		if k, ok := domain.KindOf(err); ok && k == domain.NoRouteFound {
			return domain.Route{}, false, nil
		}
		return domain.Route{}, false, err
	}
	if len(routes) == 0 {
		return domain.Route{}, false, nil
	}
	return routes[0], true, nil
}

// FilterRoutes applies post-hoc output/impact filters. A nil minOutput or a
// non-positive maxImpactBps leaves that axis unbounded.
func FilterRoutes(routes []domain.Route, minOutput *big.Int, maxImpactBps int64) []domain.Route {
	out := make([]domain.Route, 0, len(routes))
	for _, r := range routes {
		if minOutput != nil && r.ExpectedOutput.Cmp(minOutput) < 0 {
			continue
		}
		if maxImpactBps > 0 && r.PriceImpactBps > maxImpactBps {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRoutes sorts routes by score descending, falling back to the
// lexicographically smaller token sequence on ties (§4.4 "Ordering").
func SortRoutes(routes []domain.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Score != routes[j].Score {
			return routes[i].Score > routes[j].Score
		}
		return lexLess(routes[i].Path.Tokens, routes[j].Path.Tokens)
	})
}

// GetTopRoutes sorts a copy of routes by score and returns the top n.
func GetTopRoutes(routes []domain.Route, n int) []domain.Route {
	sorted := append([]domain.Route(nil), routes...)
	SortRoutes(sorted)
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
