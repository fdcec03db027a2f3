// Package router implements the Router façade (§4.6): the stable public
// API that wires PoolCache, Pathfinder and SplitOptimizer together behind
// a single entry point, lazily populating the cache from a PoolDirectory
// and PoolSource collaborator pair.
package router

import (
	"context"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ammrouter/quoter/internal/amm"
	"github.com/ammrouter/quoter/internal/clock"
	"github.com/ammrouter/quoter/internal/domain"
	"github.com/ammrouter/quoter/internal/pathfinder"
	"github.com/ammrouter/quoter/internal/poolcache"
	"github.com/ammrouter/quoter/internal/splitoptimizer"
)

// NotionalRankingAmount is the amount find_all_routes costs candidates at
// when no user amount is supplied. Scoring is scale-invariant so this is
// acceptable for ranking (§4.6).
var NotionalRankingAmount = big.NewInt(1_000_000)

// PoolDirectory discovers every pool id known to the venue (§6).
type PoolDirectory interface {
	ListPools(ctx context.Context) ([]domain.PoolId, error)
}

// PoolSource fetches one pool's current reserves (§6).
type PoolSource interface {
	LoadSnapshot(ctx context.Context, id domain.PoolId) (domain.PoolSnapshot, error)
}

// Config is the Router's enumerated configuration (§4.6).
type Config struct {
	FactoryAddress string
	MaxHops        int
	MaxSplits      int
	PoolCacheTTLMs int64
	EnableCache    bool
	MinLiquidity   *big.Int
}

// DefaultConfig returns a Config with every default from §4.6 applied,
// except FactoryAddress, which has no default and must be supplied.
func DefaultConfig(factoryAddress string) Config {
	return Config{
		FactoryAddress: factoryAddress,
		MaxHops:        3,
		MaxSplits:      3,
		PoolCacheTTLMs: 30_000,
		EnableCache:    true,
		MinLiquidity:   big.NewInt(1_000),
	}
}

// Validate enforces §4.6's configuration bounds.
func (c Config) Validate() error {
	const op = "router.Config.Validate"
	if strings.TrimSpace(c.FactoryAddress) == "" {
		return domain.NewError(op, domain.InvalidConfiguration, "factory_address is required")
	}
	if c.MaxHops < 1 || c.MaxHops > 5 {
		return domain.NewError(op, domain.InvalidConfiguration, "max_hops must be in [1,5], got %d", c.MaxHops)
	}
	if c.MaxSplits < 1 || c.MaxSplits > 10 {
		return domain.NewError(op, domain.InvalidConfiguration, "max_splits must be in [1,10], got %d", c.MaxSplits)
	}
	if c.PoolCacheTTLMs <= 0 {
		return domain.NewError(op, domain.InvalidConfiguration, "pool_cache_ttl_ms must be positive, got %d", c.PoolCacheTTLMs)
	}
	return nil
}

// Router is the façade described in §4.6. The zero value is not usable;
// construct with New.
type Router struct {
	cfg       Config
	cache     *poolcache.Cache
	directory PoolDirectory
	source    PoolSource
	finder    *pathfinder.Finder
	clock     clock.Clock

	statsMu          sync.Mutex
	totalRoutesFound int64
	findDurationsMs  []float64
}

// New validates cfg and constructs a Router. Configuration is validated
// before any work is done (§7).
func New(cfg Config, directory PoolDirectory, source PoolSource, clk clock.Clock) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Router{
		cfg:       cfg,
		cache:     poolcache.New(clk, cfg.PoolCacheTTLMs),
		directory: directory,
		source:    source,
		finder:    pathfinder.New(),
		clock:     clk,
	}, nil
}

func (r *Router) ensureLoaded(ctx context.Context) error {
	if !r.cfg.EnableCache {
		return r.RefreshPools(ctx, true)
	}
	if r.cache.Stats().Size == 0 {
		return r.RefreshPools(ctx, false)
	}
	return nil
}

// RefreshPools reloads the cache from the PoolDirectory/PoolSource
// collaborators. force=true clears first; force=false best-effort tops up
// whatever is already present.
func (r *Router) RefreshPools(ctx context.Context, force bool) error {
	const op = "router.refresh_pools"
	if force {
		r.cache.Clear()
	}

	ids, err := r.directory.ListPools(ctx)
	if err != nil {
		return domain.WrapError(op, domain.CacheError, err, "pool directory listing failed")
	}

	snapshots := make([]domain.PoolSnapshot, 0, len(ids))
	for _, id := range ids {
		snapshot, err := r.source.LoadSnapshot(ctx, id)
		if err != nil {
			log.Printf("router: failed to load snapshot for pool %q: %v", id, err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := r.cache.PutMany(snapshots); err != nil {
		return domain.WrapError(op, domain.CacheError, err, "failed to store loaded snapshots")
	}
	return nil
}

// ClearCache discards every cached pool snapshot.
func (r *Router) ClearCache() {
	r.cache.Clear()
}

func (r *Router) searchOptions(maxHops int) pathfinder.SearchOptions {
	if maxHops <= 0 {
		maxHops = r.cfg.MaxHops
	}
	return pathfinder.SearchOptions{MaxHops: maxHops, MinLiquidity: r.cfg.MinLiquidity}
}

func (r *Router) recordFind(started time.Time, routesFound int) {
	elapsedMs := float64(time.Since(started).Microseconds()) / 1000.0
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.totalRoutesFound += int64(routesFound)
	r.findDurationsMs = append(r.findDurationsMs, elapsedMs)
	if len(r.findDurationsMs) > 256 {
		r.findDurationsMs = r.findDurationsMs[len(r.findDurationsMs)-256:]
	}
}

// FindBestRoute costs candidate paths at amountIn and returns the single
// best one (§4.6).
func (r *Router) FindBestRoute(ctx context.Context, tokenIn, tokenOut domain.TokenId, amountIn *big.Int, maxHops int) (domain.Route, error) {
	started := time.Now()
	if err := r.ensureLoaded(ctx); err != nil {
		return domain.Route{}, err
	}
	graph := r.cache.Graph()
	route, err := r.finder.FindBestRoute(graph, tokenIn, tokenOut, amountIn, r.searchOptions(maxHops))
	r.recordFind(started, 1)
	return route, err
}

// FindAllRoutes enumerates and ranks every candidate path at the notional
// ranking amount (§4.6).
func (r *Router) FindAllRoutes(ctx context.Context, tokenIn, tokenOut domain.TokenId, maxHops int) ([]domain.Route, error) {
	started := time.Now()
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	graph := r.cache.Graph()
	routes, err := r.finder.FindAllRoutes(graph, tokenIn, tokenOut, NotionalRankingAmount, r.searchOptions(maxHops))
	if err != nil {
		return nil, err
	}
	pathfinder.SortRoutes(routes)
	r.recordFind(started, len(routes))
	return routes, nil
}

// FindOptimalSplit finds candidate routes for the pair and allocates
// amountIn across up to maxSplits of them (§4.6).
func (r *Router) FindOptimalSplit(ctx context.Context, tokenIn, tokenOut domain.TokenId, amountIn *big.Int, maxSplits int) (domain.SplitRoute, error) {
	started := time.Now()
	if err := r.ensureLoaded(ctx); err != nil {
		return domain.SplitRoute{}, err
	}
	if maxSplits <= 0 {
		maxSplits = r.cfg.MaxSplits
	}
	graph := r.cache.Graph()
	candidates, err := r.finder.FindAllRoutes(graph, tokenIn, tokenOut, amountIn, r.searchOptions(0))
	if err != nil {
		return domain.SplitRoute{}, err
	}
	pathfinder.SortRoutes(candidates)
	split, err := splitoptimizer.FindOptimalSplit(candidates, amountIn, maxSplits)
	r.recordFind(started, len(candidates))
	return split, err
}

// GetRouteQuote re-fetches each hop's reserves from the cache and
// recomputes outputs hop-by-hop, producing the authoritative amount vector
// and hop breakdown (§4.6).
func (r *Router) GetRouteQuote(route domain.Route, amountIn *big.Int) (domain.RouteQuote, error) {
	const op = "router.get_route_quote"
	hops := make([]domain.HopQuote, 0, len(route.Path.Pools))
	current := amountIn
	for i, poolID := range route.Path.Pools {
		snapshot, ok := r.cache.Get(poolID)
		if !ok {
			return domain.RouteQuote{}, domain.NewError(op, domain.CacheError, "pool %q missing from cache while quoting", poolID)
		}
		tokenIn := route.Path.Tokens[i]
		tokenOut := route.Path.Tokens[i+1]
		out, impact, err := amm.HopOut(&snapshot, tokenIn, current)
		if err != nil {
			return domain.RouteQuote{}, err
		}
		hops = append(hops, domain.HopQuote{
			Pool:      poolID,
			TokenIn:   tokenIn,
			TokenOut:  tokenOut,
			AmountIn:  current,
			AmountOut: out,
			FeeBps:    snapshot.FeeBps,
			ImpactBps: impact,
		})
		current = out
	}
	return domain.RouteQuote{Route: route, AmountIn: amountIn, Hops: hops}, nil
}

// GetSplitQuote composes GetRouteQuote over every route in split (§4.6).
func (r *Router) GetSplitQuote(split domain.SplitRoute, amountIn *big.Int) (domain.SplitQuote, error) {
	quotes := make([]domain.RouteQuote, 0, len(split.Routes))
	for i, route := range split.Routes {
		quote, err := r.GetRouteQuote(route, split.Amounts[i])
		if err != nil {
			return domain.SplitQuote{}, err
		}
		quotes = append(quotes, quote)
	}
	return domain.SplitQuote{Split: split, AmountIn: amountIn, Routes: quotes}, nil
}

// Stats reports the façade's running statistics (§4.6).
func (r *Router) Stats() domain.RouterStats {
	cacheStats := r.cache.Stats()

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	var avgMs float64
	if len(r.findDurationsMs) > 0 {
		var sum float64
		for _, d := range r.findDurationsMs {
			sum += d
		}
		avgMs = sum / float64(len(r.findDurationsMs))
	}
	return domain.RouterStats{
		CachedPools:           cacheStats.Size,
		CacheHitRate:          cacheStats.HitRate,
		AvgRouteFindingTimeMs: avgMs,
		TotalRoutesFound:      r.totalRoutesFound,
	}
}
