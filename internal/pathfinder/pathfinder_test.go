package pathfinder

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammrouter/quoter/internal/clock"
	"github.com/ammrouter/quoter/internal/domain"
	"github.com/ammrouter/quoter/internal/poolcache"
)

func big_(x int64) *big.Int { return big.NewInt(x) }

// triangleGraph seeds a cache with the S4/S5 triangle: USDC<->XLM, XLM<->BTC,
// USDC<->BTC, and returns its graph view.
func triangleGraph(t *testing.T) poolcache.TokenGraph {
	t.Helper()
	c := poolcache.New(clock.NewManual(0), 10_000)
	require := assert.New(t)
	require.NoError(c.Put(domain.PoolSnapshot{
		PoolID: "usdc-xlm", TokenA: "usdc", TokenB: "xlm",
		ReserveA: big_(1_000_000_0000000), ReserveB: big_(1_000_000_0000000), FeeBps: 30,
	}))
	require.NoError(c.Put(domain.PoolSnapshot{
		PoolID: "xlm-btc", TokenA: "xlm", TokenB: "btc",
		ReserveA: big_(1_000_000_0000000), ReserveB: big_(50_000_0000000), FeeBps: 30,
	}))
	require.NoError(c.Put(domain.PoolSnapshot{
		PoolID: "usdc-btc", TokenA: "usdc", TokenB: "btc",
		ReserveA: big_(1_000_000_0000000), ReserveB: big_(50_000_0000000), FeeBps: 30,
	}))
	return c.Graph()
}

// S4: find_best_route(USDC, XLM, 1000*10^7) returns the single-hop path.
func TestFindBestRouteSeedScenario(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	route, err := f.FindBestRoute(g, "usdc", "xlm", big_(1_000_0000000), SearchOptions{MaxHops: 3})
	assert.NoError(t, err)
	assert.Equal(t, []domain.TokenId{"usdc", "xlm"}, route.Path.Tokens)
}

// S5: find_all_routes(USDC, BTC, max_hops=3) contains both the direct and
// the two-hop route.
func TestFindAllRoutesSeedScenario(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	routes, err := f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{MaxHops: 3})
	assert.NoError(t, err)

	var hasDirect, hasTwoHop bool
	for _, r := range routes {
		switch len(r.Path.Tokens) {
		case 2:
			hasDirect = true
		case 3:
			hasTwoHop = true
		}
	}
	assert.True(t, hasDirect, "expected the direct usdc->btc route")
	assert.True(t, hasTwoHop, "expected the two-hop usdc->xlm->btc route")
}

func TestFindAllRoutesRejectsSameToken(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	_, err := f.FindAllRoutes(g, "usdc", "usdc", big_(1000), SearchOptions{MaxHops: 2})
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.InvalidTokenPair, k)
}

func TestFindAllRoutesRejectsUnknownToken(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	_, err := f.FindAllRoutes(g, "usdc", "doge", big_(1000), SearchOptions{MaxHops: 2})
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.InvalidTokenPair, k)
}

// Property 9: every returned path is simple and its hop count never
// exceeds max_hops.
func TestFindAllRoutesRespectsHopBoundAndSimplicity(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	routes, err := f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{MaxHops: 2})
	assert.NoError(t, err)
	assert.NotEmpty(t, routes)

	for _, r := range routes {
		assert.LessOrEqual(t, r.Path.Hops(), 2)
		seen := map[domain.TokenId]bool{}
		for _, tok := range r.Path.Tokens {
			assert.False(t, seen[tok], "token %q repeated in path", tok)
			seen[tok] = true
		}
	}
}

// Property 10: find_best_route picks the greatest expected_output, ties
// broken by lower price_impact_bps.
func TestFindBestRoutePicksGreatestOutput(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	routes, err := f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{MaxHops: 3})
	assert.NoError(t, err)
	assert.NotEmpty(t, routes)

	best, err := f.FindBestRoute(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{MaxHops: 3})
	assert.NoError(t, err)

	for _, r := range routes {
		assert.True(t, best.ExpectedOutput.Cmp(r.ExpectedOutput) >= 0)
	}
}

func TestFindBestRouteNoRouteFound(t *testing.T) {
	c := poolcache.New(clock.NewManual(0), 10_000)
	assert.NoError(t, c.Put(domain.PoolSnapshot{
		PoolID: "usdc-xlm", TokenA: "usdc", TokenB: "xlm",
		ReserveA: big_(1000), ReserveB: big_(1000), FeeBps: 30,
	}))
	assert.NoError(t, c.Put(domain.PoolSnapshot{
		PoolID: "btc-eth", TokenA: "btc", TokenB: "eth",
		ReserveA: big_(1000), ReserveB: big_(1000), FeeBps: 30,
	}))
	g := c.Graph()
	f := New()

	_, err := f.FindBestRoute(g, "usdc", "eth", big_(10), SearchOptions{MaxHops: 3})
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.NoRouteFound, k)
}

func TestFindDirectRoute(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	route, found, err := f.FindDirectRoute(g, "usdc", "xlm", big_(1_000_0000000))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, route.Path.Hops())
}

func TestFilterRoutesAppliesBothBounds(t *testing.T) {
	g := triangleGraph(t)
	f := New()
	routes, err := f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{MaxHops: 3})
	assert.NoError(t, err)

	filtered := FilterRoutes(routes, routes[0].ExpectedOutput, routes[0].PriceImpactBps)
	for _, r := range filtered {
		assert.True(t, r.ExpectedOutput.Cmp(routes[0].ExpectedOutput) >= 0)
		assert.True(t, r.PriceImpactBps <= routes[0].PriceImpactBps)
	}
}

func TestGetTopRoutesOrdersByScoreDescending(t *testing.T) {
	g := triangleGraph(t)
	f := New()
	routes, err := f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{MaxHops: 3})
	assert.NoError(t, err)

	top := GetTopRoutes(routes, 1)
	assert.Len(t, top, 1)
	for _, r := range routes {
		assert.True(t, top[0].Score >= r.Score)
	}
}

func TestExcludePoolsAndTokens(t *testing.T) {
	g := triangleGraph(t)
	f := New()

	routes, err := f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{
		MaxHops:      3,
		ExcludePools: map[domain.PoolId]bool{"usdc-btc": true},
	})
	assert.NoError(t, err)
	for _, r := range routes {
		assert.NotContains(t, r.Path.Pools, domain.PoolId("usdc-btc"))
	}

	routes, err = f.FindAllRoutes(g, "usdc", "btc", big_(1_000_0000000), SearchOptions{
		MaxHops:       3,
		ExcludeTokens: map[domain.TokenId]bool{"xlm": true},
	})
	assert.NoError(t, err)
	for _, r := range routes {
		assert.NotContains(t, r.Path.Tokens, domain.TokenId("xlm"))
	}
}
