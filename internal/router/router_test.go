package router

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ammrouter/quoter/internal/clock"
	"github.com/ammrouter/quoter/internal/domain"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListPools(ctx context.Context) ([]domain.PoolId, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PoolId), args.Error(1)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) LoadSnapshot(ctx context.Context, id domain.PoolId) (domain.PoolSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return domain.PoolSnapshot{}, args.Error(1)
	}
	return args.Get(0).(domain.PoolSnapshot), args.Error(1)
}

func triangleSource() *mockSource {
	src := &mockSource{}
	src.On("LoadSnapshot", mock.Anything, domain.PoolId("usdc-xlm")).Return(domain.PoolSnapshot{
		PoolID: "usdc-xlm", TokenA: "usdc", TokenB: "xlm",
		ReserveA: big.NewInt(1_000_000_0000000), ReserveB: big.NewInt(1_000_000_0000000), FeeBps: 30,
	}, nil)
	src.On("LoadSnapshot", mock.Anything, domain.PoolId("xlm-btc")).Return(domain.PoolSnapshot{
		PoolID: "xlm-btc", TokenA: "xlm", TokenB: "btc",
		ReserveA: big.NewInt(1_000_000_0000000), ReserveB: big.NewInt(50_000_0000000), FeeBps: 30,
	}, nil)
	src.On("LoadSnapshot", mock.Anything, domain.PoolId("usdc-btc")).Return(domain.PoolSnapshot{
		PoolID: "usdc-btc", TokenA: "usdc", TokenB: "btc",
		ReserveA: big.NewInt(1_000_000_0000000), ReserveB: big.NewInt(50_000_0000000), FeeBps: 30,
	}, nil)
	return src
}

func triangleDirectory() *mockDirectory {
	dir := &mockDirectory{}
	dir.On("ListPools", mock.Anything).Return([]domain.PoolId{"usdc-xlm", "xlm-btc", "usdc-btc"}, nil)
	return dir
}

func newTestRouter(t *testing.T, dir PoolDirectory, src PoolSource) *Router {
	t.Helper()
	cfg := DefaultConfig("0xFactory")
	r, err := New(cfg, dir, src, clock.NewManual(0))
	assert.NoError(t, err)
	return r
}

func TestConfigValidationRejectsMissingFactory(t *testing.T) {
	cfg := DefaultConfig("")
	err := cfg.Validate()
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.InvalidConfiguration, k)
}

func TestConfigValidationRejectsOutOfRangeMaxHops(t *testing.T) {
	cfg := DefaultConfig("0xFactory")
	cfg.MaxHops = 6
	err := cfg.Validate()
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.InvalidConfiguration, k)
}

func TestFindBestRouteLazilyLoadsCache(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	route, err := r.FindBestRoute(context.Background(), "usdc", "xlm", big.NewInt(1_000_0000000), 0)
	assert.NoError(t, err)
	assert.Equal(t, []domain.TokenId{"usdc", "xlm"}, route.Path.Tokens)
	dir.AssertExpectations(t)
}

func TestFindAllRoutesSortsByScore(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	routes, err := r.FindAllRoutes(context.Background(), "usdc", "btc", 0)
	assert.NoError(t, err)
	assert.NotEmpty(t, routes)
	for i := 1; i < len(routes); i++ {
		assert.True(t, routes[i-1].Score >= routes[i].Score)
	}
}

func TestFindOptimalSplitProducesValidSplit(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	split, err := r.FindOptimalSplit(context.Background(), "usdc", "btc", big.NewInt(1_000_0000000), 0)
	assert.NoError(t, err)

	var pctSum float64
	for _, p := range split.Percents {
		pctSum += p
	}
	assert.InDelta(t, 100.0, pctSum, 0.01)
}

func TestGetRouteQuoteRecomputesHopByHop(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	amountIn := big.NewInt(1_000_0000000)
	route, err := r.FindBestRoute(context.Background(), "usdc", "xlm", amountIn, 0)
	assert.NoError(t, err)

	quote, err := r.GetRouteQuote(route, amountIn)
	assert.NoError(t, err)
	assert.Len(t, quote.Hops, 1)
	assert.Equal(t, route.ExpectedOutput, quote.Hops[len(quote.Hops)-1].AmountOut)
}

func TestGetSplitQuoteComposesRouteQuotes(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	amountIn := big.NewInt(1_000_0000000)
	split, err := r.FindOptimalSplit(context.Background(), "usdc", "btc", amountIn, 0)
	assert.NoError(t, err)

	splitQuote, err := r.GetSplitQuote(split, amountIn)
	assert.NoError(t, err)
	assert.Len(t, splitQuote.Routes, len(split.Routes))
}

func TestRefreshPoolsForceClearsCache(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	assert.NoError(t, r.RefreshPools(context.Background(), false))
	assert.Equal(t, 3, r.Stats().CachedPools)

	assert.NoError(t, r.RefreshPools(context.Background(), true))
	assert.Equal(t, 3, r.Stats().CachedPools)
}

func TestClearCacheEmptiesStats(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	assert.NoError(t, r.RefreshPools(context.Background(), false))
	r.ClearCache()
	assert.Equal(t, 0, r.Stats().CachedPools)
}

func TestStatsTracksRoutesFound(t *testing.T) {
	dir := triangleDirectory()
	src := triangleSource()
	r := newTestRouter(t, dir, src)

	_, err := r.FindAllRoutes(context.Background(), "usdc", "btc", 0)
	assert.NoError(t, err)
	assert.True(t, r.Stats().TotalRoutesFound > 0)
}
