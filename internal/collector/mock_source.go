// Package collector provides concrete PoolDirectory/PoolSource
// implementations for the demonstration HTTP surface (§6 "Ambient external
// surface"): an in-memory mock seeded with major pairs, grounded in the
// teacher's MockPoolCollector, and a Redis-backed one grounded in its
// RedisStore/TwoLevelCache.
package collector

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ammrouter/quoter/internal/domain"
)

// MockExchange mirrors the teacher's Exchange metadata; it's carried along
// for pool-id naming only, not consumed by routing.
type MockExchange struct {
	Name    string
	Version string
}

// MockSource seeds a handful of major pairs across two mock exchanges, the
// same pairs and scale the teacher's MockPoolCollector uses.
type MockSource struct {
	exchanges []MockExchange
	snapshots map[domain.PoolId]domain.PoolSnapshot
	ids       []domain.PoolId
}

// NewMockSource builds the seeded mock PoolDirectory/PoolSource pair.
func NewMockSource() *MockSource {
	exchanges := []MockExchange{
		{Name: "uniswap-v2", Version: "v2"},
		{Name: "sushiswap", Version: "v2"},
	}

	// Hex addresses, lowercase, matching the teacher's seeded major pairs.
	const (
		weth = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
		usdt = "0xdac17f958d2ee523a2206206994597c13d831ec7"
		usdc = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
		dai  = "0x6b175474e89094c44da98b954eedeac495271d0f"
	)

	type pair struct {
		name               string
		tokenA, tokenB     string
		reserveA, reserveB *big.Int
	}
	pairs := []pair{
		{"weth-usdt", weth, usdt, big.NewInt(1_000_000_000_000_000_000), big.NewInt(2_000_000_000)},
		{"weth-usdc", weth, usdc, big.NewInt(1_000_000_000_000_000_000), big.NewInt(2_000_000_000)},
		{"weth-dai", weth, dai, big.NewInt(1_000_000_000_000_000_000), new(big.Int).Mul(big.NewInt(2_000), pow10(18))},
		{"usdc-usdt", usdc, usdt, big.NewInt(1_000_000_000), big.NewInt(1_000_000_000)},
	}

	ms := &MockSource{exchanges: exchanges, snapshots: make(map[domain.PoolId]domain.PoolSnapshot)}
	for _, ex := range exchanges {
		for i, p := range pairs {
			id := domain.PoolId(fmt.Sprintf("%s-%s-%d", ex.Name, p.name, i))
			snapshot := domain.PoolSnapshot{
				PoolID:   id,
				TokenA:   domain.TokenId(p.tokenA),
				TokenB:   domain.TokenId(p.tokenB),
				ReserveA: new(big.Int).Set(p.reserveA),
				ReserveB: new(big.Int).Set(p.reserveB),
				FeeBps:   domain.DefaultFeeBps,
			}
			ms.snapshots[id] = snapshot
			ms.ids = append(ms.ids, id)
		}
	}
	return ms
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// ListPools implements router.PoolDirectory.
func (ms *MockSource) ListPools(ctx context.Context) ([]domain.PoolId, error) {
	return append([]domain.PoolId(nil), ms.ids...), nil
}

// LoadSnapshot implements router.PoolSource.
func (ms *MockSource) LoadSnapshot(ctx context.Context, id domain.PoolId) (domain.PoolSnapshot, error) {
	snapshot, ok := ms.snapshots[domain.PoolId(strings.ToLower(string(id)))]
	if !ok {
		return domain.PoolSnapshot{}, domain.NewError("collector.MockSource.LoadSnapshot", domain.CacheError, "no mock snapshot for pool %q", id)
	}
	return snapshot, nil
}
