package collector

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammrouter/quoter/internal/domain"
)

func TestWireSnapshotRoundTrip(t *testing.T) {
	snapshot := domain.PoolSnapshot{
		PoolID: "pool-1", TokenA: "weth", TokenB: "usdc",
		ReserveA: big.NewInt(1_000_000_000_000_000_000), ReserveB: big.NewInt(2_000_000_000),
		FeeBps: 30, CapturedAt: 12345,
	}
	decoded, err := toWire(snapshot).toDomain()
	assert.NoError(t, err)
	assert.Equal(t, snapshot.PoolID, decoded.PoolID)
	assert.Equal(t, 0, snapshot.ReserveA.Cmp(decoded.ReserveA))
	assert.Equal(t, 0, snapshot.ReserveB.Cmp(decoded.ReserveB))
	assert.Equal(t, snapshot.FeeBps, decoded.FeeBps)
}

func TestWireSnapshotRejectsMalformedReserve(t *testing.T) {
	w := wireSnapshot{PoolID: "pool-1", TokenA: "weth", TokenB: "usdc", ReserveA: "not-a-number", ReserveB: "100"}
	_, err := w.toDomain()
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.CacheError, k)
}

func TestTokenPairKeyIsOrderIndependent(t *testing.T) {
	rs := NewRedisSource("localhost:6379", "", "")
	keyAB, err := rs.tokenPairKey("weth", "usdc")
	assert.NoError(t, err)
	keyBA, err := rs.tokenPairKey("usdc", "weth")
	assert.NoError(t, err)
	assert.Equal(t, keyAB, keyBA)
}

func TestTokenPairKeyRejectsSameToken(t *testing.T) {
	rs := NewRedisSource("localhost:6379", "", "")
	_, err := rs.tokenPairKey("weth", "WETH")
	k, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.InvalidArgument, k)
}
